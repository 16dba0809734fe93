package object

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

var (
	ErrAlreadyDeclared = errors.New("already declared")
	ErrNotFound        = errors.New("not declared")
	ErrNotAList        = errors.New("not a list")
	ErrEmptyList       = errors.New("empty list")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrGlobalScope     = errors.New("cannot exit the global scope")
)

var nextID atomic.Uint64

// Scope is one frame of the environment.
type Scope struct {
	ID       uint64
	Bindings map[string]*Symbol
}

func newScope() *Scope {
	return &Scope{
		ID:       nextID.Add(1),
		Bindings: make(map[string]*Symbol),
	}
}

// Environment is a stack of scopes. The first scope lives for the whole
// program; block scopes are pushed and popped around it. Values handed out
// by Lookup are copies: list mutation must go through PushToList and
// PopFromList so that it is visible to later reads.
type Environment struct {
	scopes []*Scope
}

func NewEnvironment() *Environment {
	env := &Environment{}
	env.scopes = append(env.scopes, newScope())
	slog.Debug("------ new environment ------",
		slog.Uint64("scope", env.scopes[0].ID))
	return env
}

func (e *Environment) current() *Scope {
	return e.scopes[len(e.scopes)-1]
}

// Depth reports how many scopes are active; 1 means only the global scope.
func (e *Environment) Depth() int {
	return len(e.scopes)
}

func (e *Environment) EnterScope() {
	s := newScope()
	e.scopes = append(e.scopes, s)
	slog.Debug("enter scope", slog.Uint64("scope", s.ID), slog.Int("depth", len(e.scopes)))
}

func (e *Environment) ExitScope() error {
	if len(e.scopes) == 1 {
		return ErrGlobalScope
	}
	s := e.current()
	e.scopes = e.scopes[:len(e.scopes)-1]
	slog.Debug("exit scope", slog.Uint64("scope", s.ID), slog.Int("depth", len(e.scopes)))
	return nil
}

// Checkpoint is a copy of the global bindings taken by Environment.Checkpoint.
type Checkpoint struct {
	bindings map[string]Symbol
}

// Checkpoint records the global bindings so that a failed unit of work can
// be undone with Rollback.
func (e *Environment) Checkpoint() Checkpoint {
	global := e.scopes[0].Bindings
	cp := Checkpoint{bindings: make(map[string]Symbol, len(global))}
	for name, sym := range global {
		cp.bindings[name] = Symbol{Type: sym.Type, Value: Copy(sym.Value)}
	}
	return cp
}

// Rollback drops every block scope and restores the global bindings
// recorded by cp: names declared since are removed, values restored.
func (e *Environment) Rollback(cp Checkpoint) {
	global := e.scopes[0]
	e.scopes = e.scopes[:1]
	for name := range global.Bindings {
		if _, kept := cp.bindings[name]; !kept {
			delete(global.Bindings, name)
			slog.Debug("roll back binding", slog.String("name", name))
		}
	}
	for name, sym := range cp.bindings {
		global.Bindings[name] = &Symbol{Type: sym.Type, Value: Copy(sym.Value)}
	}
}

// Declare binds name in the innermost scope. A name may be declared once
// per scope regardless of type.
func (e *Environment) Declare(name string, typ SymbolType, val Value) error {
	s := e.current()
	if _, exists := s.Bindings[name]; exists {
		return fmt.Errorf("variable '%s' %w", name, ErrAlreadyDeclared)
	}
	s.Bindings[name] = &Symbol{Type: typ, Value: Copy(val)}
	slog.Debug("declare binding",
		slog.String("name", name),
		slog.Any("type", typ),
		slog.Uint64("scope", s.ID))
	return nil
}

// Bind declares name in the innermost scope, or overwrites the value when
// that scope already holds a binding of the same type.
func (e *Environment) Bind(name string, typ SymbolType, val Value) error {
	s := e.current()
	sym, exists := s.Bindings[name]
	if !exists {
		return e.Declare(name, typ, val)
	}
	if !sym.Type.Equal(typ) {
		return fmt.Errorf("%w: variable '%s' is %s, cannot rebind as %s", ErrTypeMismatch, name, sym.Type, typ)
	}
	sym.Value = Copy(val)
	slog.Debug("rebind binding", slog.String("name", name), slog.Uint64("scope", s.ID))
	return nil
}

// resolve walks from the innermost scope outwards and returns the stored
// symbol itself. It never leaves the package.
func (e *Environment) resolve(name string) (*Symbol, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if sym, ok := e.scopes[i].Bindings[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Lookup returns a copy of the innermost binding for name.
func (e *Environment) Lookup(name string) (Symbol, error) {
	sym, ok := e.resolve(name)
	if !ok {
		return Symbol{}, fmt.Errorf("variable '%s' %w", name, ErrNotFound)
	}
	return Symbol{Type: sym.Type, Value: Copy(sym.Value)}, nil
}

// Assign overwrites the value of an existing binding.
func (e *Environment) Assign(name string, val Value) error {
	sym, ok := e.resolve(name)
	if !ok {
		return fmt.Errorf("variable '%s' %w", name, ErrNotFound)
	}
	if !sym.Type.Equal(val.Type()) {
		return fmt.Errorf("%w: cannot assign %s to variable '%s' of type %s", ErrTypeMismatch, val.Type(), name, sym.Type)
	}
	sym.Value = Copy(val)
	slog.Debug("assign binding", slog.String("name", name))
	return nil
}

func (e *Environment) resolveList(name string) (*Symbol, *List, error) {
	sym, ok := e.resolve(name)
	if !ok {
		return nil, nil, fmt.Errorf("variable '%s' %w", name, ErrNotFound)
	}
	list, ok := sym.Value.(List)
	if !ok {
		return nil, nil, fmt.Errorf("variable '%s' is %w", name, ErrNotAList)
	}
	return sym, &list, nil
}

// PushToList appends val to the list stored under name.
func (e *Environment) PushToList(name string, val Value) error {
	sym, list, err := e.resolveList(name)
	if err != nil {
		return err
	}
	if !list.Elem.Equal(val.Type()) {
		return fmt.Errorf("%w: cannot push %s onto '%s' of type %s", ErrTypeMismatch, val.Type(), name, sym.Type)
	}
	list.Elements = append(list.Elements, Copy(val))
	sym.Value = *list
	return nil
}

// PopFromList removes and returns the last element of the list stored
// under name.
func (e *Environment) PopFromList(name string) (Value, error) {
	sym, list, err := e.resolveList(name)
	if err != nil {
		return nil, err
	}
	n := len(list.Elements)
	if n == 0 {
		return nil, fmt.Errorf("cannot pop from '%s': %w", name, ErrEmptyList)
	}
	last := list.Elements[n-1]
	list.Elements = list.Elements[:n-1]
	sym.Value = *list
	return last, nil
}

// ListLen reports the length of the list stored under name without copying it.
func (e *Environment) ListLen(name string) (int, error) {
	_, list, err := e.resolveList(name)
	if err != nil {
		return 0, err
	}
	return len(list.Elements), nil
}
