// Package registry implements the Program Registry (spec.md §4.1): a
// read-only, eagerly-built index over the typed IR giving constant-time
// lookup of types, libfuncs and functions by id.
package registry

import (
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

// UnknownIDError is returned by every lookup miss (spec.md §4.1, §4.7).
type UnknownIDError struct {
	Kind string
	ID   int64
}

func (e *UnknownIDError) Error() string {
	return errors.Errorf("unknown %s id %d", e.Kind, e.ID).Error()
}

// Registry is built once from a sierra.Program and never mutated again.
type Registry struct {
	prog *sierra.Program

	types     map[sierra.TypeID]*sierra.ConcreteType
	libfuncs  map[sierra.LibfuncID]*sierra.ConcreteLibfunc
	functions map[sierra.FunctionID]*sierra.Function
}

// Build constructs the registry eagerly, as required by spec.md §4.1.
func Build(prog *sierra.Program) *Registry {
	r := &Registry{
		prog:      prog,
		types:     make(map[sierra.TypeID]*sierra.ConcreteType, len(prog.Types)),
		libfuncs:  make(map[sierra.LibfuncID]*sierra.ConcreteLibfunc, len(prog.Libfuncs)),
		functions: make(map[sierra.FunctionID]*sierra.Function, len(prog.Functions)),
	}
	for i := range prog.Types {
		t := &prog.Types[i]
		r.types[t.ID] = t
	}
	for i := range prog.Libfuncs {
		l := &prog.Libfuncs[i]
		r.libfuncs[l.ID] = l
	}
	for i := range prog.Functions {
		f := &prog.Functions[i]
		r.functions[f.ID] = f
	}
	return r
}

// TypeOf resolves a type id. Returns *UnknownIDError on miss.
func (r *Registry) TypeOf(id sierra.TypeID) (*sierra.ConcreteType, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, &UnknownIDError{Kind: "type", ID: int64(id)}
	}
	return t, nil
}

// LibfuncOf resolves a libfunc id. Returns *UnknownIDError on miss.
func (r *Registry) LibfuncOf(id sierra.LibfuncID) (*sierra.ConcreteLibfunc, error) {
	l, ok := r.libfuncs[id]
	if !ok {
		return nil, &UnknownIDError{Kind: "libfunc", ID: int64(id)}
	}
	return l, nil
}

// FunctionOf resolves a function id. Returns *UnknownIDError on miss.
func (r *Registry) FunctionOf(id sierra.FunctionID) (*sierra.Function, error) {
	f, ok := r.functions[id]
	if !ok {
		return nil, &UnknownIDError{Kind: "function", ID: int64(id)}
	}
	return f, nil
}

// Statement returns the statement at idx, bounds-checked against the
// program's flat statement list (spec.md §3 "ordered sequence of
// statements").
func (r *Registry) Statement(idx sierra.StatementIdx) (*sierra.Statement, error) {
	if int(idx) < 0 || int(idx) >= len(r.prog.Statements) {
		return nil, &UnknownIDError{Kind: "statement", ID: int64(idx)}
	}
	return &r.prog.Statements[idx], nil
}

// Program exposes the backing program for collaborators that need the
// raw ordered sequences (spec.md §5 "Statements execute in program
// order"). The function lowerer does not use it; it reads statements one
// at a time through Statement.
func (r *Registry) Program() *sierra.Program { return r.prog }
