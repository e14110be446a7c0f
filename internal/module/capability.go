package module

import (
	"fmt"
	"reflect"
)

// CapabilityID identifies a service contract inside a module slot. It is
// derived from a Go type, usually an interface, so the identity and the
// type a consumer asserts to can never drift apart.
type CapabilityID struct {
	typ reflect.Type
}

// CapabilityOf returns the identifier for T.
func CapabilityOf[T any]() CapabilityID {
	return CapabilityID{typ: reflect.TypeFor[T]()}
}

// Type returns the Go type backing the identifier.
func (c CapabilityID) Type() reflect.Type { return c.typ }

// String renders the identifier as its qualified type name.
func (c CapabilityID) String() string {
	if c.typ == nil {
		return "<nil>"
	}
	return c.typ.String()
}

// Accepts reports whether impl may be published under this identifier.
func (c CapabilityID) Accepts(impl any) bool {
	if c.typ == nil || impl == nil {
		return false
	}
	return reflect.TypeOf(impl).AssignableTo(c.typ)
}

// Provide registers impl under the capability of its static type T.
func Provide[T any](reg Registry, impl T) error {
	return reg.Register(CapabilityOf[T](), impl)
}

// Find looks up the capability T in the named module and returns it typed.
func Find[T any](r Reader, module string) (T, error) {
	var zero T
	raw, err := r.Lookup(module, CapabilityOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("module %q: capability %s holds %T", module, CapabilityOf[T](), raw)
	}
	return typed, nil
}
