package extpoint

import "reflect"

// point is the type-erased view of a registry that the catalog keeps in its
// map. Only snapshotting and metrics go through it; typed access asserts
// back to *registry[T].
type point interface {
	key() reflect.Type
	info() PointInfo
	size() int
	displayName() string
	rename(name, description string)
}

// registry holds the entries of one extension point in registration order.
// It is created on the first registration for its type and never shrinks.
type registry[T any] struct {
	typ         reflect.Type
	name        string
	description string
	entries     []*Entry[T]
}

var _ point = (*registry[any])(nil)

func newRegistry[T any](typ reflect.Type, name string) *registry[T] {
	return &registry[T]{typ: typ, name: name}
}

// typeKey renders an extension point type with its import path, e.g.
// "github.com/acme/geo/shape.Shape". Package names alone are not unique.
func typeKey(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// register appends e. The caller holds the catalog write lock.
func (r *registry[T]) register(e *Entry[T]) {
	e.seq = len(r.entries)
	r.entries = append(r.entries, e)
}

// queryAll returns one instance per entry, in registration order. The
// result is always a fresh non-nil slice so callers may modify it freely.
func (r *registry[T]) queryAll() []T {
	if r == nil {
		return []T{}
	}
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Instance()
	}
	return out
}

// all returns the entries themselves.
func (r *registry[T]) all() []*Entry[T] {
	if r == nil {
		return []*Entry[T]{}
	}
	out := make([]*Entry[T], len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *registry[T]) key() reflect.Type { return r.typ }

func (r *registry[T]) displayName() string { return r.name }

func (r *registry[T]) rename(name, description string) {
	r.name = name
	r.description = description
}

func (r *registry[T]) size() int { return len(r.entries) }

func (r *registry[T]) info() PointInfo {
	pi := PointInfo{
		Name:        r.name,
		Type:        typeKey(r.typ),
		Description: r.description,
		Plugins:     make([]PluginInfo, 0, len(r.entries)),
	}
	for _, e := range r.entries {
		pi.Plugins = append(pi.Plugins, PluginInfo{
			Type:     e.PluginType().String(),
			Seq:      e.Seq(),
			Metadata: e.Metadata(),
		})
	}
	return pi
}
