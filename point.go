package extpoint

import "reflect"

// Point is a named handle to extension point T. It is the optional
// declaration side of an extension point: the name shows up in snapshots,
// metrics and the CLI, and Plugins saves spelling out the type argument.
type Point[T any] struct {
	catalog *Catalog
	name    string
}

// Declare names extension point T in the default catalog. It belongs next
// to the interface definition:
//
//	var Shapes = extpoint.Declare[Shape]("shape", extpoint.WithDescription("2D shapes"))
//
// The first declaration of T wins. A declaration after sealing, or one that
// reuses another type's name, is recorded in Failures and the returned
// handle still works under the requested name.
func Declare[T any](name string, opts ...PointOption) Point[T] {
	return DeclareIn[T](defaultCatalog, name, opts...)
}

// DeclareIn is Declare for an explicit catalog.
func DeclareIn[T any](c *Catalog, name string, opts ...PointOption) Point[T] {
	pt := mustInterface[T]()
	if err := c.declare(pt, name, opts...); err != nil {
		c.fail(pt, "", err)
	}
	if name == "" {
		name = c.nameOf(pt)
	}
	return Point[T]{catalog: c, name: name}
}

// Name returns the declared name.
func (p Point[T]) Name() string {
	return p.name
}

// Type returns the interface type of the extension point.
func (p Point[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// Plugins returns every plugin registered under T. See PluginsOf.
func (p Point[T]) Plugins() []T {
	return PluginsIn[T](p.catalog)
}

// Entries returns the entries registered under T.
func (p Point[T]) Entries() []*Entry[T] {
	return EntriesIn[T](p.catalog)
}
