package extpoint

// PluginsOf returns every plugin registered under extension point T in the
// default catalog, in registration order. It returns an empty slice when
// nothing was registered for T, never an error.
//
// The first call seals the catalog. Elements are the same instances on
// every call; the slice itself is fresh.
func PluginsOf[T any]() []T {
	return PluginsIn[T](defaultCatalog)
}

// PluginsIn is PluginsOf for an explicit catalog.
func PluginsIn[T any](c *Catalog) []T {
	c.Seal()
	return lookup[T](c).queryAll()
}

// EntriesOf returns the entries registered under T in the default catalog.
func EntriesOf[T any]() []*Entry[T] {
	return EntriesIn[T](defaultCatalog)
}

// EntriesIn is EntriesOf for an explicit catalog.
func EntriesIn[T any](c *Catalog) []*Entry[T] {
	c.Seal()
	return lookup[T](c).all()
}

// Seal seals the default catalog. Programs that want registration to stop
// at a well-defined point call it at the top of main.
func Seal() {
	defaultCatalog.Seal()
}
