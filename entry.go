package extpoint

import "reflect"

// noCopy may be embedded into structs which must not be copied after first
// use. go vet's copylocks checker reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Entry owns exactly one plugin instance registered under extension point T.
// Entries are created during bootstrap and live for the rest of the process.
// Always handle them through *Entry; the address is part of their identity.
type Entry[T any] struct {
	_ noCopy

	instance T
	point    reflect.Type
	plugin   reflect.Type
	seq      int
}

func newEntry[T any](point reflect.Type, instance T) *Entry[T] {
	return &Entry[T]{
		instance: instance,
		point:    point,
		plugin:   reflect.TypeOf(instance),
	}
}

// Instance returns the plugin instance. It never reconstructs the plugin,
// so every call returns the same value.
func (e *Entry[T]) Instance() T {
	return e.instance
}

// ExtensionPoint returns the interface type the entry was registered under.
func (e *Entry[T]) ExtensionPoint() reflect.Type {
	return e.point
}

// PluginType returns the dynamic type of the owned instance, e.g. *shape.Circle.
func (e *Entry[T]) PluginType() reflect.Type {
	return e.plugin
}

// Seq is the 0-based position of the entry within its registry.
func (e *Entry[T]) Seq() int {
	return e.seq
}

// Metadata returns the plugin's self-description. Plugins that do not
// implement MetadataProvider get a minimal one derived from their type.
func (e *Entry[T]) Metadata() Metadata {
	return ExtractMetadata(e.instance)
}
