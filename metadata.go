package extpoint

import "reflect"

// Metadata holds descriptive information about a plugin.
type Metadata struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string            `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// MetadataProvider is implemented by plugins that describe themselves.
// It is optional and orthogonal to the extension point interface.
type MetadataProvider interface {
	Metadata() Metadata
}

// ExtractMetadata returns v's own metadata when it implements
// MetadataProvider. Otherwise the name is derived from the dynamic type and
// all other fields stay empty. An empty Name from a provider is filled the
// same way.
func ExtractMetadata(v any) Metadata {
	var m Metadata
	if p, ok := v.(MetadataProvider); ok {
		m = p.Metadata()
	}
	if m.Name == "" {
		m.Name = typeName(reflect.TypeOf(v))
	}
	return m
}

// typeName renders t without pointer stars, e.g. "shape.Circle".
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
