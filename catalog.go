package extpoint

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Sentinel errors recorded for dropped registrations. They never surface
// from a query; see Catalog.Failures.
var (
	ErrSealed           = errors.New("catalog is sealed")
	ErrConstructorPanic = errors.New("plugin constructor panicked")
	ErrNilInstance      = errors.New("plugin constructor returned nil")
	ErrDuplicateName    = errors.New("extension point name already declared")
)

// Failure describes a registration or declaration the catalog dropped.
// ExtensionPoint is the import-path qualified interface type; Point is the
// name the catalog knew that type by when the failure happened.
type Failure struct {
	ExtensionPoint string `json:"extension_point" yaml:"extension_point"`
	Point          string `json:"point,omitempty" yaml:"point,omitempty"`
	Plugin         string `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Reason         string `json:"reason" yaml:"reason"`
	Err            error  `json:"-" yaml:"-"`
}

func (f Failure) Error() string {
	if f.Plugin == "" {
		return fmt.Sprintf("%s: %v", f.ExtensionPoint, f.Err)
	}
	return fmt.Sprintf("%s <- %s: %v", f.ExtensionPoint, f.Plugin, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

type declaration struct {
	name        string
	description string
}

// PointOption configures an extension point declaration.
type PointOption func(*declaration)

// WithDescription attaches a human readable description to a declared
// extension point.
func WithDescription(desc string) PointOption {
	return func(d *declaration) {
		d.description = desc
	}
}

// Catalog is a type-partitioned set of registries, one per extension point.
//
// A catalog has two phases. While registering, Register* and Declare* add
// to it under a mutex. The first query (or an explicit Seal) ends that
// phase for good; afterwards the registries are immutable, reads take no
// lock, and late registrations are dropped with ErrSealed.
type Catalog struct {
	mu       sync.Mutex
	points   map[reflect.Type]point
	decls    map[reflect.Type]*declaration
	failures []Failure

	sealOnce sync.Once
	sealed   atomic.Bool
	logger   atomic.Pointer[zap.Logger]
}

// New creates an empty catalog in the registering phase.
func New() *Catalog {
	c := &Catalog{
		points: make(map[reflect.Type]point),
		decls:  make(map[reflect.Type]*declaration),
	}
	c.logger.Store(zap.NewNop())
	return c
}

var defaultCatalog = New()

// Default returns the process-wide catalog that Register, Declare and
// PluginsOf operate on.
func Default() *Catalog {
	return defaultCatalog
}

// SetLogger replaces the catalog's logger. A nil logger silences it, which
// is also the initial state: registrations run before main has a chance to
// configure logging.
func (c *Catalog) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger.Store(logger.With(zap.String("component", "extpoint_catalog")))
}

func (c *Catalog) log() *zap.Logger {
	return c.logger.Load()
}

// Seal ends the registering phase. It is idempotent and safe to call from
// any number of goroutines; when it returns, no registration is in flight.
func (c *Catalog) Seal() {
	c.sealOnce.Do(func() {
		c.mu.Lock()
		c.sealed.Store(true)
		n := len(c.points)
		c.mu.Unlock()
		c.log().Debug("catalog sealed", zap.Int("extension_points", n))
	})
}

// Sealed reports whether the catalog has left the registering phase.
func (c *Catalog) Sealed() bool {
	return c.sealed.Load()
}

// Failures returns the registrations and declarations that were dropped.
func (c *Catalog) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// Snapshot seals the catalog and describes every extension point that was
// declared or has at least one plugin. Points are sorted by name, plugins
// keep registration order.
func (c *Catalog) Snapshot() Snapshot {
	c.Seal()

	seen := make(map[reflect.Type]struct{}, len(c.points))
	s := Snapshot{Points: make([]PointInfo, 0, len(c.points)+len(c.decls))}
	for typ, p := range c.points {
		seen[typ] = struct{}{}
		s.Points = append(s.Points, p.info())
	}
	for typ, d := range c.decls {
		if _, ok := seen[typ]; ok {
			continue
		}
		s.Points = append(s.Points, PointInfo{
			Name:        d.name,
			Type:        typeKey(typ),
			Description: d.description,
			Plugins:     []PluginInfo{},
		})
	}
	sort.SliceStable(s.Points, func(i, j int) bool {
		if s.Points[i].Name != s.Points[j].Name {
			return s.Points[i].Name < s.Points[j].Name
		}
		return s.Points[i].Type < s.Points[j].Type
	})
	s.Failures = c.Failures()
	return s
}

// fail records a dropped registration. It must not be called with c.mu held.
func (c *Catalog) fail(pt reflect.Type, plugin string, err error) {
	f := Failure{ExtensionPoint: typeKey(pt), Plugin: plugin, Reason: err.Error(), Err: err}
	c.mu.Lock()
	f.Point = c.nameOfLocked(pt)
	c.failures = append(c.failures, f)
	c.mu.Unlock()
	c.log().Warn("extension point registration dropped",
		zap.String("extension_point", f.ExtensionPoint),
		zap.String("point", f.Point),
		zap.String("plugin", plugin),
		zap.Error(err))
}

// nameOf returns the name pt is known by: its declaration, its registry's
// derived name, or the qualified type when the catalog has neither.
func (c *Catalog) nameOf(pt reflect.Type) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nameOfLocked(pt)
}

func (c *Catalog) nameOfLocked(pt reflect.Type) string {
	if d, ok := c.decls[pt]; ok {
		return d.name
	}
	if p, ok := c.points[pt]; ok {
		return p.displayName()
	}
	return typeKey(pt)
}

// nameOwner returns the type other than pt that already uses name, or nil.
// The caller holds c.mu.
func (c *Catalog) nameOwner(pt reflect.Type, name string) reflect.Type {
	for other, d := range c.decls {
		if other != pt && d.name == name {
			return other
		}
	}
	for other, p := range c.points {
		if other != pt && p.displayName() == name {
			return other
		}
	}
	return nil
}

// uniqueName returns base, or base with a "#n" suffix when other types
// already use it. Two function-local interfaces in one package share a
// qualified type string. The caller holds c.mu.
func (c *Catalog) uniqueName(pt reflect.Type, base string) string {
	name := base
	for i := 2; c.nameOwner(pt, name) != nil; i++ {
		name = fmt.Sprintf("%s#%d", base, i)
	}
	return name
}

// declare records a display name for pt. The first declaration of a type
// wins; an explicit name already used by another type is rejected, a
// defaulted one is made unique.
func (c *Catalog) declare(pt reflect.Type, name string, opts ...PointOption) error {
	d := &declaration{name: name}
	for _, opt := range opts {
		opt(d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed.Load() {
		return ErrSealed
	}
	if _, ok := c.decls[pt]; ok {
		return nil
	}
	if d.name == "" {
		if p, ok := c.points[pt]; ok {
			d.name = p.displayName()
		} else {
			d.name = c.uniqueName(pt, typeKey(pt))
		}
	} else if other := c.nameOwner(pt, d.name); other != nil {
		return fmt.Errorf("%w: %q is used by %s", ErrDuplicateName, d.name, typeKey(other))
	}
	c.decls[pt] = d
	if p, ok := c.points[pt]; ok {
		p.rename(d.name, d.description)
	}
	return nil
}

// addEntry appends e to the registry for pt, creating it on first use.
func addEntry[T any](c *Catalog, pt reflect.Type, e *Entry[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed.Load() {
		return ErrSealed
	}
	var r *registry[T]
	if p, ok := c.points[pt]; ok {
		r = p.(*registry[T])
	} else {
		if d, ok := c.decls[pt]; ok {
			r = newRegistry[T](pt, d.name)
			r.rename(d.name, d.description)
		} else {
			r = newRegistry[T](pt, c.uniqueName(pt, typeKey(pt)))
		}
		c.points[pt] = r
	}
	r.register(e)
	return nil
}

// lookup returns the registry for T, or nil. The catalog must be sealed.
func lookup[T any](c *Catalog) *registry[T] {
	p, ok := c.points[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return p.(*registry[T])
}
