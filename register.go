package extpoint

import (
	"fmt"
	"reflect"
	"runtime"

	"go.uber.org/zap"
)

// Register registers plugin type P under extension point T in the default
// catalog and returns its entry. T must be an interface type and *P must
// implement it; the plugin instance is new(P).
//
// Register is meant to run during package initialization, in the plugin's
// own package:
//
//	var _ = extpoint.Register[shape.Shape, Square]()
//
// Registering the same P twice is not detected and yields two entries.
// When the catalog is already sealed the registration is dropped, recorded
// in Failures, and Register returns nil.
func Register[T, P any]() *Entry[T] {
	return RegisterIn[T, P](defaultCatalog)
}

// RegisterIn is Register for an explicit catalog.
func RegisterIn[T, P any](c *Catalog) *Entry[T] {
	pt := mustInterface[T]()
	inst, ok := any(new(P)).(T)
	if !ok {
		panic(fmt.Sprintf("extpoint: %s does not implement %s", reflect.TypeFor[*P](), pt))
	}
	return commit(c, pt, newEntry(pt, inst))
}

// RegisterFunc registers the instance built by ctor under extension point T
// in the default catalog. ctor runs exactly once, immediately. A panic
// inside ctor or a nil result drops the registration; the failure is
// recorded in Failures and RegisterFunc returns nil.
func RegisterFunc[T any](ctor func() T) *Entry[T] {
	return RegisterFuncIn(defaultCatalog, ctor)
}

// RegisterFuncIn is RegisterFunc for an explicit catalog.
func RegisterFuncIn[T any](c *Catalog, ctor func() T) *Entry[T] {
	pt := mustInterface[T]()
	if ctor == nil {
		panic(fmt.Sprintf("extpoint: nil constructor for %s", pt))
	}
	inst, err := construct(ctor)
	if err != nil {
		c.fail(pt, funcName(ctor), err)
		return nil
	}
	return commit(c, pt, newEntry(pt, inst))
}

func commit[T any](c *Catalog, pt reflect.Type, e *Entry[T]) *Entry[T] {
	if err := addEntry(c, pt, e); err != nil {
		c.fail(pt, e.PluginType().String(), err)
		return nil
	}
	c.log().Debug("plugin registered",
		zap.String("extension_point", typeKey(pt)),
		zap.String("plugin", e.PluginType().String()),
		zap.Int("seq", e.Seq()))
	return e
}

// construct runs ctor and converts a panic or nil result into an error.
func construct[T any](ctor func() T) (inst T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			inst = zero
			err = fmt.Errorf("%w: %v", ErrConstructorPanic, r)
		}
	}()
	inst = ctor()
	if isNil(inst) {
		return inst, ErrNilInstance
	}
	return inst, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func mustInterface[T any]() reflect.Type {
	pt := reflect.TypeFor[T]()
	if pt.Kind() != reflect.Interface {
		panic(fmt.Sprintf("extpoint: extension point %s is not an interface type", pt))
	}
	return pt
}

func funcName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%T", fn)
}
