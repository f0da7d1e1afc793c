// Package extpoint lets independently compiled packages contribute
// implementations of a shared interface without any central list naming
// them.
//
// An extension point is any Go interface type. A plugin package registers
// its implementation during package initialization, and a consumer later
// collects every implementation by type:
//
//	// package shape
//	type Shape interface{ Area() float64 }
//
//	// package shape/square
//	type Square struct{}
//
//	func (*Square) Area() float64 { return 4 }
//
//	var _ = extpoint.Register[shape.Shape, Square]()
//
//	// package main
//	import _ "example.com/shape/square"
//
//	for _, s := range extpoint.PluginsOf[shape.Shape]() {
//		total += s.Area()
//	}
//
// Importing a plugin package is all it takes to include it. Go runs package
// initialization on a single goroutine before main, so every registration
// finishes before the first query.
//
// # Phases
//
// A Catalog starts in the registering phase. The first query or an explicit
// Seal moves it to the stable phase, after which registries are immutable
// and read without locks. Registrations attempted after that are dropped.
//
// # Failures
//
// Registration never returns an error to the program. A plugin whose
// constructor panics or returns nil, or that registers too late, is simply
// absent from queries; Catalog.Failures lists what was dropped and the
// catalog logger (silent by default) reports it as it happens.
package extpoint
