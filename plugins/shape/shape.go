// Package shape defines the Shape extension point and its built-in plugins.
package shape

import "github.com/BaSui01/extpoint"

// Shape is a two-dimensional figure.
type Shape interface {
	Name() string
	Area() float64
}

// Point is the declared Shape extension point.
var Point = extpoint.Declare[Shape]("shape",
	extpoint.WithDescription("two-dimensional figures with a computable area"))

// TotalArea sums the area of every registered shape.
func TotalArea() float64 {
	total := 0.0
	for _, s := range Point.Plugins() {
		total += s.Area()
	}
	return total
}
