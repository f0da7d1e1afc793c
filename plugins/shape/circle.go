package shape

import "github.com/BaSui01/extpoint"

// pi is deliberately coarse so the demo numbers stay readable.
const pi = 3.14

// Circle is a circle of Radius.
type Circle struct {
	Radius float64
}

var _ = extpoint.RegisterFunc(func() Shape { return &Circle{Radius: 1} })

func (c *Circle) Name() string { return "circle" }

func (c *Circle) Area() float64 { return pi * c.Radius * c.Radius }

func (c *Circle) Metadata() extpoint.Metadata {
	return extpoint.Metadata{
		Name:        "circle",
		Version:     "1.0.0",
		Description: "unit circle",
		Tags:        []string{"round"},
	}
}
