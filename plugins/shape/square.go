package shape

import "github.com/BaSui01/extpoint"

const defaultSide = 2.0

// Square is a square. The registered instance is zero-valued and uses the
// default side of 2.
type Square struct {
	Side float64
}

var _ = extpoint.Register[Shape, Square]()

func (s *Square) Name() string { return "square" }

func (s *Square) Area() float64 {
	side := s.Side
	if side == 0 {
		side = defaultSide
	}
	return side * side
}

func (s *Square) Metadata() extpoint.Metadata {
	return extpoint.Metadata{
		Name:    "square",
		Version: "1.0.0",
		Tags:    []string{"polygon"},
	}
}
