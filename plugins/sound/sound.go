// Package sound defines the Sound extension point and its built-in plugins.
package sound

import "github.com/BaSui01/extpoint"

// Sound is something that can be played.
type Sound interface {
	Name() string
	Play() string
}

// Point is the declared Sound extension point.
var Point = extpoint.Declare[Sound]("sound")

// Bell rings once per Play.
type Bell struct {
	rings int
}

var _ = extpoint.Register[Sound, Bell]()

func (b *Bell) Name() string { return "bell" }

func (b *Bell) Play() string {
	b.rings++
	return "ding"
}

// Rings reports how many times the bell was played.
func (b *Bell) Rings() int { return b.rings }
