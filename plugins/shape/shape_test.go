package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/extpoint"
)

func TestPlugins(t *testing.T) {
	got := Point.Plugins()
	require.Len(t, got, 2)

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"circle", "square"}, names)
}

func TestTotalArea(t *testing.T) {
	assert.InDelta(t, 7.14, TotalArea(), 1e-9)
}

func TestSnapshot(t *testing.T) {
	p, ok := extpoint.Default().Snapshot().Point("shape")
	require.True(t, ok)
	assert.Equal(t, "github.com/BaSui01/extpoint/plugins/shape.Shape", p.Type)
	assert.NotEmpty(t, p.Description)
	require.Len(t, p.Plugins, 2)
	for _, pl := range p.Plugins {
		assert.Equal(t, "1.0.0", pl.Metadata.Version)
	}
}
