package extpoint

// Snapshot is a read-only description of a sealed catalog.
type Snapshot struct {
	Points   []PointInfo `json:"extension_points" yaml:"extension_points"`
	Failures []Failure   `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// PointInfo describes one extension point and its plugins.
type PointInfo struct {
	Name        string       `json:"name" yaml:"name"`
	Type        string       `json:"type" yaml:"type"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Plugins     []PluginInfo `json:"plugins" yaml:"plugins"`
}

// PluginInfo describes one registered plugin.
type PluginInfo struct {
	Type     string   `json:"type" yaml:"type"`
	Seq      int      `json:"seq" yaml:"seq"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// Point returns the extension point with the given name. Failing that it
// matches the qualified type string, as long as exactly one point has it.
func (s Snapshot) Point(name string) (PointInfo, bool) {
	for _, p := range s.Points {
		if p.Name == name {
			return p, true
		}
	}
	var (
		found PointInfo
		n     int
	)
	for _, p := range s.Points {
		if p.Type == name {
			found = p
			n++
		}
	}
	return found, n == 1
}

// PluginCount returns the number of plugins across all extension points.
func (s Snapshot) PluginCount() int {
	n := 0
	for _, p := range s.Points {
		n += len(p.Plugins)
	}
	return n
}

// Search returns the plugins whose metadata carries any of the given tags,
// keyed by extension point name.
func (s Snapshot) Search(tags ...string) map[string][]PluginInfo {
	if len(tags) == 0 {
		return nil
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	result := make(map[string][]PluginInfo)
	for _, p := range s.Points {
		for _, pl := range p.Plugins {
			for _, t := range pl.Metadata.Tags {
				if _, ok := tagSet[t]; ok {
					result[p.Name] = append(result[p.Name], pl)
					break
				}
			}
		}
	}
	return result
}
