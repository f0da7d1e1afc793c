// Package plugins groups the demo extension points shipped with extpoint.
//
// Each sub-package defines one extension point and a few implementations
// that register themselves during package initialization. A program pulls
// them in with a blank import:
//
//	import (
//		_ "github.com/BaSui01/extpoint/plugins/shape"
//		_ "github.com/BaSui01/extpoint/plugins/sound"
//	)
package plugins
