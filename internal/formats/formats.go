// BYZRA ⸻ internal/formats/formats.go
// supported image formats and metadata source registry

package formats

import (
	"fmt"
	"slices"
	"strings"

	"metaclean/internal/meta"
)

const (
	BackendNative   = "native"
	BackendExiftool = "exiftool"
)

// tuning for the metadata sources
type SourceOptions struct {
	// exiftool binary, empty = look up in PATH
	ExiftoolPath string
}

// metadata source by backend name, empty = native
func GetSource(name string, opts SourceOptions) (meta.Source, error) {
	switch strings.ToLower(name) {
	case "", BackendNative:
		return NewNativeSource(), nil
	case BackendExiftool:
		return NewExiftoolSource(opts.ExiftoolPath), nil
	default:
		return nil, fmt.Errorf("no metadata source named: %s", name)
	}
}

// all supported extensions
var ImageExtensions = []string{"jpg", "jpeg", "png", "tif", "tiff", "webp", "heic", "heif", "avif", "gif"}

// formats the native source can write back
var WritableExtensions = []string{"jpg", "jpeg", "png", "webp"}

func SupportedFormats() []string {
	return slices.Clone(ImageExtensions)
}

// checks if a file extension is supported
func IsSupported(extension string) bool {
	return slices.Contains(ImageExtensions, normalizeExt(extension))
}

func IsWritable(extension string) bool {
	return slices.Contains(WritableExtensions, normalizeExt(extension))
}

// lowercase, no leading dot
func normalizeExt(extension string) string {
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}
