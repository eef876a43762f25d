// BYZRA ⸻ internal/formats/image.go
// native metadata source backed by bep/imagemeta

package formats

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"metaclean/internal/meta"
	"metaclean/internal/util"
)

// pure Go source; reads everything, writes JPEG / PNG / WebP
type NativeSource struct{}

func NewNativeSource() *NativeSource {
	return &NativeSource{}
}

func (s *NativeSource) Name() string {
	return BackendNative
}

// reads and parses the whole file; the handle keeps no open descriptor
func (s *NativeSource) Open(path string) (meta.Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ft := DetectBytes(data[:min(len(data), 12)])
	if ft.IsZero() {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Base(path))
	}

	h := &nativeHandle{
		path:     path,
		data:     data,
		fileType: ft,
		tags:     newTagList(),
	}
	if err := h.decode(); err != nil {
		return nil, err
	}

	return h, nil
}

var imagemetaFormats = map[meta.MediaType]imagemeta.ImageFormat{
	meta.MediaJPEG: imagemeta.JPEG,
	meta.MediaTIFF: imagemeta.TIFF,
	meta.MediaPNG:  imagemeta.PNG,
	meta.MediaWebP: imagemeta.WebP,
	meta.MediaHEIF: imagemeta.HEIF,
	meta.MediaAVIF: imagemeta.AVIF,
}

type nativeHandle struct {
	path     string
	data     []byte
	fileType FileType
	tags     *tagList
	width    int
	height   int
	cleared  bool
}

func (h *nativeHandle) decode() error {
	var decodeErr error

	if format, ok := imagemetaFormats[h.fileType.MimeType]; ok {
		res, err := imagemeta.Decode(imagemeta.Options{
			R:           bytes.NewReader(h.data),
			ImageFormat: format,
			Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP | imagemeta.CONFIG,
			// everything except the IFD1 thumbnail directory
			ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
				return ti.Source != imagemeta.EXIF || !strings.HasPrefix(ti.Namespace, "IFD1")
			},
			HandleTag: func(ti imagemeta.TagInfo) error {
				h.tags.add(ti)
				return nil
			},
			Warnf: func(format string, args ...any) {
				log.Debug().Str("path", h.path).Msgf(format, args...)
			},
		})
		decodeErr = err
		h.width, h.height = res.ImageConfig.Width, res.ImageConfig.Height
	}

	if h.width <= 0 || h.height <= 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(h.data))
		switch {
		case err == nil:
			h.width, h.height = cfg.Width, cfg.Height
		case decodeErr != nil:
			return fmt.Errorf("decode %s: %w", filepath.Base(h.path), decodeErr)
		case hasStdDecoder(h.fileType.MimeType):
			return fmt.Errorf("decode %s: %w", filepath.Base(h.path), err)
		}
	}

	if decodeErr != nil {
		// image itself is readable, keep what the metadata pass collected
		log.Warn().Err(decodeErr).Str("path", h.path).Msg("partial metadata decode")
	}

	return nil
}

// formats whose pixel header a registered image decoder can always read
func hasStdDecoder(mt meta.MediaType) bool {
	switch mt {
	case meta.MediaJPEG, meta.MediaPNG, meta.MediaGIF, meta.MediaWebP:
		return true
	}
	return false
}

func (h *nativeHandle) MediaType() (meta.MediaType, error) {
	return h.fileType.MimeType, nil
}

func (h *nativeHandle) PixelWidth() (int, bool) {
	return h.width, h.width > 0
}

func (h *nativeHandle) PixelHeight() (int, bool) {
	return h.height, h.height > 0
}

func (h *nativeHandle) ExposureTime() (meta.Rational, bool) {
	v, ok := h.tags.raw("Exif.Photo.ExposureTime")
	if !ok {
		return meta.Rational{}, false
	}
	return toRational(v)
}

func (h *nativeHandle) FNumber() (float64, bool) {
	if v, ok := h.tags.raw("Exif.Photo.FNumber"); ok {
		return toFloat(v)
	}
	// already converted from APEX by the decoder
	if v, ok := h.tags.raw("Exif.Photo.ApertureValue"); ok {
		return toFloat(v)
	}
	return 0, false
}

func (h *nativeHandle) FocalLength() (float64, bool) {
	v, ok := h.tags.raw("Exif.Photo.FocalLength")
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (h *nativeHandle) ISOSpeed() (int, bool) {
	v, ok := h.tags.raw("Exif.Photo.ISOSpeedRatings")
	if !ok {
		return 0, false
	}
	return toInt(v)
}

func (h *nativeHandle) GPSInfo() (meta.GPSInfo, bool) {
	lat, ok := h.coordinate("Exif.GPSInfo.GPSLatitude", "Exif.GPSInfo.GPSLatitudeRef", "S")
	if !ok {
		return meta.GPSInfo{}, false
	}
	lon, ok := h.coordinate("Exif.GPSInfo.GPSLongitude", "Exif.GPSInfo.GPSLongitudeRef", "W")
	if !ok {
		return meta.GPSInfo{}, false
	}

	g := meta.GPSInfo{Latitude: lat, Longitude: lon}
	if v, ok := h.tags.raw("Exif.GPSInfo.GPSAltitude"); ok {
		if alt, ok := toFloat(v); ok {
			// ref 1 = below sea level
			if ref, ok := h.tags.raw("Exif.GPSInfo.GPSAltitudeRef"); ok {
				if n, ok := toInt(ref); ok && n == 1 {
					alt = -alt
				}
			}
			g.Altitude = alt
		}
	}
	return g, true
}

func (h *nativeHandle) coordinate(tag, refTag, negative string) (float64, bool) {
	v, ok := h.tags.raw(tag)
	if !ok {
		return 0, false
	}
	deg, ok := toDegrees(v)
	if !ok {
		return 0, false
	}
	if ref, ok := h.tags.raw(refTag); ok && strings.HasPrefix(strings.ToUpper(toString(ref)), negative) {
		deg = -math.Abs(deg)
	}
	return deg, true
}

func (h *nativeHandle) Orientation() meta.Orientation {
	v, ok := h.tags.raw("Exif.Image.Orientation")
	if !ok {
		return meta.OrientationUnspecified
	}
	n, ok := toInt(v)
	if !ok {
		return meta.OrientationUnspecified
	}
	return meta.OrientationFromEXIF(n)
}

func (h *nativeHandle) ExifTags() ([]string, error) {
	return h.tags.names(imagemeta.EXIF), nil
}

func (h *nativeHandle) IptcTags() ([]string, error) {
	return h.tags.names(imagemeta.IPTC), nil
}

func (h *nativeHandle) XmpTags() ([]string, error) {
	return h.tags.names(imagemeta.XMP), nil
}

func (h *nativeHandle) TagInterpretedString(tag string) (string, error) {
	return h.tags.interpreted(tag)
}

// structural data (type, dimensions) is not metadata and survives
func (h *nativeHandle) Clear() {
	h.cleared = true
	h.tags = newTagList()
}

func (h *nativeHandle) SaveToFile(path string) error {
	out := h.data
	if h.cleared {
		stripped, err := Strip(h.fileType.MimeType, h.data)
		if err != nil {
			return err
		}
		out = stripped
	}

	return util.WriteFileAtomic(path, out)
}

func (h *nativeHandle) Close() error {
	h.data = nil
	return nil
}
