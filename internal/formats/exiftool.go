// BYZRA ⸻ internal/formats/exiftool.go
// metadata source backed by an external exiftool process

package formats

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/rs/zerolog/log"

	"metaclean/internal/meta"
	"metaclean/internal/util"
)

var ErrExiftoolMissing = errors.New("exiftool binary not found")

// shells out to exiftool; wider format coverage than the native source
type ExiftoolSource struct {
	binary string
}

func NewExiftoolSource(binary string) *ExiftoolSource {
	return &ExiftoolSource{binary: binary}
}

func (s *ExiftoolSource) Name() string {
	return BackendExiftool
}

// resolved binary path or ErrExiftoolMissing
func (s *ExiftoolSource) Lookup() (string, error) {
	name := s.binary
	if name == "" {
		name = "exiftool"
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExiftoolMissing, name)
	}
	return p, nil
}

func (s *ExiftoolSource) start() (*exiftool.Exiftool, error) {
	bin, err := s.Lookup()
	if err != nil {
		return nil, err
	}
	return exiftool.NewExiftool(
		exiftool.SetExiftoolBinaryPath(bin),
		exiftool.PrintGroupNames("0"),
	)
}

// one exiftool process per handle, released by Close
func (s *ExiftoolSource) Open(path string) (meta.Handle, error) {
	et, err := s.start()
	if err != nil {
		return nil, err
	}

	infos := et.ExtractMetadata(path)
	if len(infos) == 0 {
		et.Close()
		return nil, fmt.Errorf("no result for %s", filepath.Base(path))
	}
	if infos[0].Err != nil {
		et.Close()
		return nil, infos[0].Err
	}

	h := &exiftoolHandle{et: et, path: path, fields: infos[0].Fields}
	if _, err := h.MediaType(); err != nil {
		et.Close()
		return nil, err
	}
	return h, nil
}

type exiftoolHandle struct {
	et      *exiftool.Exiftool
	path    string
	fields  map[string]interface{}
	cleared bool
}

// groups that describe the container, not embedded metadata
var structuralGroups = []string{"File:", "ExifTool:", "Composite:", "System:"}

func (h *exiftoolHandle) MediaType() (meta.MediaType, error) {
	if mime := h.str("File:MIMEType"); strings.HasPrefix(mime, "image/") {
		return mediaTypeFromMIME(mime), nil
	}
	ft, err := DetectFile(h.path)
	if err != nil {
		return "", err
	}
	return ft.MimeType, nil
}

func mediaTypeFromMIME(mime string) meta.MediaType {
	switch mime {
	case "image/jpeg", "image/jpg":
		return meta.MediaJPEG
	case "image/x-png":
		return meta.MediaPNG
	case "image/heic":
		return meta.MediaHEIF
	default:
		return meta.MediaType(mime)
	}
}

func (h *exiftoolHandle) PixelWidth() (int, bool) {
	return h.intField("File:ImageWidth", "PNG:ImageWidth", "EXIF:ExifImageWidth", "EXIF:ImageWidth")
}

func (h *exiftoolHandle) PixelHeight() (int, bool) {
	return h.intField("File:ImageHeight", "PNG:ImageHeight", "EXIF:ExifImageHeight", "EXIF:ImageHeight")
}

func (h *exiftoolHandle) ExposureTime() (meta.Rational, bool) {
	v, ok := h.field("EXIF:ExposureTime")
	if !ok {
		return meta.Rational{}, false
	}
	return toRational(v)
}

func (h *exiftoolHandle) FNumber() (float64, bool) {
	for _, key := range []string{"EXIF:FNumber", "EXIF:ApertureValue"} {
		if v, ok := h.field(key); ok {
			return toFloat(v)
		}
	}
	return 0, false
}

// exiftool prints "50.0 mm"
func (h *exiftoolHandle) FocalLength() (float64, bool) {
	v, ok := h.field("EXIF:FocalLength")
	if !ok {
		return 0, false
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSpace(strings.TrimSuffix(s, "mm"))
	}
	return toFloat(v)
}

func (h *exiftoolHandle) ISOSpeed() (int, bool) {
	return h.intField("EXIF:ISO", "EXIF:ISOSpeedRatings")
}

func (h *exiftoolHandle) GPSInfo() (meta.GPSInfo, bool) {
	lat, ok := h.coordinate("EXIF:GPSLatitude", "EXIF:GPSLatitudeRef", "S")
	if !ok {
		return meta.GPSInfo{}, false
	}
	lon, ok := h.coordinate("EXIF:GPSLongitude", "EXIF:GPSLongitudeRef", "W")
	if !ok {
		return meta.GPSInfo{}, false
	}

	g := meta.GPSInfo{Latitude: lat, Longitude: lon}
	if v, ok := h.field("EXIF:GPSAltitude"); ok {
		// "35 m" / "35.2 m Above Sea Level"
		if alt, ok := parseLeadingFloat(toString(v)); ok {
			ref := strings.ToLower(h.str("EXIF:GPSAltitudeRef"))
			if strings.Contains(ref, "below") || ref == "1" {
				alt = -alt
			}
			g.Altitude = alt
		}
	}
	return g, true
}

func (h *exiftoolHandle) coordinate(key, refKey, negative string) (float64, bool) {
	v, ok := h.field(key)
	if !ok {
		return 0, false
	}
	deg, ok := parseDMS(toString(v))
	if !ok {
		return 0, false
	}
	// "South" / "S"
	if strings.HasPrefix(strings.ToUpper(h.str(refKey)), negative) {
		deg = -math.Abs(deg)
	}
	return deg, true
}

var orientationText = map[string]meta.Orientation{
	"horizontal (normal)":                 meta.OrientationNormal,
	"mirror horizontal":                   meta.OrientationHorizontalFlip,
	"rotate 180":                          meta.OrientationRotate180,
	"mirror vertical":                     meta.OrientationVerticalFlip,
	"mirror horizontal and rotate 270 cw": meta.OrientationRotate90HorizontalFlip,
	"rotate 90 cw":                        meta.OrientationRotate90,
	"mirror horizontal and rotate 90 cw":  meta.OrientationRotate90VerticalFlip,
	"rotate 270 cw":                       meta.OrientationRotate270,
}

func (h *exiftoolHandle) Orientation() meta.Orientation {
	v, ok := h.field("EXIF:Orientation")
	if !ok {
		return meta.OrientationUnspecified
	}
	if n, ok := toInt(v); ok {
		return meta.OrientationFromEXIF(n)
	}
	if o, ok := orientationText[strings.ToLower(toString(v))]; ok {
		return o
	}
	return meta.OrientationUnspecified
}

func (h *exiftoolHandle) ExifTags() ([]string, error) {
	return h.keys("EXIF:"), nil
}

func (h *exiftoolHandle) IptcTags() ([]string, error) {
	return h.keys("IPTC:"), nil
}

func (h *exiftoolHandle) XmpTags() ([]string, error) {
	return h.keys("XMP:"), nil
}

func (h *exiftoolHandle) TagInterpretedString(tag string) (string, error) {
	v, ok := h.fields[tag]
	if !ok {
		return "", fmt.Errorf("unknown tag: %s", tag)
	}
	return interpret(v)
}

func (h *exiftoolHandle) Clear() {
	h.cleared = true
	kept := map[string]interface{}{}
	for k, v := range h.fields {
		if isStructural(k) {
			kept[k] = v
		}
	}
	h.fields = kept
}

// writing to another path copies the original first
func (h *exiftoolHandle) SaveToFile(path string) error {
	if filepath.Clean(path) != filepath.Clean(h.path) {
		if err := util.SafeCopy(h.path, path); err != nil {
			return err
		}
	}
	if !h.cleared {
		return nil
	}

	// fresh metadata, never the extracted fields, or they get written back
	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	fm.Clear("all")

	batch := []exiftool.FileMetadata{fm}
	h.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return batch[0].Err
	}

	log.Debug().Str("path", path).Msg("exiftool wrote cleared metadata")
	return nil
}

func (h *exiftoolHandle) Close() error {
	if h.et == nil {
		return nil
	}
	err := h.et.Close()
	h.et = nil
	return err
}

func (h *exiftoolHandle) field(key string) (interface{}, bool) {
	v, ok := h.fields[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (h *exiftoolHandle) str(key string) string {
	v, ok := h.field(key)
	if !ok {
		return ""
	}
	return toString(v)
}

func (h *exiftoolHandle) intField(keys ...string) (int, bool) {
	for _, key := range keys {
		if v, ok := h.field(key); ok {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// sorted; the process hands fields back as an unordered map
func (h *exiftoolHandle) keys(prefix string) []string {
	var keys []string
	for k := range h.fields {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func isStructural(key string) bool {
	for _, g := range structuralGroups {
		if strings.HasPrefix(key, g) {
			return true
		}
	}
	return false
}

var dmsPattern = regexp.MustCompile(`^\s*([\d.]+)\s*deg\s*([\d.]+)'\s*([\d.]+)"\s*([NSEW])?\s*$`)

// accepts `48 deg 51' 30.24" N` or a plain decimal
func parseDMS(s string) (float64, bool) {
	if m := dmsPattern.FindStringSubmatch(s); m != nil {
		d, _ := strconv.ParseFloat(m[1], 64)
		mi, _ := strconv.ParseFloat(m[2], 64)
		se, _ := strconv.ParseFloat(m[3], 64)
		deg := d + mi/60 + se/3600
		if m[4] == "S" || m[4] == "W" {
			deg = -deg
		}
		return deg, true
	}
	return parseLeadingFloat(s)
}

func parseLeadingFloat(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
