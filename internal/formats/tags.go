// BYZRA ⸻ internal/formats/tags.go
// ordered tag collection and value interpretation for the native source

package formats

import (
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bep/imagemeta"

	"metaclean/internal/meta"
)

var errNoValue = errors.New("tag has no value")

// EXIF IFD namespace -> exiv2 style group
var exifGroups = map[string]string{
	"IFD0":       "Image",
	"ExifIFD":    "Photo",
	"ExifIFDP":   "Photo",
	"GPSInfoIFD": "GPSInfo",
	"InteropIFD": "Iop",
}

// common XMP namespace URIs -> prefix
var xmpPrefixes = map[string]string{
	"http://ns.adobe.com/xap/1.0/":                 "xmp",
	"http://ns.adobe.com/xap/1.0/mm/":              "xmpMM",
	"http://ns.adobe.com/xap/1.0/rights/":          "xmpRights",
	"http://purl.org/dc/elements/1.1/":             "dc",
	"http://ns.adobe.com/photoshop/1.0/":           "photoshop",
	"http://ns.adobe.com/exif/1.0/":                "exif",
	"http://ns.adobe.com/exif/1.0/aux/":            "aux",
	"http://ns.adobe.com/tiff/1.0/":                "tiff",
	"http://ns.adobe.com/camera-raw-settings/1.0/": "crs",
	"http://ns.adobe.com/lightroom/1.0/":           "lr",
	"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/":  "Iptc4xmpCore",
	"http://iptc.org/std/Iptc4xmpExt/2008-02-29/":  "Iptc4xmpExt",
	"http://cipa.jp/exif/1.0/":                     "exifEX",
	"http://ns.google.com/photos/1.0/camera/":      "GCamera",
}

type tagEntry struct {
	source imagemeta.Source
	id     string
	value  any
}

// keeps decoder order; a repeated id is merged into the first occurrence
type tagList struct {
	entries []*tagEntry
	index   map[string]*tagEntry
}

func newTagList() *tagList {
	return &tagList{index: map[string]*tagEntry{}}
}

func (l *tagList) add(ti imagemeta.TagInfo) {
	id := tagID(ti)

	if e, ok := l.index[id]; ok {
		e.value = mergeValues(e.value, ti.Value)
		return
	}

	e := &tagEntry{source: ti.Source, id: id, value: ti.Value}
	l.entries = append(l.entries, e)
	l.index[id] = e
}

func (l *tagList) names(source imagemeta.Source) []string {
	var names []string
	for _, e := range l.entries {
		if e.source == source {
			names = append(names, e.id)
		}
	}
	return names
}

func (l *tagList) raw(id string) (any, bool) {
	e, ok := l.index[id]
	if !ok || e.value == nil {
		return nil, false
	}
	return e.value, true
}

func (l *tagList) interpreted(id string) (string, error) {
	e, ok := l.index[id]
	if !ok {
		return "", fmt.Errorf("unknown tag: %s", id)
	}
	return interpret(e.value)
}

func tagID(ti imagemeta.TagInfo) string {
	switch ti.Source {
	case imagemeta.EXIF:
		last := path.Base(ti.Namespace)
		group, ok := exifGroups[last]
		if !ok {
			group = last
		}
		return "Exif." + group + "." + ti.Tag
	case imagemeta.IPTC:
		record := strings.TrimPrefix(ti.Namespace, "IPTC")
		if record == "" {
			record = "Application"
		}
		return "Iptc." + record + "." + ti.Tag
	case imagemeta.XMP:
		return "Xmp." + xmpPrefix(ti.Namespace) + "." + ti.Tag
	default:
		return ti.Tag
	}
}

func xmpPrefix(uri string) string {
	if p, ok := xmpPrefixes[uri]; ok {
		return p
	}
	trimmed := strings.TrimRight(uri, "/#")
	if i := strings.LastIndexAny(trimmed, "/#:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func mergeValues(a, b any) any {
	as, aerr := interpret(a)
	bs, berr := interpret(b)
	switch {
	case aerr != nil:
		return b
	case berr != nil || as == bs:
		return a
	default:
		return as + ", " + bs
	}
}

// interpret renders a decoded value for display
func interpret(v any) (string, error) {
	switch vv := v.(type) {
	case nil:
		return "", errNoValue
	case string:
		return vv, nil
	case []string:
		return strings.Join(vv, ", "), nil
	case []byte:
		if isPrintable(vv) {
			return strings.TrimRight(string(vv), "\x00"), nil
		}
		return fmt.Sprintf("(Binary data %d bytes)", len(vv)), nil
	case imagemeta.Rat[uint32]:
		return vv.String(), nil
	case imagemeta.Rat[int32]:
		return vv.String(), nil
	case float64:
		if math.IsNaN(vv) || math.IsInf(vv, 0) {
			return "", fmt.Errorf("value is not finite: %v", vv)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32), nil
	case time.Time:
		return vv.Format("2006:01:02 15:04:05"), nil
	case []any:
		parts := make([]string, 0, len(vv))
		for _, item := range vv {
			s, err := interpret(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	case fmt.Stringer:
		return vv.String(), nil
	default:
		return fmt.Sprint(vv), nil
	}
}

func isPrintable(b []byte) bool {
	b = []byte(strings.TrimRight(string(b), "\x00"))
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if (c < 0x20 && c != '\t' && c != '\n' && c != '\r') || c > 0x7e {
			return false
		}
	}
	return true
}

type float64Provider interface {
	Float64() float64
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch vv := v.(type) {
	case float64Provider:
		f = vv.Float64()
	case float64:
		f = vv
	case float32:
		f = float64(vv)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []any:
		if len(vv) == 0 {
			return 0, false
		}
		return toFloat(vv[0])
	default:
		n, ok := toInt(v)
		if !ok {
			return 0, false
		}
		f = float64(n)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(v any) (int, bool) {
	switch vv := v.(type) {
	case int:
		return vv, true
	case int8:
		return int(vv), true
	case int16:
		return int(vv), true
	case int32:
		return int(vv), true
	case int64:
		return int(vv), true
	case uint8:
		return int(vv), true
	case uint16:
		return int(vv), true
	case uint32:
		return int(vv), true
	case uint64:
		return int(vv), true
	case float64:
		return int(vv), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		return n, err == nil
	case []byte:
		if len(vv) == 1 {
			return int(vv[0]), true
		}
		return 0, false
	case []any:
		if len(vv) == 0 {
			return 0, false
		}
		return toInt(vv[0])
	}
	return 0, false
}

func toRational(v any) (meta.Rational, bool) {
	switch vv := v.(type) {
	case imagemeta.Rat[uint32]:
		return meta.Rational{Num: int64(vv.Num()), Den: int64(vv.Den())}, true
	case imagemeta.Rat[int32]:
		return meta.Rational{Num: int64(vv.Num()), Den: int64(vv.Den())}, true
	case string:
		var num, den int64
		if _, err := fmt.Sscanf(vv, "%d/%d", &num, &den); err == nil {
			return meta.Rational{Num: num, Den: den}, true
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return meta.Rational{}, false
	}
	const scale = 1_000_000
	return meta.Rational{Num: int64(math.Round(f * scale)), Den: scale}, true
}

// decimal degrees from a decoded value or a d/m/s triple
func toDegrees(v any) (float64, bool) {
	if rats, ok := v.([]imagemeta.Rat[uint32]); ok {
		parts := make([]any, len(rats))
		for i, r := range rats {
			parts[i] = r
		}
		v = parts
	}
	if parts, ok := v.([]any); ok && len(parts) == 3 {
		d, ok1 := toFloat(parts[0])
		m, ok2 := toFloat(parts[1])
		s, ok3 := toFloat(parts[2])
		if !ok1 || !ok2 || !ok3 {
			return 0, false
		}
		return d + m/60 + s/3600, true
	}
	return toFloat(v)
}

func toString(v any) string {
	s, err := interpret(v)
	if err != nil {
		return ""
	}
	return s
}
