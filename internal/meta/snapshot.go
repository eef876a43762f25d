// BYZRA ⸻ internal/meta/snapshot.go
// immutable metadata snapshot and the extractor that builds it

package meta

import (
	"github.com/rs/zerolog/log"
)

// value recorded for a tag whose interpretation failed
const NotAvailable = "N/A"

type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Snapshot is a detached copy of everything read from one handle.
// Nil pointers mean the source had no usable value.
type Snapshot struct {
	mediaType    *MediaType
	pixelWidth   *int
	pixelHeight  *int
	exposureTime *float64
	fNumber      *float64
	focalLength  *float64
	isoSpeed     *int
	gpsInfo      *GPSInfo
	orientation  *Orientation

	exifTags []Tag
	iptcTags []Tag
	xmpTags  []Tag
}

func (s Snapshot) MediaType() (MediaType, bool) { return deref(s.mediaType) }
func (s Snapshot) PixelWidth() (int, bool)      { return deref(s.pixelWidth) }
func (s Snapshot) PixelHeight() (int, bool)     { return deref(s.pixelHeight) }
func (s Snapshot) ExposureTime() (float64, bool) {
	return deref(s.exposureTime)
}
func (s Snapshot) FNumber() (float64, bool)     { return deref(s.fNumber) }
func (s Snapshot) FocalLength() (float64, bool) { return deref(s.focalLength) }
func (s Snapshot) ISOSpeed() (int, bool)        { return deref(s.isoSpeed) }
func (s Snapshot) GPSInfo() (GPSInfo, bool)     { return deref(s.gpsInfo) }

func (s Snapshot) Orientation() Orientation {
	if s.orientation == nil {
		return OrientationUnspecified
	}
	return *s.orientation
}

func (s Snapshot) ExifTags() []Tag { return cloneTags(s.exifTags) }
func (s Snapshot) IptcTags() []Tag { return cloneTags(s.iptcTags) }
func (s Snapshot) XmpTags() []Tag  { return cloneTags(s.xmpTags) }

// true when no tag of any namespace was collected
func (s Snapshot) Empty() bool {
	return len(s.exifTags) == 0 && len(s.iptcTags) == 0 && len(s.xmpTags) == 0
}

// Extract reads every field from h. It never fails: each accessor is
// isolated, so one missing or broken field leaves the others intact.
func Extract(h Handle) Snapshot {
	var s Snapshot

	if mt, err := h.MediaType(); err == nil {
		s.mediaType = &mt
	}
	if w, ok := h.PixelWidth(); ok && w >= 0 {
		s.pixelWidth = &w
	}
	if ht, ok := h.PixelHeight(); ok && ht >= 0 {
		s.pixelHeight = &ht
	}
	if r, ok := h.ExposureTime(); ok {
		if f, finite := r.Float64(); finite {
			s.exposureTime = &f
		}
	}
	if f, ok := h.FNumber(); ok {
		s.fNumber = &f
	}
	if f, ok := h.FocalLength(); ok {
		s.focalLength = &f
	}
	if iso, ok := h.ISOSpeed(); ok {
		s.isoSpeed = &iso
	}
	if g, ok := h.GPSInfo(); ok {
		s.gpsInfo = &g
	}
	o := h.Orientation()
	s.orientation = &o

	s.exifTags = collectTags(h, h.ExifTags)
	s.iptcTags = collectTags(h, h.IptcTags)
	s.xmpTags = collectTags(h, h.XmpTags)

	return s
}

// enumerates one namespace; a failing tag becomes N/A, a failing list becomes empty
func collectTags(h Handle, list func() ([]string, error)) []Tag {
	names, err := list()
	if err != nil {
		log.Debug().Err(err).Msg("tag enumeration failed")
		return []Tag{}
	}

	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		value, err := h.TagInterpretedString(name)
		if err != nil {
			value = NotAvailable
		}
		tags = append(tags, Tag{Name: name, Value: value})
	}
	return tags
}

// Read opens path through src, extracts a snapshot and releases the handle.
func Read(src Source, path string) (Snapshot, error) {
	h, err := src.Open(path)
	if err != nil {
		return Snapshot{}, &ReadError{Path: path, Err: err}
	}
	defer h.Close()

	s := Extract(h)

	log.Debug().
		Str("path", path).
		Str("source", src.Name()).
		Int("exif", len(s.exifTags)).
		Int("iptc", len(s.iptcTags)).
		Int("xmp", len(s.xmpTags)).
		Msg("metadata extracted")

	return s, nil
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func cloneTags(tags []Tag) []Tag {
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}
