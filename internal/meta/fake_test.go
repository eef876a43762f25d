package meta

import (
	"errors"
	"fmt"
)

var errFake = errors.New("fake failure")

// in-memory handle; nil fields simulate missing values
type fakeHandle struct {
	mediaType    *MediaType
	width        *int
	height       *int
	exposure     *Rational
	fnumber      *float64
	focal        *float64
	iso          *int
	gps          *GPSInfo
	orientation  Orientation
	exif         []string
	iptc         []string
	xmp          []string
	values       map[string]string
	failExifList bool
	failTags     map[string]bool

	store    *fakeStore
	cleared  bool
	closed   *int
	saveFail error
}

func ptr[T any](v T) *T { return &v }

func (h *fakeHandle) MediaType() (MediaType, error) {
	if h.mediaType == nil {
		return "", errFake
	}
	return *h.mediaType, nil
}

func (h *fakeHandle) PixelWidth() (int, bool)        { return derefFake(h.width) }
func (h *fakeHandle) PixelHeight() (int, bool)       { return derefFake(h.height) }
func (h *fakeHandle) ExposureTime() (Rational, bool) { return derefFake(h.exposure) }
func (h *fakeHandle) FNumber() (float64, bool)       { return derefFake(h.fnumber) }
func (h *fakeHandle) FocalLength() (float64, bool)   { return derefFake(h.focal) }
func (h *fakeHandle) ISOSpeed() (int, bool)          { return derefFake(h.iso) }
func (h *fakeHandle) GPSInfo() (GPSInfo, bool)       { return derefFake(h.gps) }
func (h *fakeHandle) Orientation() Orientation       { return h.orientation }

func (h *fakeHandle) ExifTags() ([]string, error) {
	if h.failExifList {
		return nil, errFake
	}
	return h.exif, nil
}

func (h *fakeHandle) IptcTags() ([]string, error) { return h.iptc, nil }
func (h *fakeHandle) XmpTags() ([]string, error)  { return h.xmp, nil }

func (h *fakeHandle) TagInterpretedString(tag string) (string, error) {
	if h.failTags[tag] {
		return "", fmt.Errorf("interpret %s: %w", tag, errFake)
	}
	v, ok := h.values[tag]
	if !ok {
		return "", errFake
	}
	return v, nil
}

func (h *fakeHandle) Clear() {
	h.cleared = true
	h.exposure, h.fnumber, h.focal, h.iso, h.gps = nil, nil, nil, nil, nil
	h.orientation = OrientationUnspecified
	h.exif, h.iptc, h.xmp = nil, nil, nil
	h.values = map[string]string{}
}

func (h *fakeHandle) SaveToFile(path string) error {
	if h.saveFail != nil {
		return h.saveFail
	}
	if h.store != nil {
		h.store.files[path] = h.copy()
	}
	return nil
}

func (h *fakeHandle) Close() error {
	if h.closed != nil {
		*h.closed++
	}
	return nil
}

func (h *fakeHandle) copy() *fakeHandle {
	c := *h
	c.exif = append([]string(nil), h.exif...)
	c.iptc = append([]string(nil), h.iptc...)
	c.xmp = append([]string(nil), h.xmp...)
	c.values = make(map[string]string, len(h.values))
	for k, v := range h.values {
		c.values[k] = v
	}
	return &c
}

func derefFake[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// fakeStore plays the role of the filesystem for fakeSource
type fakeStore struct {
	files    map[string]*fakeHandle
	readOnly map[string]bool
	opens    int
	closes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string]*fakeHandle{}, readOnly: map[string]bool{}}
}

type fakeSource struct {
	store *fakeStore
}

func (s fakeSource) Name() string { return "fake" }

func (s fakeSource) Open(path string) (Handle, error) {
	f, ok := s.store.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	s.store.opens++
	h := f.copy()
	h.store = s.store
	h.closed = &s.store.closes
	if s.store.readOnly[path] {
		h.saveFail = fmt.Errorf("open %s: permission denied", path)
	}
	return h, nil
}

func sampleHandle() *fakeHandle {
	return &fakeHandle{
		mediaType:   ptr(MediaJPEG),
		width:       ptr(800),
		height:      ptr(600),
		exposure:    ptr(Rational{1, 125}),
		fnumber:     ptr(5.6),
		focal:       ptr(50.0),
		iso:         ptr(200),
		gps:         ptr(GPSInfo{Latitude: 48.8584, Longitude: 2.2945, Altitude: 35}),
		orientation: OrientationNormal,
		exif:        []string{"Exif.Image.Make", "Exif.Image.Model", "Exif.Image.Orientation"},
		values: map[string]string{
			"Exif.Image.Make":        "Canon",
			"Exif.Image.Model":       "EOS 5D",
			"Exif.Image.Orientation": "1",
		},
	}
}
