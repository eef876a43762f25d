// BYZRA ⸻ internal/meta/source.go
// metadata source contract and value types

package meta

import (
	"fmt"
	"math"
)

// opens files and hands out metadata handles
type Source interface {
	Name() string
	Open(path string) (Handle, error)
}

// Handle is bound to one opened file. Accessors report absence through the
// bool / error result; none of them panic on missing data.
type Handle interface {
	MediaType() (MediaType, error)
	PixelWidth() (int, bool)
	PixelHeight() (int, bool)
	ExposureTime() (Rational, bool)
	FNumber() (float64, bool)
	FocalLength() (float64, bool)
	ISOSpeed() (int, bool)
	GPSInfo() (GPSInfo, bool)
	Orientation() Orientation

	ExifTags() ([]string, error)
	IptcTags() ([]string, error)
	XmpTags() ([]string, error)
	TagInterpretedString(tag string) (string, error)

	// drops every metadata field held in memory
	Clear()
	// persists the in-memory state to path
	SaveToFile(path string) error
	Close() error
}

type MediaType string

const (
	MediaJPEG MediaType = "image/jpeg"
	MediaPNG  MediaType = "image/png"
	MediaTIFF MediaType = "image/tiff"
	MediaWebP MediaType = "image/webp"
	MediaHEIF MediaType = "image/heif"
	MediaAVIF MediaType = "image/avif"
	MediaGIF  MediaType = "image/gif"
)

func (m MediaType) String() string {
	return string(m)
}

// Orientation follows the EXIF orientation tag values 1..8, with 0 for unset.
type Orientation int

const (
	OrientationUnspecified Orientation = iota
	OrientationNormal
	OrientationHorizontalFlip
	OrientationRotate180
	OrientationVerticalFlip
	OrientationRotate90HorizontalFlip
	OrientationRotate90
	OrientationRotate90VerticalFlip
	OrientationRotate270
)

var orientationNames = [...]string{
	"Unspecified",
	"Normal",
	"HorizontalFlip",
	"Rotate180",
	"VerticalFlip",
	"Rotate90HorizontalFlip",
	"Rotate90",
	"Rotate90VerticalFlip",
	"Rotate270",
}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return orientationNames[OrientationUnspecified]
	}
	return orientationNames[o]
}

// maps a raw EXIF orientation value, anything out of range is unspecified
func OrientationFromEXIF(v int) Orientation {
	if v < 1 || v > 8 {
		return OrientationUnspecified
	}
	return Orientation(v)
}

// decimal degrees, negative for south / west; altitude in metres
type GPSInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (g GPSInfo) String() string {
	return fmt.Sprintf("GPSInfo { latitude: %.6f, longitude: %.6f, altitude: %.2f }",
		g.Latitude, g.Longitude, g.Altitude)
}

type Rational struct {
	Num int64
	Den int64
}

// ok is false when the ratio is not a finite number
func (r Rational) Float64() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	f := float64(r.Num) / float64(r.Den)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (r Rational) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
