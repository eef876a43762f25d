// BYZRA ⸻ internal/meta/render.go
// snapshot -> ordered display fields and tag groups

package meta

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	LabelMediaType    = "Media Type"
	LabelDimensions   = "Dimensions"
	LabelExposureTime = "Exposure Time"
	LabelFNumber      = "F-Number"
	LabelFocalLength  = "Focal Length"
	LabelISOSpeed     = "ISO Speed"
	LabelOrientation  = "Orientation"
	LabelGPSInfo      = "GPS Info"

	TitleExif = "EXIF Tags"
	TitleIptc = "IPTC Tags"
	TitleXmp  = "XMP Tags"
)

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type TagGroup struct {
	Title string
	Tags  []Tag
}

// title with count, e.g. "EXIF Tags (12)"
func (g TagGroup) Label() string {
	return fmt.Sprintf("%s (%d)", g.Title, len(g.Tags))
}

func (g TagGroup) Empty() bool {
	return len(g.Tags) == 0
}

func (g TagGroup) MarshalJSON() ([]byte, error) {
	tags := g.Tags
	if tags == nil {
		tags = []Tag{}
	}
	return json.Marshal(struct {
		Title string `json:"title"`
		Count int    `json:"count"`
		Tags  []Tag  `json:"tags"`
	}{g.Title, len(tags), tags})
}

// View is the display-ready projection of a snapshot.
type View struct {
	Fields []Field     `json:"fields"`
	Groups [3]TagGroup `json:"groups"`
}

// Render is pure: equal snapshots always give equal views.
func Render(s Snapshot) View {
	width, _ := s.PixelWidth()
	height, _ := s.PixelHeight()

	fields := []Field{
		{LabelMediaType, optional(s.MediaType())},
		{LabelDimensions, fmt.Sprintf("%d x %d", width, height)},
		{LabelExposureTime, optionalFloat(s.ExposureTime())},
		{LabelFNumber, optionalFloat(s.FNumber())},
		{LabelFocalLength, optionalFloat(s.FocalLength())},
		{LabelISOSpeed, optional(s.ISOSpeed())},
		{LabelOrientation, s.Orientation().String()},
		{LabelGPSInfo, optional(s.GPSInfo())},
	}

	return View{
		Fields: fields,
		Groups: [3]TagGroup{
			{Title: TitleExif, Tags: s.ExifTags()},
			{Title: TitleIptc, Tags: s.IptcTags()},
			{Title: TitleXmp, Tags: s.XmpTags()},
		},
	}
}

// non-empty groups only, for expandable section rendering
func (v View) Sections() []TagGroup {
	var sections []TagGroup
	for _, g := range v.Groups {
		if !g.Empty() {
			sections = append(sections, g)
		}
	}
	return sections
}

// flat (label, value) list; empty groups read N/A
func (v View) Pairs() []Field {
	pairs := make([]Field, 0, len(v.Fields)+len(v.Groups))
	pairs = append(pairs, v.Fields...)
	for _, g := range v.Groups {
		if g.Empty() {
			pairs = append(pairs, Field{g.Title, NotAvailable})
			continue
		}
		pairs = append(pairs, Field{g.Label(), formatTags(g.Tags, ", ")})
	}
	return pairs
}

// plain text rendering
func (v View) Text() string {
	var sb strings.Builder

	for _, f := range v.Fields {
		fmt.Fprintf(&sb, "%s: %s\n", f.Label, f.Value)
	}

	for _, g := range v.Groups {
		if g.Empty() {
			fmt.Fprintf(&sb, "%s: %s\n", g.Title, NotAvailable)
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", g.Label())
		for _, t := range g.Tags {
			fmt.Fprintf(&sb, "  %s = %s\n", t.Name, t.Value)
		}
	}

	return sb.String()
}

// value of the field with the given label
func (v View) Field(label string) (string, bool) {
	for _, f := range v.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

func formatTags(tags []Tag, sep string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.Name + " = " + t.Value
	}
	return strings.Join(parts, sep)
}

func optional[T any](v T, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return fmt.Sprint(v)
}

func optionalFloat(v float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
