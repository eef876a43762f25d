package meta

import (
	"encoding/json"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

func TestRenderFieldOrder(t *testing.T) {
	c := qt.New(t)

	v := Render(Extract(sampleHandle()))

	labels := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		labels[i] = f.Label
	}
	c.Assert(labels, qt.DeepEquals, []string{
		"Media Type", "Dimensions", "Exposure Time", "F-Number",
		"Focal Length", "ISO Speed", "Orientation", "GPS Info",
	})
	c.Assert(v.Groups[0].Title, qt.Equals, "EXIF Tags")
	c.Assert(v.Groups[1].Title, qt.Equals, "IPTC Tags")
	c.Assert(v.Groups[2].Title, qt.Equals, "XMP Tags")

	want := []Field{
		{"Media Type", "image/jpeg"},
		{"Dimensions", "800 x 600"},
		{"Exposure Time", "0.008"},
		{"F-Number", "5.6"},
		{"Focal Length", "50"},
		{"ISO Speed", "200"},
		{"Orientation", "Normal"},
		{"GPS Info", "GPSInfo { latitude: 48.858400, longitude: 2.294500, altitude: 35.00 }"},
	}
	if diff := cmp.Diff(want, v.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMissingValues(t *testing.T) {
	c := qt.New(t)

	v := Render(Extract(&fakeHandle{height: ptr(600)}))

	dims, _ := v.Field(LabelDimensions)
	c.Assert(dims, qt.Equals, "0 x 600")

	for _, label := range []string{LabelMediaType, LabelExposureTime, LabelFNumber, LabelFocalLength, LabelISOSpeed, LabelGPSInfo} {
		got, ok := v.Field(label)
		c.Assert(ok, qt.IsTrue)
		c.Assert(got, qt.Equals, "N/A", qt.Commentf("label %s", label))
	}

	orientation, _ := v.Field(LabelOrientation)
	c.Assert(orientation, qt.Equals, "Unspecified")
	c.Assert(v.Sections(), qt.HasLen, 0)
}

func TestRenderGroups(t *testing.T) {
	c := qt.New(t)

	v := Render(Extract(sampleHandle()))

	sections := v.Sections()
	c.Assert(sections, qt.HasLen, 1)
	c.Assert(sections[0].Label(), qt.Equals, "EXIF Tags (3)")

	text := v.Text()
	c.Assert(text, qt.Contains, "EXIF Tags (3):\n  Exif.Image.Make = Canon\n")
	c.Assert(text, qt.Contains, "IPTC Tags: N/A\n")
	c.Assert(text, qt.Contains, "XMP Tags: N/A\n")
	c.Assert(strings.HasPrefix(text, "Media Type: image/jpeg\nDimensions: 800 x 600\n"), qt.IsTrue)

	pairs := v.Pairs()
	c.Assert(pairs, qt.HasLen, 11)
	c.Assert(pairs[8].Label, qt.Equals, "EXIF Tags (3)")
	c.Assert(pairs[9], qt.Equals, Field{"IPTC Tags", "N/A"})
	c.Assert(pairs[10], qt.Equals, Field{"XMP Tags", "N/A"})
}

func TestRenderIsPure(t *testing.T) {
	c := qt.New(t)

	s := Extract(sampleHandle())
	c.Assert(Render(s), qt.DeepEquals, Render(s))
	c.Assert(Render(s).Text(), qt.Equals, Render(s).Text())
}

func TestRenderJSON(t *testing.T) {
	c := qt.New(t)

	b, err := json.Marshal(Render(Extract(sampleHandle())))
	c.Assert(err, qt.IsNil)

	var decoded struct {
		Fields []Field `json:"fields"`
		Groups []struct {
			Title string `json:"title"`
			Count int    `json:"count"`
			Tags  []Tag  `json:"tags"`
		} `json:"groups"`
	}
	c.Assert(json.Unmarshal(b, &decoded), qt.IsNil)
	c.Assert(decoded.Fields, qt.HasLen, 8)
	c.Assert(decoded.Groups, qt.HasLen, 3)
	c.Assert(decoded.Groups[0].Count, qt.Equals, 3)
	c.Assert(decoded.Groups[1].Tags, qt.HasLen, 0)
}
