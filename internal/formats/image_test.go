package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"metaclean/internal/meta"
	"metaclean/internal/testimage"
)

func richEXIF() *testimage.EXIF {
	return &testimage.EXIF{
		Make:         "Canon",
		Model:        "Canon EOS 5D",
		Orientation:  6,
		ExposureTime: [2]uint32{1, 125},
		FNumber:      [2]uint32{56, 10},
		FocalLength:  [2]uint32{50, 1},
		ISO:          200,
		GPS:          &testimage.GPS{Latitude: -33.8568, Longitude: 151.2153, Altitude: 12.5},
	}
}

func TestNativeReadJPEG(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "photo.jpg", testimage.JPEG(testimage.JPEGOptions{
		Width:  32,
		Height: 24,
		EXIF:   richEXIF(),
	}))

	s, err := meta.Read(NewNativeSource(), p)
	c.Assert(err, qt.IsNil)

	mt, ok := s.MediaType()
	c.Assert(ok, qt.IsTrue)
	c.Assert(mt, qt.Equals, meta.MediaJPEG)

	w, _ := s.PixelWidth()
	h, _ := s.PixelHeight()
	c.Assert(w, qt.Equals, 32)
	c.Assert(h, qt.Equals, 24)

	exp, ok := s.ExposureTime()
	c.Assert(ok, qt.IsTrue)
	c.Assert(exp, qt.Equals, 0.008)

	fn, ok := s.FNumber()
	c.Assert(ok, qt.IsTrue)
	c.Assert(fn, qt.Equals, 5.6)

	fl, ok := s.FocalLength()
	c.Assert(ok, qt.IsTrue)
	c.Assert(fl, qt.Equals, 50.0)

	iso, ok := s.ISOSpeed()
	c.Assert(ok, qt.IsTrue)
	c.Assert(iso, qt.Equals, 200)

	c.Assert(s.Orientation(), qt.Equals, meta.OrientationRotate90)

	gps, ok := s.GPSInfo()
	c.Assert(ok, qt.IsTrue)
	c.Assert(gps.Latitude < -33.85 && gps.Latitude > -33.86, qt.IsTrue, qt.Commentf("lat %v", gps.Latitude))
	c.Assert(gps.Longitude > 151.21 && gps.Longitude < 151.22, qt.IsTrue, qt.Commentf("lon %v", gps.Longitude))
	c.Assert(gps.Altitude, qt.Equals, 12.5)

	names := tagNames(s.ExifTags())
	c.Assert(names, qt.Contains, "Exif.Image.Make")
	c.Assert(names, qt.Contains, "Exif.Photo.FNumber")
	c.Assert(names, qt.Contains, "Exif.GPSInfo.GPSLatitude")

	mk, ok := tagValue(s.ExifTags(), "Exif.Image.Make")
	c.Assert(ok, qt.IsTrue)
	c.Assert(mk, qt.Equals, "Canon")
}

func TestNativeCameraLabel(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "cam.jpg", testimage.JPEG(testimage.JPEGOptions{EXIF: testimage.Camera()}))
	s, err := meta.Read(NewNativeSource(), p)
	c.Assert(err, qt.IsNil)

	v := meta.Render(s)
	c.Assert(v.Groups[0].Label(), qt.Equals, "EXIF Tags (3)")
	c.Assert(v.Groups[1].Empty(), qt.IsTrue)
	c.Assert(v.Text(), qt.Contains, "IPTC Tags: N/A\n")

	orientation, _ := v.Field(meta.LabelOrientation)
	c.Assert(orientation, qt.Equals, "Normal")
	fnumber, _ := v.Field(meta.LabelFNumber)
	c.Assert(fnumber, qt.Equals, meta.NotAvailable)
}

func TestNativeReadXMP(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "xmp.jpg", testimage.JPEG(testimage.JPEGOptions{
		XMP: testimage.XMPPacket("Lightroom", "Jane"),
	}))
	s, err := meta.Read(NewNativeSource(), p)
	c.Assert(err, qt.IsNil)

	tool, ok := tagValue(s.XmpTags(), "Xmp.xmp.CreatorTool")
	c.Assert(ok, qt.IsTrue)
	c.Assert(tool, qt.Equals, "Lightroom")
	c.Assert(s.ExifTags(), qt.HasLen, 0)
}

func TestNativeReadIPTC(t *testing.T) {
	c := qt.New(t)
	src := NewNativeSource()

	p := testimage.WriteFile(t, "iptc.jpg", testimage.JPEG(testimage.JPEGOptions{
		APP13: testimage.IPTC(map[uint8]string{90: "Paris"}),
	}))
	s, err := meta.Read(src, p)
	c.Assert(err, qt.IsNil)

	city, ok := tagValue(s.IptcTags(), "Iptc.Application.City")
	c.Assert(ok, qt.IsTrue)
	c.Assert(city, qt.Equals, "Paris")
	c.Assert(s.ExifTags(), qt.HasLen, 0)

	v := meta.Render(s)
	c.Assert(v.Groups[1].Label(), qt.Equals, "IPTC Tags (1)")
	c.Assert(v.Text(), qt.Contains, "Iptc.Application.City = Paris")

	c.Assert(meta.ClearAndSave(src, p), qt.IsNil)
	s, err = meta.Read(src, p)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Empty(), qt.IsTrue)
}

func TestNativeReadPNGAndWebP(t *testing.T) {
	c := qt.New(t)

	for _, tc := range []struct {
		name string
		data []byte
		mt   meta.MediaType
	}{
		{"a.png", testimage.PNG(10, 5, testimage.Camera(), nil), meta.MediaPNG},
		{"a.webp", testimage.WebP(10, 5, testimage.Camera(), ""), meta.MediaWebP},
	} {
		c.Run(tc.name, func(c *qt.C) {
			p := testimage.WriteFile(c, tc.name, tc.data)
			s, err := meta.Read(NewNativeSource(), p)
			c.Assert(err, qt.IsNil)

			mt, _ := s.MediaType()
			c.Assert(mt, qt.Equals, tc.mt)
			w, _ := s.PixelWidth()
			c.Assert(w, qt.Equals, 10)
			c.Assert(tagNames(s.ExifTags()), qt.Contains, "Exif.Image.Model")
		})
	}
}

func TestNativeClear(t *testing.T) {
	c := qt.New(t)
	src := NewNativeSource()

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"c.jpg", testimage.JPEG(testimage.JPEGOptions{Width: 12, Height: 9, EXIF: richEXIF(), XMP: testimage.XMPPacket("T", "Jane"), Comment: "hi"})},
		{"c.png", testimage.PNG(12, 9, richEXIF(), map[string]string{"Author": "Jane"})},
		{"c.webp", testimage.WebP(12, 9, richEXIF(), testimage.XMPPacket("T", "Jane"))},
	} {
		c.Run(tc.name, func(c *qt.C) {
			p := testimage.WriteFile(c, tc.name, tc.data)

			c.Assert(meta.ClearAndSave(src, p), qt.IsNil)

			s, err := meta.Read(src, p)
			c.Assert(err, qt.IsNil)
			c.Assert(s.Empty(), qt.IsTrue)
			_, ok := s.GPSInfo()
			c.Assert(ok, qt.IsFalse)
			c.Assert(s.Orientation(), qt.Equals, meta.OrientationUnspecified)

			// structure survives
			w, _ := s.PixelWidth()
			h, _ := s.PixelHeight()
			c.Assert(w, qt.Equals, 12)
			c.Assert(h, qt.Equals, 9)

			first, err := os.ReadFile(p)
			c.Assert(err, qt.IsNil)

			// idempotent
			c.Assert(meta.ClearAndSave(src, p), qt.IsNil)
			second, err := os.ReadFile(p)
			c.Assert(err, qt.IsNil)
			c.Assert(second, qt.DeepEquals, first)
		})
	}
}

func TestNativeClearUnsupportedFormat(t *testing.T) {
	c := qt.New(t)

	data := testimage.Camera().TIFF()
	p := testimage.WriteFile(t, "x.tiff", data)
	h := &nativeHandle{
		path:     p,
		data:     data,
		fileType: DetectBytes(data),
		tags:     newTagList(),
	}
	h.Clear()

	err := h.SaveToFile(p)
	c.Assert(errors.Is(err, meta.ErrUnsupportedWrite), qt.IsTrue)

	after, err := os.ReadFile(p)
	c.Assert(err, qt.IsNil)
	c.Assert(after, qt.DeepEquals, data)
}

func TestNativeReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	c := qt.New(t)

	data := testimage.JPEG(testimage.JPEGOptions{EXIF: testimage.Camera()})
	p := testimage.WriteFile(t, "ro.jpg", data)
	c.Assert(os.Chmod(p, 0o444), qt.IsNil)

	err := meta.ClearAndSave(NewNativeSource(), p)
	c.Assert(err, qt.ErrorMatches, `Failed writing metadata: .*`)

	after, err := os.ReadFile(p)
	c.Assert(err, qt.IsNil)
	c.Assert(after, qt.DeepEquals, data)
}

func TestNativeOpenErrors(t *testing.T) {
	c := qt.New(t)
	src := NewNativeSource()

	_, err := meta.Read(src, filepath.Join(t.TempDir(), "missing.jpg"))
	var re *meta.ReadError
	c.Assert(errors.As(err, &re), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `Failed reading metadata: .*`)

	p := testimage.WriteFile(t, "notes.txt", []byte("plain text, no image here"))
	_, err = meta.Read(src, p)
	c.Assert(err, qt.ErrorMatches, `Failed reading metadata: unsupported file type: notes.txt`)

	// valid signature, garbage after it
	p = testimage.WriteFile(t, "broken.png", append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "garbage"...))
	_, err = meta.Read(src, p)
	c.Assert(errors.As(err, &re), qt.IsTrue)
}

func tagNames(tags []meta.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func tagValue(tags []meta.Tag, name string) (string, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}
