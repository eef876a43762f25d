package formats

import (
	"errors"
	"os/exec"
	"testing"

	qt "github.com/frankban/quicktest"

	"metaclean/internal/meta"
	"metaclean/internal/testimage"
)

func requireExiftool(c *qt.C) *ExiftoolSource {
	c.Helper()
	if _, err := exec.LookPath("exiftool"); err != nil {
		c.Skip("exiftool not installed")
	}
	return NewExiftoolSource("")
}

func TestExiftoolMissingBinary(t *testing.T) {
	c := qt.New(t)

	src := NewExiftoolSource("/nonexistent/exiftool-binary")
	_, err := src.Lookup()
	c.Assert(errors.Is(err, ErrExiftoolMissing), qt.IsTrue)

	p := testimage.WriteFile(t, "a.jpg", testimage.JPEG(testimage.JPEGOptions{EXIF: testimage.Camera()}))
	_, err = meta.Read(src, p)
	var re *meta.ReadError
	c.Assert(errors.As(err, &re), qt.IsTrue)
	c.Assert(errors.Is(err, ErrExiftoolMissing), qt.IsTrue)
}

func TestExiftoolRead(t *testing.T) {
	c := qt.New(t)
	src := requireExiftool(c)

	p := testimage.WriteFile(t, "photo.jpg", testimage.JPEG(testimage.JPEGOptions{
		Width:  32,
		Height: 24,
		EXIF:   richEXIF(),
	}))

	s, err := meta.Read(src, p)
	c.Assert(err, qt.IsNil)

	mt, _ := s.MediaType()
	c.Assert(mt, qt.Equals, meta.MediaJPEG)
	w, _ := s.PixelWidth()
	c.Assert(w, qt.Equals, 32)

	fn, ok := s.FNumber()
	c.Assert(ok, qt.IsTrue)
	c.Assert(fn, qt.Equals, 5.6)

	iso, ok := s.ISOSpeed()
	c.Assert(ok, qt.IsTrue)
	c.Assert(iso, qt.Equals, 200)

	gps, ok := s.GPSInfo()
	c.Assert(ok, qt.IsTrue)
	c.Assert(gps.Latitude < 0, qt.IsTrue)

	c.Assert(tagNames(s.ExifTags()), qt.Contains, "EXIF:Make")
}

func TestExiftoolClear(t *testing.T) {
	c := qt.New(t)
	src := requireExiftool(c)

	p := testimage.WriteFile(t, "clear.jpg", testimage.JPEG(testimage.JPEGOptions{
		EXIF: richEXIF(),
		XMP:  testimage.XMPPacket("Tool", "Jane"),
	}))

	c.Assert(meta.ClearAndSave(src, p), qt.IsNil)

	s, err := meta.Read(src, p)
	c.Assert(err, qt.IsNil)
	c.Assert(s.ExifTags(), qt.HasLen, 0)
	c.Assert(s.XmpTags(), qt.HasLen, 0)
	_, ok := s.GPSInfo()
	c.Assert(ok, qt.IsFalse)
}
