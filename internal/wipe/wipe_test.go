package wipe

import (
	"errors"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"

	"metaclean/internal/formats"
	"metaclean/internal/meta"
	"metaclean/internal/testimage"
)

func sampleJPEG() []byte {
	return testimage.JPEG(testimage.JPEGOptions{
		Width:  16,
		Height: 16,
		EXIF: &testimage.EXIF{
			Make:        "Canon",
			Model:       "Canon EOS 5D",
			Orientation: 1,
			FNumber:     [2]uint32{28, 10},
			GPS:         &testimage.GPS{Latitude: 48.8584, Longitude: 2.2945, Altitude: 35},
		},
		XMP: testimage.XMPPacket("Lightroom", "Jane"),
	})
}

func TestWipeFileInPlace(t *testing.T) {
	c := qt.New(t)
	src := formats.NewNativeSource()

	p := testimage.WriteFile(t, "photo.jpg", sampleJPEG())
	res, err := WipeFile(src, p, nil)
	c.Assert(err, qt.IsNil)

	c.Assert(res.Success, qt.IsTrue, qt.Commentf("%+v", res.Verification))
	c.Assert(res.OutputPath, qt.Equals, p)
	c.Assert(res.BackupPath, qt.Equals, "")
	c.Assert(res.SensitiveData, qt.Contains, "Exif.Image.Make")
	c.Assert(res.RemovedCount > 3, qt.IsTrue)

	c.Assert(res.Verification, qt.IsNotNil)
	c.Assert(res.Verification.FileIntact, qt.IsTrue)
	c.Assert(res.Verification.DecoderFindings, qt.HasLen, 0)

	_, err = os.Stat(p + ".bak")
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	s, err := meta.Read(src, p)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Empty(), qt.IsTrue)

	c.Assert(FormatWipeResult(res), qt.Contains, "Metadata cleared")
}

func TestWipeFileCopyKeepsOriginal(t *testing.T) {
	c := qt.New(t)
	src := formats.NewNativeSource()

	data := sampleJPEG()
	p := testimage.WriteFile(t, "photo.jpg", data)

	res, err := WipeFile(src, p, &WipeOptions{CreateCopy: true, Verify: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(res.OutputPath, qt.Matches, `.*photo\.clean\.jpg`)

	orig, err := os.ReadFile(p)
	c.Assert(err, qt.IsNil)
	c.Assert(orig, qt.DeepEquals, data)

	clean, err := meta.Read(src, res.OutputPath)
	c.Assert(err, qt.IsNil)
	c.Assert(clean.Empty(), qt.IsTrue)

	c.Assert(FormatWipeResult(res), qt.Contains, "Output saved to")
}

func TestWipeFileKeepBackup(t *testing.T) {
	c := qt.New(t)
	src := formats.NewNativeSource()

	data := sampleJPEG()
	p := testimage.WriteFile(t, "photo.jpg", data)

	res, err := WipeFile(src, p, &WipeOptions{KeepBackup: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(res.Verification, qt.IsNil)
	c.Assert(res.BackupPath, qt.Equals, p+".bak")

	backup, err := os.ReadFile(res.BackupPath)
	c.Assert(err, qt.IsNil)
	c.Assert(backup, qt.DeepEquals, data)
}

func TestWipeFileSecureDelete(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "photo.jpg", sampleJPEG())
	res, err := WipeFile(formats.NewNativeSource(), p, &WipeOptions{SecureDelete: true, Verify: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(res.BackupPath, qt.Equals, "")

	_, err = os.Stat(p + ".bak")
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestWipeFileUnsupportedWrite(t *testing.T) {
	c := qt.New(t)

	// GIF reads fine but has no write-back path
	p := testimage.WriteFile(t, "anim.gif", gifBytes())
	res, err := WipeFile(formats.NewNativeSource(), p, &WipeOptions{CreateCopy: true})

	var we *meta.WriteError
	c.Assert(errors.As(err, &we), qt.IsTrue)
	c.Assert(errors.Is(err, meta.ErrUnsupportedWrite), qt.IsTrue)
	c.Assert(res.Success, qt.IsFalse)

	// refused before any copy or backup was made
	_, statErr := os.Stat(cleanPath(p))
	c.Assert(os.IsNotExist(statErr), qt.IsTrue)

	res, err = WipeFile(formats.NewNativeSource(), p, nil)
	c.Assert(errors.Is(err, meta.ErrUnsupportedWrite), qt.IsTrue)
	c.Assert(res.BackupPath, qt.Equals, "")
	_, statErr = os.Stat(p + ".bak")
	c.Assert(os.IsNotExist(statErr), qt.IsTrue)
}

func TestWipeFileLeavesForeignBackup(t *testing.T) {
	c := qt.New(t)
	src := formats.NewNativeSource()

	data := sampleJPEG()
	p := testimage.WriteFile(t, "photo.jpg", data)
	c.Assert(os.WriteFile(p+".bak", []byte("user data, unrelated"), 0644), qt.IsNil)

	res, err := WipeFile(src, p, DefaultWipeOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(res.BackupPath, qt.Equals, "")

	b, err := os.ReadFile(p + ".bak")
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Equals, "user data, unrelated")
	_, err = os.Stat(p + ".1.bak")
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	// a kept backup is a copy of this file, not the stale one
	c.Assert(os.WriteFile(p, data, 0644), qt.IsNil)
	res, err = WipeFile(src, p, &WipeOptions{KeepBackup: true, Quiet: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.BackupPath, qt.Equals, p+".1.bak")
	b, err = os.ReadFile(res.BackupPath)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.DeepEquals, data)
}

func TestWipeFileRestoresDamagedOutput(t *testing.T) {
	c := qt.New(t)

	data := sampleJPEG()
	p := testimage.WriteFile(t, "photo.jpg", data)

	src := truncatingSource{formats.NewNativeSource()}
	res, err := WipeFile(src, p, &WipeOptions{Verify: true, Quiet: true})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsFalse)
	c.Assert(res.Restored, qt.IsTrue)
	c.Assert(res.Verification.FileIntact, qt.IsFalse)
	c.Assert(res.BackupPath, qt.Equals, "")

	b, err := os.ReadFile(p)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.DeepEquals, data)
	_, err = os.Stat(p + ".bak")
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	c.Assert(FormatWipeResult(res), qt.Contains, "Original restored")
}

func TestWipeFileMissing(t *testing.T) {
	c := qt.New(t)

	_, err := WipeFile(formats.NewNativeSource(), t.TempDir()+"/none.jpg", nil)
	c.Assert(err, qt.ErrorMatches, `invalid input file: .*`)
}

func TestVerifyFileFindsLeftovers(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "dirty.jpg", sampleJPEG())
	v, err := VerifyFile(formats.NewNativeSource(), p)
	c.Assert(err, qt.IsNil)

	c.Assert(v.Success, qt.IsFalse)
	c.Assert(v.FileIntact, qt.IsTrue)
	c.Assert(v.MetadataRemoved, qt.IsFalse)
	c.Assert(v.RemainingFields, qt.Contains, "Exif.Image.Make")
	c.Assert(v.DecoderFindings, qt.Contains, "goexif:Make")

	out := FormatVerificationResult(v)
	c.Assert(out, qt.Contains, "remaining fields")
}

func TestVerifyFileCorrupt(t *testing.T) {
	c := qt.New(t)

	p := testimage.WriteFile(t, "trunc.png", testimage.PNG(8, 8, nil, nil)[:20])
	v, err := VerifyFile(formats.NewNativeSource(), p)
	c.Assert(err, qt.IsNil)
	c.Assert(v.FileIntact, qt.IsFalse)
	c.Assert(v.Success, qt.IsFalse)
}
