package wipe

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"os"

	"metaclean/internal/meta"
	"metaclean/internal/util"
)

func gifBytes() []byte {
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func cleanPath(p string) string {
	return util.GenerateOutputPath(p)
}

// saves a cut-off JPEG instead of the stripped image
type truncatingSource struct {
	meta.Source
}

func (s truncatingSource) Open(path string) (meta.Handle, error) {
	h, err := s.Source.Open(path)
	if err != nil {
		return nil, err
	}
	return truncatingHandle{h}, nil
}

type truncatingHandle struct {
	meta.Handle
}

func (h truncatingHandle) SaveToFile(path string) error {
	return os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, 0644)
}
