// BYZRA ⸻ internal/formats/detect.go
// image type detection by signature, extension as fallback

package formats

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"metaclean/internal/meta"
)

type FileType struct {
	Format    string // "image"
	Extension string // "jpg", "png", etc
	MimeType  meta.MediaType
}

func (ft FileType) IsZero() bool {
	return ft.Format == ""
}

func DetectFile(path string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ext = strings.TrimPrefix(ext, ".")

	// 1st magic numbers
	ft, err := detectByMagicNumbers(path)
	if err != nil {
		return FileType{}, err
	}
	if !ft.IsZero() {
		return ft, nil
	}

	// fallback to extension
	ft = detectByExtension(ext)
	if !ft.IsZero() {
		return ft, nil
	}

	return FileType{}, fmt.Errorf("unknown file type for %s", path)
}

func detectByMagicNumbers(path string) (FileType, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileType{}, err
	}
	defer file.Close()

	// ISOBMFF brands sit at 8..12, RIFF form type at 8..12
	buffer := make([]byte, 12)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileType{}, err
	}

	return DetectBytes(buffer[:n]), nil
}

// classifies a file header; zero FileType when nothing matches
func DetectBytes(header []byte) FileType {
	switch {
	// JPEG: FF D8 FF
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}):
		return imageType("jpg", meta.MediaJPEG)

	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(header, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return imageType("png", meta.MediaPNG)

	// GIF8
	case bytes.HasPrefix(header, []byte("GIF8")):
		return imageType("gif", meta.MediaGIF)

	// TIFF: II* or MM*
	case bytes.HasPrefix(header, []byte{0x49, 0x49, 0x2A, 0x00}),
		bytes.HasPrefix(header, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return imageType("tiff", meta.MediaTIFF)

	// RIFF....WEBP
	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")):
		return imageType("webp", meta.MediaWebP)

	// ....ftyp<brand>
	case len(header) >= 12 && bytes.Equal(header[4:8], []byte("ftyp")):
		switch string(header[8:12]) {
		case "avif", "avis":
			return imageType("avif", meta.MediaAVIF)
		case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
			return imageType("heic", meta.MediaHEIF)
		}
	}

	return FileType{}
}

func detectByExtension(ext string) FileType {
	switch ext {
	case "jpg", "jpeg":
		return imageType(ext, meta.MediaJPEG)
	case "png":
		return imageType(ext, meta.MediaPNG)
	case "gif":
		return imageType(ext, meta.MediaGIF)
	case "tif", "tiff":
		return imageType(ext, meta.MediaTIFF)
	case "webp":
		return imageType(ext, meta.MediaWebP)
	case "heic", "heif":
		return imageType(ext, meta.MediaHEIF)
	case "avif":
		return imageType(ext, meta.MediaAVIF)
	}

	return FileType{} // unknown
}

func imageType(ext string, mt meta.MediaType) FileType {
	return FileType{Format: "image", Extension: ext, MimeType: mt}
}
