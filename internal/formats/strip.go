// BYZRA ⸻ internal/formats/strip.go
// container-level metadata removal, image data is copied untouched

package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"metaclean/internal/meta"
)

var errTruncated = errors.New("truncated container")

// returns data without metadata segments for the given media type
func Strip(mt meta.MediaType, data []byte) ([]byte, error) {
	switch mt {
	case meta.MediaJPEG:
		return stripJPEG(data)
	case meta.MediaPNG:
		return stripPNG(data)
	case meta.MediaWebP:
		return stripWebP(data)
	default:
		return nil, fmt.Errorf("%w: %s", meta.ErrUnsupportedWrite, mt)
	}
}

// ╭─ JPEG ──────────────────────────────────────╮

// APP0 (JFIF), APP2 ICC profiles and APP14 (Adobe colour transform) stay
var jpegMetaMarkers = map[byte]bool{
	0xE1: true, // APP1  exif / xmp
	0xEC: true, // APP12 picture info
	0xED: true, // APP13 photoshop / iptc
	0xFE: true, // COM
}

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
)

type jpegSegment struct {
	marker byte
	data   []byte // payload without marker and length
}

func parseJPEGSegments(data []byte) ([]jpegSegment, []byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, errors.New("not a JPEG")
	}

	var segs []jpegSegment
	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, nil, fmt.Errorf("expected marker at offset %d", i)
		}
		// fill bytes
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return nil, nil, errTruncated
		}
		marker := data[i]
		i++

		if marker == markerEOI {
			return segs, data[i-2:], nil
		}
		// standalone markers carry no length
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			segs = append(segs, jpegSegment{marker: marker})
			continue
		}

		if i+2 > len(data) {
			return nil, nil, errTruncated
		}
		segLen := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if segLen < 0 || i+segLen > len(data) {
			return nil, nil, errTruncated
		}
		segs = append(segs, jpegSegment{marker: marker, data: data[i : i+segLen]})
		i += segLen

		// entropy-coded data and everything after it is kept verbatim
		if marker == markerSOS {
			return segs, data[i:], nil
		}
	}

	return nil, nil, errTruncated
}

// APP2 payload prefix of a multi-picture index
var mpfSignature = []byte("MPF\x00")

func stripJPEG(data []byte) ([]byte, error) {
	segs, tail, err := parseJPEGSegments(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	buf.Write([]byte{0xFF, markerSOI})

	multiPicture := false
	for _, seg := range segs {
		if jpegMetaMarkers[seg.marker] {
			continue
		}
		if seg.marker == 0xE2 && bytes.HasPrefix(seg.data, mpfSignature) {
			multiPicture = true
			continue
		}
		buf.Write([]byte{0xFF, seg.marker})
		if seg.marker == 0x01 || (seg.marker >= 0xD0 && seg.marker <= 0xD7) {
			continue
		}
		var length [2]byte
		binary.BigEndian.PutUint16(length[:], uint16(len(seg.data)+2))
		buf.Write(length[:])
		buf.Write(seg.data)
	}

	// the images an MPF index points at follow the primary EOI, each with its own EXIF
	if multiPicture {
		if end := jpegImageEnd(tail); end > 0 {
			tail = tail[:end]
		}
	}
	buf.Write(tail)

	return buf.Bytes(), nil
}

// offset just past the EOI that closes the image in tail, -1 if there is none
func jpegImageEnd(tail []byte) int {
	for i := 0; i+1 < len(tail); {
		if tail[i] != 0xFF {
			i++
			continue
		}
		switch m := tail[i+1]; {
		case m == 0xFF:
			// fill byte
			i++
		case m == 0x00 || (m >= 0xD0 && m <= 0xD7):
			// stuffed byte or restart marker inside entropy-coded data
			i += 2
		case m == markerEOI:
			return i + 2
		default:
			// DHT, SOS, DRI ... between progressive scans
			if i+4 > len(tail) {
				return -1
			}
			i += 2 + int(binary.BigEndian.Uint16(tail[i+2:i+4]))
		}
	}
	return -1
}

// ╭─ PNG ───────────────────────────────────────╮

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// textual and timestamp chunks; colour chunks (iCCP, sRGB, gAMA) affect rendering and stay
var pngMetaChunks = map[string]bool{
	"tEXt": true,
	"iTXt": true,
	"zTXt": true,
	"eXIf": true,
	"tIME": true,
}

type pngChunk struct {
	typ  string
	data []byte
}

func parsePNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("not a PNG")
	}

	var chunks []pngChunk
	i := len(pngSignature)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		start := i + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return nil, errTruncated
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[start:end]})
		i = end + 4 // skip crc
		if typ == "IEND" {
			return chunks, nil
		}
	}

	return nil, errTruncated
}

func stripPNG(data []byte) ([]byte, error) {
	chunks, err := parsePNGChunks(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	buf.Write(pngSignature)
	for _, c := range chunks {
		if pngMetaChunks[c.typ] {
			continue
		}
		writePNGChunk(&buf, c.typ, c.data)
	}

	return buf.Bytes(), nil
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(data)))
	copy(head[4:], typ)
	w.Write(head[:])
	w.Write(data)

	crc := crc32.NewIEEE()
	crc.Write(head[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// ╭─ WEBP ──────────────────────────────────────╮

const (
	vp8xFlagXMP  = 0x04
	vp8xFlagEXIF = 0x08
)

func stripWebP(data []byte) ([]byte, error) {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return nil, errors.New("not a WebP")
	}

	var body bytes.Buffer
	body.WriteString("WEBP")

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if size < 0 || offset+size > len(data) {
			return nil, errTruncated
		}
		chunk := data[offset : offset+size]

		offset += size
		if size%2 != 0 {
			offset++
		}

		switch id {
		case "EXIF", "XMP ":
			continue
		case "VP8X":
			if len(chunk) > 0 {
				chunk = append([]byte(nil), chunk...)
				chunk[0] &^= vp8xFlagEXIF | vp8xFlagXMP
			}
		}

		body.WriteString(id)
		var sz [4]byte
		binary.LittleEndian.PutUint32(sz[:], uint32(size))
		body.Write(sz[:])
		body.Write(chunk)
		if size%2 != 0 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	var total [4]byte
	binary.LittleEndian.PutUint32(total[:], uint32(body.Len()))
	out.Write(total[:])
	out.Write(body.Bytes())

	return out.Bytes(), nil
}
