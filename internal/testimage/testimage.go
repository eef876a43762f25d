// BYZRA ⸻ internal/testimage/testimage.go
// in-memory image fixtures with hand-built metadata segments

package testimage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// EXIF fields to embed; zero values are left out
type EXIF struct {
	Make        string
	Model       string
	Orientation uint16

	// numerator / denominator pairs
	ExposureTime [2]uint32
	FNumber      [2]uint32
	FocalLength  [2]uint32
	ISO          uint16
	DateTime     string

	GPS *GPS
}

type GPS struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// the three-tag EXIF block used by most tests
func Camera() *EXIF {
	return &EXIF{Make: "Canon", Model: "Canon EOS 5D", Orientation: 1}
}

const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

var order = binary.LittleEndian

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag, typeASCII, uint32(len(b)), b}
}

func shortEntry(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	return entry{tag, typeShort, 1, b}
}

func longEntry(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return entry{tag, typeLong, 1, b}
}

func rationalEntry(tag uint16, pairs ...[2]uint32) entry {
	b := make([]byte, 8*len(pairs))
	for i, p := range pairs {
		order.PutUint32(b[i*8:], p[0])
		order.PutUint32(b[i*8+4:], p[1])
	}
	return entry{tag, typeRational, uint32(len(pairs)), b}
}

// encodes one IFD starting at offset start (relative to the TIFF header)
func encodeIFD(entries []entry, start uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	dataStart := start + 2 + 12*uint32(len(entries)) + 4
	var head, data bytes.Buffer

	binary.Write(&head, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&head, order, e.tag)
		binary.Write(&head, order, e.typ)
		binary.Write(&head, order, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			head.Write(v)
			continue
		}
		binary.Write(&head, order, dataStart+uint32(data.Len()))
		data.Write(e.data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	binary.Write(&head, order, uint32(0))

	return append(head.Bytes(), data.Bytes()...)
}

// TIFF returns a little-endian TIFF structure holding the EXIF fields.
func (x *EXIF) TIFF() []byte {
	var ifd0, exifIFD, gpsIFD []entry

	if x.Make != "" {
		ifd0 = append(ifd0, asciiEntry(0x010f, x.Make))
	}
	if x.Model != "" {
		ifd0 = append(ifd0, asciiEntry(0x0110, x.Model))
	}
	if x.Orientation != 0 {
		ifd0 = append(ifd0, shortEntry(0x0112, x.Orientation))
	}
	if x.DateTime != "" {
		ifd0 = append(ifd0, asciiEntry(0x0132, x.DateTime))
	}

	if x.ExposureTime[1] != 0 {
		exifIFD = append(exifIFD, rationalEntry(0x829a, x.ExposureTime))
	}
	if x.FNumber[1] != 0 {
		exifIFD = append(exifIFD, rationalEntry(0x829d, x.FNumber))
	}
	if x.ISO != 0 {
		exifIFD = append(exifIFD, shortEntry(0x8827, x.ISO))
	}
	if x.FocalLength[1] != 0 {
		exifIFD = append(exifIFD, rationalEntry(0x920a, x.FocalLength))
	}

	if x.GPS != nil {
		latRef, lonRef := "N", "E"
		if x.GPS.Latitude < 0 {
			latRef = "S"
		}
		if x.GPS.Longitude < 0 {
			lonRef = "W"
		}
		gpsIFD = append(gpsIFD,
			asciiEntry(0x0001, latRef),
			rationalEntry(0x0002, dms(x.GPS.Latitude)...),
			asciiEntry(0x0003, lonRef),
			rationalEntry(0x0004, dms(x.GPS.Longitude)...),
			entry{0x0005, typeByte, 1, []byte{0}},
			rationalEntry(0x0006, [2]uint32{uint32(math.Round(x.GPS.Altitude * 100)), 100}),
		)
	}

	build := func(exifOff, gpsOff uint32) []byte {
		entries := append([]entry(nil), ifd0...)
		if len(exifIFD) > 0 {
			entries = append(entries, longEntry(0x8769, exifOff))
		}
		if len(gpsIFD) > 0 {
			entries = append(entries, longEntry(0x8825, gpsOff))
		}
		return encodeIFD(entries, 8)
	}

	// pointer values do not change the IFD0 size, so size it first
	first := build(0, 0)
	exifOff := 8 + uint32(len(first))
	exifBlock := encodeIFD(exifIFD, exifOff)
	gpsOff := exifOff + uint32(len(exifBlock))
	gpsBlock := encodeIFD(gpsIFD, gpsOff)

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(8))
	buf.Write(build(exifOff, gpsOff))
	if len(exifIFD) > 0 {
		buf.Write(exifBlock)
	}
	if len(gpsIFD) > 0 {
		buf.Write(gpsBlock)
	}
	return buf.Bytes()
}

func dms(v float64) [][2]uint32 {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60
	return [][2]uint32{
		{uint32(deg), 1},
		{uint32(minutes), 1},
		{uint32(math.Round(seconds * 10000)), 10000},
	}
}

// XMP packet with a creator tool attribute and a dc:creator sequence
func XMPPacket(tool, creator string) string {
	return `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
		`<x:xmpmeta xmlns:x="adobe:ns:meta/">` +
		`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmp:CreatorTool="` + tool + `">` +
		`<dc:creator><rdf:Seq><rdf:li>` + creator + `</rdf:li></rdf:Seq></dc:creator>` +
		`</rdf:Description></rdf:RDF></x:xmpmeta><?xpacket end="w"?>`
}

type JPEGOptions struct {
	Width, Height int
	EXIF          *EXIF
	XMP           string
	Comment       string
	// raw APP13 payload, e.g. a Photoshop IRB
	APP13 []byte
}

// JPEG encodes a gradient image and splices the metadata segments in after SOI.
func JPEG(opts JPEGOptions) []byte {
	if opts.Width == 0 {
		opts.Width = 16
	}
	if opts.Height == 0 {
		opts.Height = 8
	}

	var img bytes.Buffer
	if err := jpeg.Encode(&img, gradient(opts.Width, opts.Height), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	raw := img.Bytes()

	var out bytes.Buffer
	out.Write(raw[:2])
	out.Write(Segment(0xE0, append([]byte("JFIF\x00"), 1, 1, 0, 0, 1, 0, 1, 0, 0)))
	if opts.EXIF != nil {
		out.Write(Segment(0xE1, append([]byte("Exif\x00\x00"), opts.EXIF.TIFF()...)))
	}
	if opts.XMP != "" {
		out.Write(Segment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), opts.XMP...)))
	}
	if opts.APP13 != nil {
		out.Write(Segment(0xED, opts.APP13))
	}
	if opts.Comment != "" {
		out.Write(Segment(0xFE, []byte(opts.Comment)))
	}
	out.Write(raw[2:])
	return out.Bytes()
}

// IPTC builds a Photoshop APP13 payload with one IIM resource block holding
// the given application record (2:xx) datasets, in dataset order.
func IPTC(datasets map[uint8]string) []byte {
	ids := make([]int, 0, len(datasets))
	for id := range datasets {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var iim bytes.Buffer
	for _, id := range ids {
		v := datasets[uint8(id)]
		iim.Write([]byte{0x1C, 2, byte(id)})
		binary.Write(&iim, binary.BigEndian, uint16(len(v)))
		iim.WriteString(v)
	}

	var b bytes.Buffer
	b.WriteString("Photoshop 3.0\x00")
	b.WriteString("8BIM")
	b.Write([]byte{0x04, 0x04}) // IPTC-NAA resource
	b.Write([]byte{0x00, 0x00}) // empty pascal name, padded
	binary.Write(&b, binary.BigEndian, uint32(iim.Len()))
	b.Write(iim.Bytes())
	if iim.Len()%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// Segment frames payload as a JPEG marker segment.
func Segment(marker byte, payload []byte) []byte {
	b := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(b[2:], uint16(len(payload)+2))
	return append(b, payload...)
}

// PNG encodes a gradient image and adds an eXIf chunk and tEXt chunks before IEND.
func PNG(width, height int, x *EXIF, text map[string]string) []byte {
	var img bytes.Buffer
	if err := png.Encode(&img, gradient(width, height)); err != nil {
		panic(err)
	}
	raw := img.Bytes()
	iend := len(raw) - 12

	var out bytes.Buffer
	out.Write(raw[:iend])
	if x != nil {
		out.Write(Chunk("eXIf", x.TIFF()))
	}
	keys := make([]string, 0, len(text))
	for k := range text {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Write(Chunk("tEXt", []byte(k+"\x00"+text[k])))
	}
	out.Write(raw[iend:])
	return out.Bytes()
}

// Chunk frames data as a PNG chunk with its CRC.
func Chunk(typ string, data []byte) []byte {
	b := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(b, uint32(len(data)))
	copy(b[4:], typ)
	b = append(b, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(b, crc.Sum32())
}

// WebP builds an extended (VP8X) container around a dummy VP8L bitstream with
// optional EXIF and XMP chunks.
func WebP(width, height int, x *EXIF, xmp string) []byte {
	var flags byte
	if x != nil {
		flags |= 0x08
	}
	if xmp != "" {
		flags |= 0x04
	}

	vp8x := make([]byte, 10)
	vp8x[0] = flags
	putUint24(vp8x[4:], uint32(width-1))
	putUint24(vp8x[7:], uint32(height-1))

	var body bytes.Buffer
	body.WriteString("WEBP")
	body.Write(riffChunk("VP8X", vp8x))
	body.Write(riffChunk("VP8L", vp8lHeader(width, height)))
	if x != nil {
		body.Write(riffChunk("EXIF", x.TIFF()))
	}
	if xmp != "" {
		body.Write(riffChunk("XMP ", []byte(xmp)))
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func riffChunk(fourcc string, data []byte) []byte {
	b := make([]byte, 8, 8+len(data)+1)
	copy(b, fourcc)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// signature byte plus packed 14-bit dimensions; enough for header parsers
func vp8lHeader(width, height int) []byte {
	v := uint32(width-1) | uint32(height-1)<<14
	b := []byte{0x2f, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[1:], v)
	return b
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	return img
}

// WriteFile stores data under t.TempDir and returns the path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}
