// Package createdattest builds media fixtures for tests.
package createdattest

import (
	"bytes"
	"encoding/binary"
)

const (
	tagDateTimeOriginal = 0x9003
	typeASCII           = 2
)

// TIFF returns a little-endian TIFF stream, the container used by ARW and
// most raw formats, whose first IFD holds a single DateTimeOriginal tag.
// dateTime uses the EXIF layout "2006:01:02 15:04:05". payload is appended
// after the tag data so fixtures with equal dates can differ in content.
func TIFF(dateTime string, payload []byte) []byte {
	val := append([]byte(dateTime), 0)

	const ifdOffset = 8
	const entries = 1
	dataOffset := ifdOffset + 2 + 12*entries + 4

	le := binary.LittleEndian
	buf := new(bytes.Buffer)
	buf.WriteString("II")
	_ = binary.Write(buf, le, uint16(42))
	_ = binary.Write(buf, le, uint32(ifdOffset))

	_ = binary.Write(buf, le, uint16(entries))
	_ = binary.Write(buf, le, uint16(tagDateTimeOriginal))
	_ = binary.Write(buf, le, uint16(typeASCII))
	_ = binary.Write(buf, le, uint32(len(val)))
	_ = binary.Write(buf, le, uint32(dataOffset))
	_ = binary.Write(buf, le, uint32(0))

	buf.Write(val)
	buf.Write(payload)
	return buf.Bytes()
}
