package createdat

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifLayout is the EXIF date-time format. It carries no timezone and is read as UTC.
const exifLayout = "2006:01:02 15:04:05"

// headerLimit bounds how much of a non-TIFF stream is searched for the
// EXIF APP1 segment, which JPEG writers place ahead of the image data.
const headerLimit = 256 * 1024

// noExifExts are containers goexif cannot read; decoding them would only
// scan the whole stream for a JPEG marker.
var noExifExts = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".mts": true, ".avi": true, ".mkv": true,
}

type exifExtractor struct{}

func (e exifExtractor) CreatedAt(path string, r io.Reader) (time.Time, bool, error) {
	if noExifExts[strings.ToLower(filepath.Ext(path))] {
		return time.Time{}, false, nil
	}

	// TIFF offsets may point anywhere in the file, so only other streams are capped.
	br := bufio.NewReader(r)
	if head, err := br.Peek(4); err != nil || !isTIFFHeader(head) {
		r = io.LimitReader(br, headerLimit)
	} else {
		r = br
	}

	x, err := exif.Decode(r)
	if err != nil {
		// A non-critical error still yields a partially populated *Exif.
		if x == nil || exif.IsCriticalError(err) {
			return time.Time{}, false, nil
		}
	}

	// Prefer DateTimeOriginal, then DateTimeDigitized, then DateTime.
	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if tm, ok := exifTimeFromTag(x, tag); ok {
			return tm, true, nil
		}
	}

	return time.Time{}, false, nil
}

func isTIFFHeader(b []byte) bool {
	h := string(b)
	return h == "II*\x00" || h == "MM\x00*"
}

func exifTimeFromTag(x *exif.Exif, tag exif.FieldName) (time.Time, bool) {
	f, err := x.Get(tag)
	if err != nil {
		return time.Time{}, false
	}

	s, err := f.StringVal()
	if err != nil {
		return time.Time{}, false
	}

	tm, err := time.ParseInLocation(exifLayout, strings.TrimRight(s, "\x00 "), time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return tm, true
}
