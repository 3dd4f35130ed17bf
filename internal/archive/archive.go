// Package archive reads fiscal export archives into memory.
package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/charmap"

	"github.com/guttosm/fiscalpulse/internal/logger"
)

// ErrUnreadable is returned when the archive cannot be opened or is not a zip container.
// Individual entries that fail to read or decode are logged and skipped.
var ErrUnreadable = errors.New("archive unreadable")

const (
	DefaultExt = ".xml"

	EncodingAuto    = "auto"
	EncodingUTF8    = "utf-8"
	EncodingCP1251  = "windows-1251"
	defaultEncoding = EncodingAuto
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is one decoded archive entry.
type File struct {
	Name    string
	Content string
}

// Options controls which entries are read and how they are decoded.
type Options struct {
	Ext      string
	Encoding string
}

func (o Options) withDefaults() Options {
	if o.Ext == "" {
		o.Ext = DefaultExt
	}
	if !strings.HasPrefix(o.Ext, ".") {
		o.Ext = "." + o.Ext
	}
	if o.Encoding == "" {
		o.Encoding = defaultEncoding
	}
	o.Encoding = strings.ToLower(o.Encoding)
	return o
}

// Open reads the archive at p.
func Open(p string, opts Options) ([]File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, p, err)
	}
	return FromBytes(p, data, opts)
}

// FromBytes reads an archive held in memory. name is used in error messages only.
// Entries are returned in archive order; entries whose extension does not match are skipped.
func FromBytes(name string, data []byte, opts Options) ([]File, error) {
	opts = opts.withDefaults()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}

	var out []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if !strings.EqualFold(path.Ext(zf.Name), opts.Ext) {
			continue
		}
		raw, err := readEntry(zf)
		if err != nil {
			logger.L().Warn().Str("archive", name).Str("file", zf.Name).Err(err).Msg("entry unreadable, skipped")
			continue
		}
		text, err := Decode(raw, opts.Encoding)
		if err != nil {
			logger.L().Warn().Str("archive", name).Str("file", zf.Name).Err(err).Msg("entry undecodable, skipped")
			continue
		}
		out = append(out, File{Name: zf.Name, Content: text})
	}
	return out, nil
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Decode converts raw entry bytes into text.
// "auto" keeps valid UTF-8 as is and otherwise assumes Windows-1251.
func Decode(raw []byte, encoding string) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	switch encoding {
	case EncodingUTF8, "utf8":
		return string(raw), nil
	case EncodingCP1251, "cp1251":
		return decode1251(raw)
	case EncodingAuto, "":
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		return decode1251(raw)
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func decode1251(raw []byte) (string, error) {
	b, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Checksum returns the hex SHA-256 of the archive bytes.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
