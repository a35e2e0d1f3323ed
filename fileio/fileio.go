// Package fileio reads and writes files while preserving the artifacts a
// diff shouldn't touch: a UTF-8 byte-order mark, if present, and the
// file's dominant line ending. Writes are atomic (write-temp-then-rename).
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EOL identifies a file's dominant line ending.
type EOL int

const (
	LF EOL = iota
	CRLF
)

var bomBytes = []byte{0xEF, 0xBB, 0xBF}

// ErrTooLarge is returned by Read when the file exceeds MaxSize.
var ErrTooLarge = errors.New("file exceeds maximum size")

// ErrNotRegularFile is returned by Read when the path is a directory,
// device, or other non-regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// Snapshot is the in-memory representation of a file read from disk.
type Snapshot struct {
	BOM   bool
	EOL   EOL
	Lines []string // LF-split, no trailing EOL marker per line
}

// Content joins Lines back into a single LF-delimited string, the form
// every edit engine operates on internally.
func (s *Snapshot) Content() string {
	return strings.Join(s.Lines, "\n")
}

// Read reads path, enforcing maxSize, and returns its Snapshot.
func Read(path string, maxSize int64) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), maxSize)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw), nil
}

// Parse decodes raw bytes into a Snapshot without touching the filesystem.
func Parse(raw []byte) *Snapshot {
	s := &Snapshot{}
	if bytes.HasPrefix(raw, bomBytes) {
		s.BOM = true
		raw = raw[len(bomBytes):]
	}
	s.EOL = detectEOL(raw)
	content := string(raw)
	if s.EOL == CRLF {
		content = strings.ReplaceAll(content, "\r\n", "\n")
	}
	content = strings.ReplaceAll(content, "\r", "\n")
	s.Lines = strings.Split(content, "\n")
	return s
}

// detectEOL reports CRLF if a "\r\n" occurs before the first lone "\n",
// else LF.
func detectEOL(raw []byte) EOL {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			if i > 0 && raw[i-1] == '\r' {
				return CRLF
			}
			return LF
		}
	}
	return LF
}

// Render re-applies s's BOM and EOL to lines, producing the bytes to write
// to disk.
func Render(s *Snapshot, lines []string) []byte {
	content := strings.Join(lines, "\n")
	if s.EOL == CRLF {
		content = strings.ReplaceAll(content, "\n", "\r\n")
	}
	var buf bytes.Buffer
	if s.BOM {
		buf.Write(bomBytes)
	}
	buf.WriteString(content)
	return buf.Bytes()
}

// Write atomically replaces path's contents with lines, rendered with s's
// recorded BOM/EOL, creating parent directories as needed.
func Write(path string, s *Snapshot, lines []string) error {
	return WriteBytes(path, Render(s, lines))
}

// WriteBytes atomically replaces path's contents with raw, creating parent
// directories as needed.
func WriteBytes(path string, raw []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
