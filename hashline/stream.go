package hashline

import (
	"strings"
)

// Formatter emits FormatRow output in bounded chunks, so a caller streaming
// a large file to an LLM context window doesn't have to materialize the
// whole tagged rendering at once. It is restartable: constructing a new
// Formatter with a given (startLine, byte offset into that line's row) and
// calling Skip reproduces exactly where a prior instance left off.
type Formatter struct {
	lines     []string
	startLine int
	lineIdx   int // index into lines of the next row to emit
	byteOff   int // byte offset already emitted within the current row
}

// NewFormatter creates a Formatter over content (split on LF), numbering
// rows starting at startLine.
func NewFormatter(content string, startLine int) *Formatter {
	return &Formatter{lines: strings.Split(content, "\n"), startLine: startLine}
}

// Skip advances the formatter so the next chunk resumes at the given
// absolute line number and byte offset into that line's formatted row,
// letting a caller resume a previously interrupted stream.
func (f *Formatter) Skip(line int, offset int) {
	f.lineIdx = line - f.startLine
	f.byteOff = offset
}

// Done reports whether every line has been emitted.
func (f *Formatter) Done() bool {
	return f.lineIdx >= len(f.lines)
}

// NextChunk returns the next chunk of formatted rows, bounded by maxLines
// rows and maxBytes bytes (0 means unbounded for that dimension). It
// returns an empty string once Done.
func (f *Formatter) NextChunk(maxLines, maxBytes int) string {
	var b strings.Builder
	linesEmitted := 0
	for !f.Done() {
		row := FormatRow(f.startLine+f.lineIdx, f.lines[f.lineIdx])
		remaining := row[f.byteOff:]
		if f.byteOff > 0 {
			// continuing a partially emitted row: no separator needed, the
			// previous chunk already terminated exactly at byteOff.
		} else if b.Len() > 0 {
			b.WriteByte('\n')
		}

		take := remaining
		if maxBytes > 0 {
			room := maxBytes - b.Len()
			if room <= 0 {
				break
			}
			if len(take) > room {
				take = take[:room]
			}
		}
		b.WriteString(take)
		f.byteOff += len(take)

		if f.byteOff >= len(row) {
			f.lineIdx++
			f.byteOff = 0
			linesEmitted++
			if maxLines > 0 && linesEmitted >= maxLines {
				break
			}
		} else {
			// hit the byte budget mid-row; stop here so the next call
			// resumes exactly at this offset.
			break
		}
	}
	return b.String()
}

// StreamParser accumulates arbitrary binary chunks and splits them into
// complete lines, buffering a partial trailing line until more data
// arrives or Flush is called.
type StreamParser struct {
	partial strings.Builder
}

// Feed appends chunk and returns every complete line it closed off
// (including lines entirely from prior partial data), without their
// trailing LF.
func (p *StreamParser) Feed(chunk []byte) []string {
	var lines []string
	start := 0
	for i := 0; i < len(chunk); i++ {
		if chunk[i] == '\n' {
			p.partial.Write(chunk[start:i])
			lines = append(lines, p.partial.String())
			p.partial.Reset()
			start = i + 1
		}
	}
	p.partial.Write(chunk[start:])
	return lines
}

// Flush returns any buffered partial line (with no trailing LF seen) and
// resets the parser.
func (p *StreamParser) Flush() string {
	s := p.partial.String()
	p.partial.Reset()
	return s
}
