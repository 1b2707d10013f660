// Package stream reads ER7 message streams incrementally, yielding one
// parsed message at a time without holding the whole input in memory.
package stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
)

// DefaultMaxSegmentSize bounds a single segment line read from the stream.
const DefaultMaxSegmentSize = 1 << 20

// Scanner splits a stream of ER7 text into messages. Every MSH segment
// starts a new message; batch and file framing segments (BHS, BTS, FHS,
// FTS) are skipped by default so a batch stream yields its inner messages
// directly.
type Scanner struct {
	lines  *bufio.Scanner
	parser *codec.Parser
	opts   *hl7v2.Options

	includeFraming bool

	// encoding is the most recently seen delimiter set, used to parse
	// trailer segments that cannot declare their own.
	encoding hl7v2.EncodingCharacters

	pending       []string
	queuedFraming string
	err           error
	done          bool
}

// NewScanner creates a scanner over r. Options apply to the parse of each
// message; pass hl7v2.WithTolerant(true) to skip malformed segments instead
// of failing the stream.
func NewScanner(r io.Reader, opts ...hl7v2.Option) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), DefaultMaxSegmentSize)
	lines.Split(scanSegmentLines)
	return &Scanner{
		lines:    lines,
		parser:   codec.NewParser(opts...),
		opts:     hl7v2.DefaultOptions().Apply(opts...),
		encoding: hl7v2.DefaultEncoding(),
	}
}

// WithMaxSegmentSize bounds the size of a single segment line. A longer
// line fails the stream with bufio.ErrTooLong.
func (s *Scanner) WithMaxSegmentSize(n int) *Scanner {
	if n > 0 {
		// bufio caps tokens at max(cap(buf), n), so the initial buffer
		// must not exceed n for the limit to take effect.
		s.lines.Buffer(make([]byte, 0, min(64*1024, n)), n)
	}
	return s
}

// WithFraming makes the scanner yield framing segments (BHS, BTS, FHS, FTS)
// as single-segment messages instead of dropping them, so a caller can
// track batch boundaries.
func (s *Scanner) WithFraming(include bool) *Scanner {
	s.includeFraming = include
	return s
}

// Next returns the next complete message from the stream. It returns io.EOF
// when the stream is exhausted; after any error the scanner stays failed.
func (s *Scanner) Next() (*hl7v2.Message, error) {
	if s.err != nil {
		return nil, s.err
	}

	if s.queuedFraming != "" {
		line := s.queuedFraming
		s.queuedFraming = ""
		if msg, err := s.framingMessage(line); msg != nil || err != nil {
			return msg, err
		}
	}

	for !s.done && s.lines.Scan() {
		line := strings.TrimRight(s.lines.Text(), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if isFramingLine(line) {
			if len(s.pending) > 0 {
				msg, err := s.flush()
				if s.includeFraming {
					s.queuedFraming = line
				}
				return msg, err
			}
			if s.includeFraming {
				if msg, err := s.framingMessage(line); msg != nil || err != nil {
					return msg, err
				}
			}
			continue
		}

		if strings.HasPrefix(line, "MSH") {
			if len(s.pending) > 0 {
				msg, err := s.flush()
				s.pending = append(s.pending, line)
				return msg, err
			}
			s.pending = append(s.pending, line)
			continue
		}

		if len(s.pending) == 0 {
			// A segment before any MSH belongs to no message.
			if s.opts.Tolerant {
				continue
			}
			s.fail(hl7v2.NewParseError(0, segmentName(line), "segment %q before first MSH segment", segmentName(line)))
			return nil, s.err
		}
		s.pending = append(s.pending, line)
	}

	if !s.done {
		if err := s.lines.Err(); err != nil {
			s.fail(err)
			return nil, s.err
		}
		s.done = true
	}

	if len(s.pending) > 0 {
		return s.flush()
	}

	s.fail(io.EOF)
	return nil, s.err
}

// framingMessage wraps one framing segment line as a single-segment
// message. Header lines (BHS, FHS) parse standalone and refresh the
// scanner's delimiter set; trailer lines (BTS, FTS) are parsed against it.
// A (nil, nil) return means the line was skipped tolerantly.
func (s *Scanner) framingMessage(line string) (*hl7v2.Message, error) {
	if strings.HasPrefix(line, "BHS") || strings.HasPrefix(line, "FHS") {
		msg, _, err := s.parser.Parse(line + "\r")
		if err != nil {
			if s.opts.Tolerant {
				return nil, nil
			}
			s.fail(err)
			return nil, s.err
		}
		s.encoding = msg.Encoding
		return msg, nil
	}

	seg, err := codec.ParseSegment(line, s.encoding)
	if err != nil {
		if s.opts.Tolerant {
			return nil, nil
		}
		s.fail(err)
		return nil, s.err
	}
	msg := hl7v2.NewMessage(s.encoding)
	msg.AddSegment(seg)
	return msg, nil
}

// flush parses the accumulated segment lines as one message.
func (s *Scanner) flush() (*hl7v2.Message, error) {
	text := strings.Join(s.pending, "\r") + "\r"
	s.pending = s.pending[:0]

	msg, _, err := s.parser.Parse(text)
	if err != nil {
		s.fail(err)
		return nil, s.err
	}
	s.encoding = msg.Encoding
	return msg, nil
}

func (s *Scanner) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Collect drains the scanner, returning every remaining message. A stream
// error surfaces after the messages read before it.
func Collect(s *Scanner) ([]*hl7v2.Message, error) {
	var messages []*hl7v2.Message
	for {
		msg, err := s.Next()
		if err == io.EOF {
			return messages, nil
		}
		if err != nil {
			return messages, err
		}
		messages = append(messages, msg)
	}
}

// scanSegmentLines is a bufio.SplitFunc for ER7 segment lines, terminated
// by CR, LF or CRLF.
func scanSegmentLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && advance < len(data) && data[advance] == '\n' {
			advance++
		} else if data[i] == '\r' && advance == len(data) && !atEOF {
			// The CR may be the first half of a CRLF still in flight.
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func isFramingLine(line string) bool {
	for _, name := range []string{"BHS", "BTS", "FHS", "FTS"} {
		if strings.HasPrefix(line, name) {
			return true
		}
	}
	return false
}

func segmentName(line string) string {
	if len(line) >= hl7v2.SegmentNameLen {
		return line[:hl7v2.SegmentNameLen]
	}
	return line
}
