package batch

import (
	"fmt"
	"strconv"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// Report is the outcome of an envelope validation. Valid is true exactly
// when Errors is empty. Validation findings are semantic, not structural:
// a message that parsed can still fail every check here.
type Report struct {
	Valid  bool
	Errors []string
}

func (r *Report) add(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r Report) done() Report {
	r.Valid = len(r.Errors) == 0
	return r
}

func (r *Report) merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
}

// ValidateFile checks a file envelope: exactly one FHS in first position,
// exactly one FTS in last position, at least one batch between them, an
// FTS-1 count matching the number of BHS segments, and FHS-2 agreeing with
// every BHS-2. Field-level FHS and FTS findings are folded in.
func ValidateFile(file *hl7v2.Message) Report {
	var r Report

	if len(file.Segments) == 0 {
		r.add("File message has no segments")
		return r.done()
	}

	fhs := file.SegmentsNamed("FHS")
	switch {
	case len(fhs) == 0:
		r.add("File message missing FHS (File Header Segment)")
	case len(fhs) > 1:
		r.add("File message has multiple FHS segments (expected 1, got %d)", len(fhs))
	default:
		r.merge(ValidateFHS(fhs[0]))
	}

	fts := file.SegmentsNamed("FTS")
	switch {
	case len(fts) == 0:
		r.add("File message missing FTS (File Trailer Segment)")
	case len(fts) > 1:
		r.add("File message has multiple FTS segments (expected 1, got %d)", len(fts))
	}

	if file.Segments[0].Name != "FHS" {
		r.add("File message must start with FHS segment")
	}
	if file.Segments[len(file.Segments)-1].Name != "FTS" {
		r.add("File message must end with FTS segment")
	}

	bhs := file.SegmentsNamed("BHS")
	if len(bhs) == 0 {
		r.add("File message must contain at least one batch between FHS and FTS")
	}

	if len(fts) > 0 {
		r.merge(ValidateFTS(fts[0], len(bhs)))
	}

	// The file header's delimiter declaration binds every batch inside it.
	if len(fhs) > 0 {
		fhsToken := fhs[0].Field(2)
		if !fhsToken.Null && fhsToken.Value() != "" {
			for _, b := range bhs {
				bhsToken := b.Field(2)
				if bhsToken.Null || bhsToken.Value() == "" {
					continue
				}
				if fhsToken.Value() != bhsToken.Value() {
					r.add("FHS-2 (Encoding Characters) does not match BHS-2: FHS=%s, BHS=%s",
						fhsToken.Value(), bhsToken.Value())
				}
			}
		}
	}

	return r.done()
}

// ValidateFHS checks one File Header Segment: FHS-2 must be present and
// exactly 4 characters, and FHS-7, when present, must start with an 8-digit
// date.
func ValidateFHS(seg *hl7v2.Segment) Report {
	var r Report

	if seg.Name != "FHS" {
		r.add("Segment is not FHS (got %s)", seg.Name)
		return r.done()
	}

	if seg.FieldCount() < 2 {
		r.add("FHS segment missing FHS-2 (Encoding Characters)")
	} else {
		token := seg.Field(2)
		if !token.Null {
			if n := len(token.Value()); n != 4 {
				r.add("FHS-2 (Encoding Characters) must be 4 characters (got %d)", n)
			}
		}
	}

	if seg.FieldCount() >= 7 {
		ts := seg.Field(7)
		if !ts.Null && ts.Value() != "" && !isTimestampPrefix(ts.Value()) {
			r.add("FHS-7 (File Creation Date/Time) has invalid format: %s", ts.Value())
		}
	}

	return r.done()
}

// ValidateFTS checks one File Trailer Segment against the actual batch
// count. An absent or null FTS-1 passes; a non-numeric one fails.
func ValidateFTS(seg *hl7v2.Segment, batchCount int) Report {
	var r Report

	if seg.Name != "FTS" {
		r.add("Segment is not FTS (got %s)", seg.Name)
		return r.done()
	}

	if seg.FieldCount() >= 1 {
		countField := seg.Field(1)
		if !countField.Null && countField.Value() != "" {
			declared, err := strconv.Atoi(countField.Value())
			switch {
			case err != nil:
				r.add("FTS-1 (File Batch Count) is not a valid number: %s", countField.Value())
			case declared != batchCount:
				r.add("FTS-1 (File Batch Count) mismatch: FTS=%d, actual=%d", declared, batchCount)
			}
		}
	}

	return r.done()
}

// ValidateBatchInFile checks one extracted batch against the delimiter set
// its containing file declared: BHS first, BTS last, and BHS-2 equal to the
// file's encoding-character token.
func ValidateBatchInFile(b *hl7v2.Message, fileEncoding hl7v2.EncodingCharacters) Report {
	var r Report

	if len(b.Segments) == 0 {
		r.add("Batch message has no segments")
		return r.done()
	}

	if b.Segments[0].Name != "BHS" {
		r.add("Batch message must start with BHS segment")
	}
	if b.Segments[len(b.Segments)-1].Name != "BTS" {
		r.add("Batch message must end with BTS segment")
	}

	if bhs := b.SegmentsNamed("BHS"); len(bhs) > 0 {
		token := bhs[0].Field(2)
		if !token.Null && token.Value() != "" && token.Value() != fileEncoding.Token() {
			r.add("BHS-2 (Encoding Characters) does not match FHS-2: BHS=%s, FHS=%s",
				token.Value(), fileEncoding.Token())
		}
	}

	return r.done()
}

// isTimestampPrefix reports whether s starts with the YYYYMMDD prefix of an
// HL7 TS value.
func isTimestampPrefix(s string) bool {
	if len(s) < 8 {
		return false
	}
	for i := 0; i < 8; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
