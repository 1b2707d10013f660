// Package hl7v2 provides a lossless codec for HL7 v2.x ER7 ("pipe and hat")
// messages, including batch (BHS/BTS) and file (FHS/FTS) framing.
//
// The package is split the same way the wire format is layered: this root
// package holds the structural model and configuration, and subpackages do
// the work:
//
//   - codec: parsing and serialization of ER7 text
//   - batch: BHS/BTS and FHS/FTS framing, builders and envelope validation
//   - ack: acknowledgment message generation
//   - jsoncodec: Message <-> JSON projection
//   - stream: incremental parsing from an io.Reader
//   - worker: parallel parsing of independent messages
//
// # Quick Start
//
//	import (
//	    hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
//	    "github.com/DNAi-inc/DNHealth-sub002/codec"
//	)
//
//	msg, err := codec.Parse("MSH|^~\\&|APP|FAC|APP2|FAC2|20240101||ADT^A01|1|P|2.5\r")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.Segment("MSH").Field(9).Value())
//
//	out, err := codec.Serialize(msg)
//
// # Structural Model
//
// A message is an owned tree:
//
//	Message -> Segment -> Field -> Component -> Subcomponent
//
// with a repetition layer between segment and field: every field position
// holds one or more Field repetitions. All accessors are 1-based, matching
// HL7 numbering (PID-3 is pid.Field(3)). Reading past the end of what was
// present on the wire returns an empty value rather than an error, because
// ER7 omits trailing empty fields; passing an index below 1 is a programming
// error and panics.
//
// A Field additionally distinguishes "absent" from "explicitly null": the
// two-character token "" on the wire means the prior value is intentionally
// cleared, and survives round-tripping as Field.Null.
//
// # Encoding Characters
//
// ER7 is self-describing: the delimiter set is read from the header segment
// of the message being parsed. EncodingCharacters carries that set and is
// resolved positionally before any delimiter-aware splitting happens, with
// the standard defaults |^~\& filling anything the header omits.
//
// # Strict and Tolerant Parsing
//
// Strict parsing fails on the first structural problem with a *ParseError.
// Tolerant parsing skips unparseable segments, substitutes defaults where it
// can, and returns the accumulated Warnings alongside the best-effort
// message.
package hl7v2
