// Package ack generates HL7 v2.x acknowledgment messages.
//
// An ACK answers a received message: sender and receiver swap roles, MSA-2
// echoes the original message control ID, and MSH-9 records the original
// message type under the ACK structure.
package ack

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// Code is an MSA-1 acknowledgment code.
type Code string

const (
	// Accept is application accept (AA).
	Accept Code = "AA"
	// Error is application error (AE).
	Error Code = "AE"
	// Reject is application reject (AR).
	Reject Code = "AR"
)

// DefaultVersion is used when the original message carries no MSH-12.
const DefaultVersion = "2.5"

const timestampLayout = "20060102150405"

// Options controls ACK generation. The zero value accepts the message.
type Options struct {
	// Code is the MSA-1 acknowledgment code; empty means Accept.
	Code Code
	// TextMessage becomes MSA-3 when set.
	TextMessage string
	// Application overrides the MSH-3 sending application; otherwise the
	// original's receiving application is used.
	Application string
	// Facility overrides the MSH-4 sending facility; otherwise the
	// original's receiving facility is used.
	Facility string
	// ControlID overrides the generated MSH-10 control ID.
	ControlID string
}

// Generate builds an ACK message for original. It fails when the code is
// unknown or the original has no MSH segment.
func Generate(original *hl7v2.Message, opts Options) (*hl7v2.Message, error) {
	if opts.Code == "" {
		opts.Code = Accept
	}
	switch opts.Code {
	case Accept, Error, Reject:
	default:
		return nil, &hl7v2.ValidationError{Msg: fmt.Sprintf("invalid acknowledgment code %q (must be AA, AE or AR)", opts.Code)}
	}

	msh := original.Segment("MSH")
	if msh == nil {
		return nil, &hl7v2.ValidationError{Msg: "original message must have an MSH segment"}
	}

	ec := original.Encoding
	version := original.Version
	if version == "" {
		version = DefaultVersion
	}

	sendingApp := firstNonEmpty(opts.Application, msh.Field(5).Value(), "ACK_APP")
	sendingFacility := firstNonEmpty(opts.Facility, msh.Field(6).Value(), "ACK_FAC")
	receivingApp := firstNonEmpty(msh.Field(3).Value(), "ORIG_APP")
	receivingFacility := firstNonEmpty(msh.Field(4).Value(), "ORIG_FAC")

	controlID := opts.ControlID
	if controlID == "" {
		controlID = "ACK" + uuid.NewString()
	}

	ackMSH := hl7v2.MustSegment("MSH")
	ackMSH.AppendField(hl7v2.NewField(string(ec.FieldSeparator)))
	ackMSH.AppendField(hl7v2.NewField(ec.Token()))
	ackMSH.AppendField(hl7v2.NewField(sendingApp))
	ackMSH.AppendField(hl7v2.NewField(sendingFacility))
	ackMSH.AppendField(hl7v2.NewField(receivingApp))
	ackMSH.AppendField(hl7v2.NewField(receivingFacility))
	ackMSH.AppendField(hl7v2.NewField(time.Now().Format(timestampLayout)))
	ackMSH.AppendField(hl7v2.EmptyField())
	ackMSH.AppendField(messageTypeField(msh))
	ackMSH.AppendField(hl7v2.NewField(controlID))
	ackMSH.AppendField(hl7v2.NewField(firstNonEmpty(msh.Field(11).Value(), "P")))
	ackMSH.AppendField(hl7v2.NewField(version))

	msa := hl7v2.MustSegment("MSA")
	msa.AppendField(hl7v2.NewField(string(opts.Code)))
	msa.AppendField(hl7v2.NewField(msh.Field(10).Value()))
	msa.AppendField(hl7v2.NewField(opts.TextMessage))

	out := hl7v2.NewMessage(ec)
	out.Version = version
	out.AddSegment(ackMSH)
	out.AddSegment(msa)
	return out, nil
}

// messageTypeField builds MSH-9 as ACK^<original type>^<original trigger>.
func messageTypeField(originalMSH *hl7v2.Segment) hl7v2.Field {
	msgType := originalMSH.Field(9)
	return hl7v2.Field{Components: []hl7v2.Component{
		hl7v2.NewComponent("ACK"),
		hl7v2.NewComponent(msgType.Component(1).Value()),
		hl7v2.NewComponent(msgType.Component(2).Value()),
	}}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
