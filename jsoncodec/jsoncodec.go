// Package jsoncodec converts hl7v2.Message values to and from a JSON
// representation that preserves the full four-level structure, the delimiter
// set, explicit nulls and trailing-field presence. ToJSON then FromJSON is
// lossless.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

type messageJSON struct {
	Segments []segmentJSON `json:"segments"`
	Encoding encodingJSON  `json:"encoding_chars"`
	Version  string        `json:"version,omitempty"`
}

type segmentJSON struct {
	Name   string          `json:"name"`
	Fields []fieldSlotJSON `json:"fields"`
}

// fieldSlotJSON is one field position. Components is accepted on input for
// the legacy single-repetition layout and never produced on output.
type fieldSlotJSON struct {
	Repetitions []fieldJSON     `json:"repetitions,omitempty"`
	Components  []componentJSON `json:"components,omitempty"`
}

type fieldJSON struct {
	Components []componentJSON `json:"components"`
	Null       bool            `json:"null,omitempty"`
}

type componentJSON struct {
	Subcomponents []string `json:"subcomponents"`
}

type encodingJSON struct {
	FieldSeparator        string `json:"field_separator"`
	ComponentSeparator    string `json:"component_separator"`
	RepetitionSeparator   string `json:"repetition_separator"`
	EscapeCharacter       string `json:"escape_character"`
	SubcomponentSeparator string `json:"subcomponent_separator"`
	ContinuationCharacter string `json:"continuation_character,omitempty"`
}

// ToJSON renders the message as compact JSON.
func ToJSON(msg *hl7v2.Message) ([]byte, error) {
	if msg == nil {
		return nil, hl7v2.ErrEmptyMessage
	}
	return json.Marshal(toDTO(msg))
}

// ToJSONIndent renders the message as indented JSON for human readers.
func ToJSONIndent(msg *hl7v2.Message) ([]byte, error) {
	if msg == nil {
		return nil, hl7v2.ErrEmptyMessage
	}
	return json.MarshalIndent(toDTO(msg), "", "  ")
}

// FromJSON rebuilds a message from its JSON representation. Absent delimiter
// entries fall back to the standard characters.
func FromJSON(data []byte) (*hl7v2.Message, error) {
	var dto messageJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("decoding message JSON: %w", err)
	}
	return fromDTO(&dto)
}

func toDTO(msg *hl7v2.Message) *messageJSON {
	dto := &messageJSON{
		Segments: make([]segmentJSON, 0, len(msg.Segments)),
		Encoding: encodingJSON{
			FieldSeparator:        string(msg.Encoding.FieldSeparator),
			ComponentSeparator:    string(msg.Encoding.ComponentSeparator),
			RepetitionSeparator:   string(msg.Encoding.RepetitionSeparator),
			EscapeCharacter:       string(msg.Encoding.EscapeCharacter),
			SubcomponentSeparator: string(msg.Encoding.SubcomponentSeparator),
			ContinuationCharacter: msg.Encoding.ContinuationCharacter,
		},
		Version: msg.Version,
	}

	for _, seg := range msg.Segments {
		segDTO := segmentJSON{Name: seg.Name, Fields: make([]fieldSlotJSON, 0, len(seg.FieldReps))}
		for _, reps := range seg.FieldReps {
			slot := fieldSlotJSON{Repetitions: make([]fieldJSON, 0, len(reps))}
			for _, f := range reps {
				fieldDTO := fieldJSON{Null: f.Null, Components: make([]componentJSON, 0, len(f.Components))}
				for _, c := range f.Components {
					subs := make([]string, 0, len(c.Subcomponents))
					for _, sub := range c.Subcomponents {
						subs = append(subs, sub.Value)
					}
					fieldDTO.Components = append(fieldDTO.Components, componentJSON{Subcomponents: subs})
				}
				slot.Repetitions = append(slot.Repetitions, fieldDTO)
			}
			segDTO.Fields = append(segDTO.Fields, slot)
		}
		dto.Segments = append(dto.Segments, segDTO)
	}
	return dto
}

func fromDTO(dto *messageJSON) (*hl7v2.Message, error) {
	ec := hl7v2.DefaultEncoding()
	setSeparator(&ec.FieldSeparator, dto.Encoding.FieldSeparator)
	setSeparator(&ec.ComponentSeparator, dto.Encoding.ComponentSeparator)
	setSeparator(&ec.RepetitionSeparator, dto.Encoding.RepetitionSeparator)
	setSeparator(&ec.EscapeCharacter, dto.Encoding.EscapeCharacter)
	setSeparator(&ec.SubcomponentSeparator, dto.Encoding.SubcomponentSeparator)
	ec.ContinuationCharacter = dto.Encoding.ContinuationCharacter

	msg := hl7v2.NewMessage(ec)
	msg.Version = dto.Version

	for _, segDTO := range dto.Segments {
		seg, err := hl7v2.NewSegment(segDTO.Name)
		if err != nil {
			return nil, err
		}
		for _, slot := range segDTO.Fields {
			repDTOs := slot.Repetitions
			if len(repDTOs) == 0 && slot.Components != nil {
				repDTOs = []fieldJSON{{Components: slot.Components}}
			}
			reps := make([]hl7v2.Field, 0, len(repDTOs))
			for _, fieldDTO := range repDTOs {
				reps = append(reps, fieldFromDTO(fieldDTO))
			}
			if len(reps) == 0 {
				reps = []hl7v2.Field{hl7v2.EmptyField()}
			}
			seg.AppendFieldReps(reps)
		}
		msg.AddSegment(seg)
	}
	return msg, nil
}

func fieldFromDTO(dto fieldJSON) hl7v2.Field {
	if dto.Null {
		return hl7v2.NullField()
	}
	components := make([]hl7v2.Component, 0, len(dto.Components))
	for _, c := range dto.Components {
		subs := make([]hl7v2.Subcomponent, 0, len(c.Subcomponents))
		for _, value := range c.Subcomponents {
			subs = append(subs, hl7v2.Subcomponent{Value: value})
		}
		if len(subs) == 0 {
			subs = []hl7v2.Subcomponent{{}}
		}
		components = append(components, hl7v2.Component{Subcomponents: subs})
	}
	return hl7v2.Field{Components: components}
}

func setSeparator(dst *byte, value string) {
	if len(value) == 1 {
		*dst = value[0]
	}
}
