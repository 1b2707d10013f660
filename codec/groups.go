package codec

import hl7v2 "github.com/DNAi-inc/DNHealth-sub002"

// groupBoundaries maps the well-known segments that open a repeating
// cluster to the group identifier used for runs they start.
var groupBoundaries = map[string]string{
	"PID": "PATIENT",
	"ORC": "ORDER",
	"OBR": "ORDER_OBSERVATION",
}

// framingSegments close any open group without opening one.
var framingSegments = map[string]bool{
	segMSH: true, segBHS: true, segFHS: true,
	"BTS": true, "FTS": true, "MSA": true,
}

// detectGroups layers segment groups over the flat list by recognizing
// repeating-group boundary segments. Best effort only: the flat list stays
// authoritative and a message that defeats the heuristic simply gets no
// groups. Groups reference the same Segment values as the flat list.
func detectGroups(msg *hl7v2.Message) {
	var current *hl7v2.SegmentGroup

	flush := func() {
		if current != nil && len(current.Segments) > 0 {
			msg.AddGroup(current)
		}
		current = nil
	}

	for _, seg := range msg.Segments {
		if framingSegments[seg.Name] {
			flush()
			continue
		}
		if id, ok := groupBoundaries[seg.Name]; ok {
			flush()
			current = &hl7v2.SegmentGroup{ID: id}
		}
		if current != nil {
			current.AddSegment(seg)
		}
	}
	flush()
}
