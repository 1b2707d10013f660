package hl7v2

// Version represents an HL7 v2.x specification version as declared in
// MSH-12 (e.g. "2.5").
type Version string

// Supported HL7 v2.x versions.
const (
	V21 Version = "2.1"
	V22 Version = "2.2"
	V23 Version = "2.3"
	V24 Version = "2.4"
	V25 Version = "2.5"
	V26 Version = "2.6"
	V27 Version = "2.7"
	V28 Version = "2.8"
	V29 Version = "2.9"
)

// supportedVersions lists the versions in order, oldest first.
var supportedVersions = []Version{V21, V22, V23, V24, V25, V26, V27, V28, V29}

// versionOrder maps each supported version to its rank.
var versionOrder = func() map[Version]int {
	m := make(map[Version]int, len(supportedVersions))
	for i, v := range supportedVersions {
		m[v] = i
	}
	return m
}()

// String returns the version string.
func (v Version) String() string {
	return string(v)
}

// IsSupported reports whether this is a known HL7 v2.x version. Parsing
// never depends on this; it exists for callers (version converters, message
// validators) deciding how to treat a declared version.
func (v Version) IsSupported() bool {
	_, ok := versionOrder[v]
	return ok
}

// Compare returns -1, 0 or 1 as v sorts before, equal to or after other.
// Unknown versions compare equal, matching the permissive stance the codec
// takes toward content it does not understand.
func (v Version) Compare(other Version) int {
	a, okA := versionOrder[v]
	b, okB := versionOrder[other]
	if !okA || !okB {
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether v is the same as or newer than min.
func (v Version) AtLeast(min Version) bool {
	return v.Compare(min) >= 0
}

// SupportedVersions returns the supported versions, oldest first.
func SupportedVersions() []Version {
	out := make([]Version, len(supportedVersions))
	copy(out, supportedVersions)
	return out
}
