// Package capability turns the mirroring tool's free-text camera listing
// into structured descriptors.
package capability

import (
	"regexp"
	"strings"
)

// Descriptor is one camera lens.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Matcher recognizes one listing grammar. Match reports false for lines it
// does not understand.
type Matcher interface {
	Name() string
	Match(line string) (Descriptor, bool)
}

// modern handles listings of the form
//
//	--camera-id=0    (back, 4080x3060, fps=[15, 20, 24, 30])
type modern struct{}

var modernPattern = regexp.MustCompile(`--camera-id=(\w+)\s*\((.*?)\)`)

func (modern) Name() string { return "modern" }

func (modern) Match(line string) (Descriptor, bool) {
	m := modernPattern.FindStringSubmatch(line)
	if m == nil {
		return Descriptor{}, false
	}
	return Descriptor{ID: m[1], Name: m[1] + ": " + m[2]}, true
}

// legacy handles listings of the form
//
//	- [0] (3264x2448) back, macro
type legacy struct{}

var legacyPattern = regexp.MustCompile(`^(?:-\s*)?\[(\w+)\]\s*\((.*?)\)\s*(.*)`)

func (legacy) Name() string { return "legacy" }

func (legacy) Match(line string) (Descriptor, bool) {
	m := legacyPattern.FindStringSubmatch(line)
	if m == nil {
		return Descriptor{}, false
	}
	meta := strings.TrimSpace(strings.TrimSuffix(m[3], "\r"))
	if meta == "" {
		meta = "Camera"
	}
	return Descriptor{ID: m[1], Name: m[1] + ": " + meta + " (" + m[2] + ")"}, true
}

// Matchers is the default grammar list, tried in order.
var Matchers = []Matcher{modern{}, legacy{}}

// Parse extracts descriptors from raw output using Matchers.
func Parse(raw string) []Descriptor {
	return ParseWith(raw, Matchers)
}

// ParseWith extracts descriptors using the given matchers. Each trimmed
// line yields at most one descriptor, from the first matcher that accepts
// it; other lines are skipped.
func ParseWith(raw string, matchers []Matcher) []Descriptor {
	out := []Descriptor{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, m := range matchers {
			if d, ok := m.Match(line); ok {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
