package contracts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var eventTypePattern = regexp.MustCompile(`^ocn\.([a-z_]+)\.([a-z_]+)\.v([0-9]+)$`)

// EventType is a parsed OCN wire type such as ocn.orca.decision.v1
type EventType struct {
	Producer string `json:"producer"` // e.g. "orca"
	Name     string `json:"name"`     // e.g. "decision"
	Major    uint64 `json:"major"`    // e.g. 1
}

// ParseEventType parses an ocn.<producer>.<name>.v<N> wire type
func ParseEventType(s string) (EventType, error) {
	m := eventTypePattern.FindStringSubmatch(s)
	if m == nil {
		return EventType{}, fmt.Errorf("%w: %q is not an ocn.<producer>.<name>.v<N> type", ErrInvalidEvent, s)
	}

	major, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return EventType{}, fmt.Errorf("%w: version of %q: %v", ErrInvalidEvent, s, err)
	}

	return EventType{Producer: m[1], Name: m[2], Major: major}, nil
}

// String renders the wire form
func (t EventType) String() string {
	return fmt.Sprintf("ocn.%s.%s.v%d", t.Producer, t.Name, t.Major)
}

// SchemaName is the event schema file stem, e.g. "orca.decision.v1"
func (t EventType) SchemaName() string {
	return strings.TrimPrefix(t.String(), "ocn.")
}

// Matches checks the type against a glob pattern and a version constraint.
// Empty arguments match anything.
func (t EventType) Matches(pattern, version string) bool {
	if pattern != "" && !t.matchesPattern(pattern) {
		return false
	}
	if version != "" && !t.matchesVersion(version) {
		return false
	}
	return true
}

// matchesPattern matches the wire form against a pattern where * spans any run of characters
func (t EventType) matchesPattern(pattern string) bool {
	wire := t.String()
	if pattern == wire {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	matched, err := regexp.MatchString(expr, wire)
	return err == nil && matched
}

// matchesVersion accepts "v2", "2", or any semver constraint such as ">=1" or "^2"
func (t EventType) matchesVersion(requested string) bool {
	requested = strings.TrimPrefix(strings.TrimSpace(requested), "v")
	if requested == strconv.FormatUint(t.Major, 10) {
		return true
	}

	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		return false
	}
	return constraint.Check(semver.New(t.Major, 0, 0, "", ""))
}
