// Package filter builds validated selection criteria for patch
// queries. A Spec is the structured form of what the user asked for,
// independent of how the remote protocol expresses it.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pwcli/internal/patchwork"
)

// Recognized criterion names.
const (
	CriterionSubmitter = "submitter"
	CriterionDelegate  = "delegate"
	CriterionProject   = "project"
	CriterionState     = "state"
	CriterionArchived  = "archived"
	CriterionMsgID     = "msgid"
	CriterionSince     = "since"
	CriterionBefore    = "before"
	CriterionName      = "name"
	CriterionText      = "text"
)

// Archived tri-state values.
const (
	ArchivedYes    = "yes"
	ArchivedNo     = "no"
	ArchivedEither = "either"
)

// dateLayouts are the accepted input shapes for since/before.
var dateLayouts = []string{
	patchwork.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Spec is a validated filter specification. Zero-valued fields mean
// the criterion was not given.
type Spec struct {
	Submitter string
	Delegate  string
	Project   string
	States    []string // normalized, deduplicated, input order kept
	Archived  string   // yes, no, or either ("" means either)
	MsgID     string   // angle brackets stripped
	Since     time.Time
	Before    time.Time
	Name      string
	Text      string
}

// ValidationError lists every violation found while building a Spec,
// so the caller can report all of them at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter: %s", strings.Join(e.Violations, "; "))
}

// Build validates a criteria map and constructs a Spec from it.
// Every invalid criterion is collected into the returned
// *ValidationError; unknown criterion names are violations, never
// silently ignored. Criteria with empty values are violations too.
func Build(criteria map[string]string) (*Spec, error) {
	spec := &Spec{}

	var violations []string

	// Deterministic violation order regardless of map iteration.
	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		value := criteria[name]
		if strings.TrimSpace(value) == "" {
			violations = append(violations, fmt.Sprintf("%s: empty value", name))

			continue
		}

		if problem := spec.setCriterion(name, value); problem != "" {
			violations = append(violations, problem)
		}
	}

	if spec.Archived == "" {
		spec.Archived = ArchivedEither
	}

	if !spec.Since.IsZero() && !spec.Before.IsZero() && spec.Before.Before(spec.Since) {
		violations = append(violations, "before: earlier than since")
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return spec, nil
}

// setCriterion applies one criterion to the spec. Returns a violation
// message, or "" on success.
func (s *Spec) setCriterion(name, value string) string {
	switch name {
	case CriterionSubmitter:
		s.Submitter = value
	case CriterionDelegate:
		s.Delegate = value
	case CriterionProject:
		s.Project = value
	case CriterionName:
		s.Name = value
	case CriterionText:
		s.Text = value
	case CriterionMsgID:
		s.MsgID = strings.Trim(value, "<>")
	case CriterionState:
		states, err := parseStates(value)
		if err != nil {
			return fmt.Sprintf("state: %v", err)
		}

		s.States = states
	case CriterionArchived:
		switch strings.ToLower(value) {
		case ArchivedYes, ArchivedNo, ArchivedEither:
			s.Archived = strings.ToLower(value)
		default:
			return fmt.Sprintf("archived: %q is not yes, no, or either", value)
		}
	case CriterionSince:
		t, err := parseDate(value)
		if err != nil {
			return fmt.Sprintf("since: %v", err)
		}

		s.Since = t
	case CriterionBefore:
		t, err := parseDate(value)
		if err != nil {
			return fmt.Sprintf("before: %v", err)
		}

		s.Before = t
	default:
		return fmt.Sprintf("unknown criterion %q", name)
	}

	return ""
}

// Criteria re-derives the normalized criteria map from the spec.
// Building a new spec from the result yields an equal spec.
func (s *Spec) Criteria() map[string]string {
	out := make(map[string]string)

	put := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}

	put(CriterionSubmitter, s.Submitter)
	put(CriterionDelegate, s.Delegate)
	put(CriterionProject, s.Project)
	put(CriterionState, strings.Join(s.States, ","))
	put(CriterionMsgID, s.MsgID)
	put(CriterionName, s.Name)
	put(CriterionText, s.Text)

	if s.Archived != "" && s.Archived != ArchivedEither {
		out[CriterionArchived] = s.Archived
	}

	if !s.Since.IsZero() {
		out[CriterionSince] = s.Since.Format(patchwork.DateLayout)
	}

	if !s.Before.IsZero() {
		out[CriterionBefore] = s.Before.Format(patchwork.DateLayout)
	}

	return out
}

// parseStates normalizes a comma-separated state value-set.
func parseStates(value string) ([]string, error) {
	var states []string

	seen := make(map[string]bool)

	for part := range strings.SplitSeq(value, ",") {
		state, err := patchwork.NormalizeState(part)
		if err != nil {
			return nil, err
		}

		if seen[state] {
			continue
		}

		seen[state] = true
		states = append(states, state)
	}

	return states, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date %q", value)
}
