// Package query turns a filter specification into a query plan: the
// remote calls to issue, plus the post-filter for everything the
// remote query language cannot express.
package query

import (
	"strings"

	"pwcli/internal/filter"
	"pwcli/internal/patchwork"
)

// Server-side query parameter names. These travel verbatim to the
// remote client; the remote query language supports nothing else.
const (
	ParamSubmitter = "submitter"
	ParamDelegate  = "delegate"
	ParamProject   = "project"
	ParamState     = "state"
	ParamArchived  = "archived"
	ParamSince     = "since"
	ParamBefore    = "before"
)

// RemoteQuery is one remote-compatible listing call.
type RemoteQuery struct {
	Params map[string]string
}

// Predicate is the client-side post-filter for criteria the remote
// protocol cannot express. Always applied, never optional.
type Predicate func(p patchwork.Patch) bool

// SortField names an explicit result ordering. Empty means the
// default ascending-by-id order.
type SortField string

// Sortable fields.
const (
	SortID        SortField = "id"
	SortDate      SortField = "date"
	SortName      SortField = "name"
	SortSubmitter SortField = "submitter"
	SortState     SortField = "state"
)

// Plan is the decomposition of a filter spec into remote calls and a
// mandatory client-side predicate.
type Plan struct {
	Queries []RemoteQuery
	Match   Predicate
	SortBy  SortField
}

// Build decomposes spec into a Plan. The server-filterable criteria
// (submitter, delegate, project, archived, date range, state) become
// query parameters; a state value-set fans out into one query per
// state since the remote protocol takes a single state per call.
// msgid, name substring, and free text stay client-side in Match.
func Build(spec *filter.Spec) *Plan {
	base := make(map[string]string)

	if spec.Submitter != "" {
		base[ParamSubmitter] = spec.Submitter
	}

	if spec.Delegate != "" {
		base[ParamDelegate] = spec.Delegate
	}

	if spec.Project != "" {
		base[ParamProject] = spec.Project
	}

	if spec.Archived == filter.ArchivedYes || spec.Archived == filter.ArchivedNo {
		base[ParamArchived] = spec.Archived
	}

	if !spec.Since.IsZero() {
		base[ParamSince] = spec.Since.Format(patchwork.DateLayout)
	}

	if !spec.Before.IsZero() {
		base[ParamBefore] = spec.Before.Format(patchwork.DateLayout)
	}

	var queries []RemoteQuery

	if len(spec.States) == 0 {
		queries = append(queries, RemoteQuery{Params: base})
	} else {
		for _, state := range spec.States {
			params := make(map[string]string, len(base)+1)
			for k, v := range base {
				params[k] = v
			}

			params[ParamState] = state
			queries = append(queries, RemoteQuery{Params: params})
		}
	}

	return &Plan{
		Queries: queries,
		Match:   buildPredicate(spec),
		SortBy:  SortID,
	}
}

// buildPredicate builds the post-filter for the client-only criteria.
// With none given it matches everything; it is never nil.
func buildPredicate(spec *filter.Spec) Predicate {
	msgid := spec.MsgID
	name := strings.ToLower(spec.Name)
	text := strings.ToLower(spec.Text)

	return func(p patchwork.Patch) bool {
		if msgid != "" && p.MsgID != msgid {
			return false
		}

		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			return false
		}

		if text != "" && !matchesText(p, text) {
			return false
		}

		return true
	}
}

// matchesText reports whether the lowercased needle occurs in any of
// the record's searchable fields combined.
func matchesText(p patchwork.Patch, needle string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		p.Name, p.Submitter, p.Delegate, p.Project, p.MsgID, p.CommitRef,
	}, "\n"))

	return strings.Contains(haystack, needle)
}
