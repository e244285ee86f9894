// Package patchwork defines the remote patch-tracking boundary: the
// patch record schema, the fixed state vocabulary, and the client
// interface the query pipeline talks to.
package patchwork

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date rendering for patch records.
const DateLayout = "2006-01-02T15:04:05"

// rawDateLayouts are the date shapes servers are known to emit.
var rawDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Patch is one tracked code-change submission with status metadata.
// Constructed only by DecodeRecord from a remote payload, never
// synthesized locally, and immutable once built. Updates go through
// Client.UpdatePatch and produce a fresh record on the next fetch.
type Patch struct {
	ID        int
	Name      string
	Date      time.Time
	Submitter string
	State     string
	Delegate  string
	Project   string
	Archived  bool
	MsgID     string
	CommitRef string
}

// Field names in their canonical rendering order.
const (
	FieldID        = "id"
	FieldDate      = "date"
	FieldName      = "name"
	FieldSubmitter = "submitter"
	FieldState     = "state"
	FieldDelegate  = "delegate"
	FieldProject   = "project"
	FieldArchived  = "archived"
	FieldMsgID     = "msgid"
	FieldCommitRef = "commit_ref"
)

// FieldNames returns the full patch field schema in canonical order.
func FieldNames() []string {
	return []string{
		FieldID, FieldDate, FieldName, FieldSubmitter, FieldState,
		FieldDelegate, FieldProject, FieldArchived, FieldMsgID, FieldCommitRef,
	}
}

// IsField reports whether name is part of the patch field schema.
func IsField(name string) bool {
	for _, f := range FieldNames() {
		if f == name {
			return true
		}
	}

	return false
}

// Field returns the string rendering of the named field.
// The second return is false for names outside the schema.
// Optional fields (delegate, msgid, commit_ref) render as "" when absent.
func (p *Patch) Field(name string) (string, bool) {
	switch name {
	case FieldID:
		return strconv.Itoa(p.ID), true
	case FieldDate:
		return p.Date.Format(DateLayout), true
	case FieldName:
		return p.Name, true
	case FieldSubmitter:
		return p.Submitter, true
	case FieldState:
		return p.State, true
	case FieldDelegate:
		return p.Delegate, true
	case FieldProject:
		return p.Project, true
	case FieldArchived:
		if p.Archived {
			return "yes", true
		}

		return "no", true
	case FieldMsgID:
		return p.MsgID, true
	case FieldCommitRef:
		return p.CommitRef, true
	default:
		return "", false
	}
}

// Raw is an undecoded record payload as returned by the remote service.
type Raw map[string]any

// DecodeRecord validates a raw payload against the patch schema and
// builds a Patch from it. Required fields: id, name, date, submitter,
// state, project. Everything else is optional with a zero default.
func DecodeRecord(raw Raw) (Patch, error) {
	var p Patch

	id, err := rawInt(raw, FieldID)
	if err != nil {
		return Patch{}, err
	}

	p.ID = id

	p.Name, err = rawString(raw, FieldName, true)
	if err != nil {
		return Patch{}, err
	}

	dateStr, err := rawString(raw, FieldDate, true)
	if err != nil {
		return Patch{}, err
	}

	p.Date, err = parseRawDate(dateStr)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	p.Submitter, err = rawString(raw, FieldSubmitter, true)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	stateStr, err := rawString(raw, FieldState, true)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	p.State, err = NormalizeState(stateStr)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	p.Project, err = rawString(raw, FieldProject, true)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	p.Delegate, _ = rawString(raw, FieldDelegate, false)
	p.CommitRef, _ = rawString(raw, FieldCommitRef, false)

	msgid, _ := rawString(raw, FieldMsgID, false)
	p.MsgID = strings.Trim(msgid, "<>")

	p.Archived, err = rawBool(raw, FieldArchived)
	if err != nil {
		return Patch{}, fmt.Errorf("record %d: %w", p.ID, err)
	}

	return p, nil
}

func parseRawDate(s string) (time.Time, error) {
	for _, layout := range rawDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: date %q", ErrBadRecord, s)
}

func rawString(raw Raw, field string, required bool) (string, error) {
	val, ok := raw[field]
	if !ok || val == nil {
		if required {
			return "", fmt.Errorf("%w: missing field %q", ErrBadRecord, field)
		}

		return "", nil
	}

	s, ok := val.(string)
	if !ok {
		if required {
			return "", fmt.Errorf("%w: field %q is not a string", ErrBadRecord, field)
		}

		return "", nil
	}

	if required && s == "" {
		return "", fmt.Errorf("%w: empty field %q", ErrBadRecord, field)
	}

	return s, nil
}

func rawInt(raw Raw, field string) (int, error) {
	val, ok := raw[field]
	if !ok || val == nil {
		return 0, fmt.Errorf("%w: missing field %q", ErrBadRecord, field)
	}

	switch v := val.(type) {
	case float64:
		// encoding/json decodes all numbers into float64
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: %q is not numeric", ErrBadRecord, field, v)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: field %q is not numeric", ErrBadRecord, field)
	}
}

func rawBool(raw Raw, field string) (bool, error) {
	val, ok := raw[field]
	if !ok || val == nil {
		return false, nil
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "yes", "true", "1":
			return true, nil
		case "no", "false", "0", "":
			return false, nil
		}

		return false, fmt.Errorf("%w: field %q: %q is not a boolean", ErrBadRecord, field, v)
	default:
		return false, fmt.Errorf("%w: field %q is not a boolean", ErrBadRecord, field)
	}
}
