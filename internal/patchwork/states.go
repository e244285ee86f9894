package patchwork

import (
	"fmt"
	"strings"
)

// States is the fixed lifecycle vocabulary defined by the remote
// service. Filter validation and update validation both check against
// this list.
var States = []string{
	"new",
	"under-review",
	"accepted",
	"rejected",
	"rfc",
	"changes-requested",
	"awaiting-upstream",
	"superseded",
	"deferred",
	"not-applicable",
}

// NormalizeState maps user or server spellings onto the canonical
// vocabulary entry ("Under Review" -> "under-review"). Values outside
// the vocabulary fail with ErrUnknownState.
func NormalizeState(s string) (string, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")

	for _, known := range States {
		if norm == known {
			return known, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}
