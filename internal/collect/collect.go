// Package collect drives the paginated remote calls of a query plan
// and folds the pages into a single deduplicated, ordered result set.
package collect

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"pwcli/internal/patchwork"
	"pwcli/internal/query"
)

// DefaultMaxPages bounds pagination when the caller does not. It
// guards against a server whose continuation flag never clears.
const DefaultMaxPages = 100

// PageFetcher is the injectable page-call boundary. Pages are
// numbered from zero.
type PageFetcher func(ctx context.Context, params map[string]string, page int) (records []patchwork.Raw, hasMore bool, err error)

// Options tunes a single Collect call.
type Options struct {
	// MaxPages caps the total number of page fetches across all
	// queries in the plan. Zero means DefaultMaxPages.
	MaxPages int
}

// Result is the outcome of a Collect call. Warnings carry everything
// that degraded the result without failing it: skipped records, a hit
// page cap, a mid-pagination remote failure.
type Result struct {
	Patches   []patchwork.Patch
	Warnings  []string
	Skipped   int  // records dropped by schema decoding
	Truncated bool // pagination stopped before exhaustion
}

// accumulator is the fold state threaded through page merges. Each
// Collect call owns its own; nothing is shared across calls.
type accumulator struct {
	patches  []patchwork.Patch
	seen     map[int]bool
	warnings []string
	skipped  int
}

// accumulate merges one page of raw records into the accumulator:
// decode, post-filter, dedup by id (first seen wins). Records failing
// schema decoding are skipped with a warning; duplicates are dropped
// silently, since they are expected when the remote mutates between
// page fetches.
func accumulate(acc accumulator, page []patchwork.Raw, match query.Predicate) accumulator {
	for _, raw := range page {
		p, err := patchwork.DecodeRecord(raw)
		if err != nil {
			acc.skipped++
			acc.warnings = append(acc.warnings, fmt.Sprintf("skipped record: %v", err))

			continue
		}

		if !match(p) {
			continue
		}

		if acc.seen[p.ID] {
			continue
		}

		acc.seen[p.ID] = true
		acc.patches = append(acc.patches, p)
	}

	return acc
}

// Collect executes the plan: issues each remote query page by page,
// folds the pages through accumulate, and sorts the final set.
//
// Failure semantics: an error on the very first page call is fatal.
// An error on any later call stops pagination and returns what was
// gathered with a truncation warning, preferring partial delivery
// over total failure. Context cancellation aborts with the context
// error and no partial result.
func Collect(ctx context.Context, fetch PageFetcher, plan *query.Plan, opts Options) (*Result, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	acc := accumulator{seen: make(map[int]bool)}

	fetched := 0
	truncated := false

queries:
	for _, q := range plan.Queries {
		page := 0

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if fetched >= maxPages {
				acc.warnings = append(acc.warnings,
					fmt.Sprintf("stopped after %d pages; results may be incomplete", fetched))
				truncated = true

				break queries
			}

			records, hasMore, err := fetch(ctx, q.Params, page)
			if err != nil {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				if fetched == 0 {
					return nil, err
				}

				acc.warnings = append(acc.warnings,
					fmt.Sprintf("pagination stopped early: %v; results may be incomplete", err))
				truncated = true

				break queries
			}

			fetched++
			acc = accumulate(acc, records, plan.Match)

			if !hasMore || len(records) == 0 {
				break
			}

			page++
		}
	}

	sortPatches(acc.patches, plan.SortBy)

	return &Result{
		Patches:   acc.patches,
		Warnings:  acc.warnings,
		Skipped:   acc.skipped,
		Truncated: truncated,
	}, nil
}

// sortPatches orders the final set. Default and tie-break is the
// remote-assigned id ascending; the sort is stable over first-seen
// order before the id tie-break applies.
func sortPatches(patches []patchwork.Patch, by query.SortField) {
	key := func(a, b patchwork.Patch) int {
		switch by {
		case query.SortDate:
			return a.Date.Compare(b.Date)
		case query.SortName:
			return strings.Compare(a.Name, b.Name)
		case query.SortSubmitter:
			return strings.Compare(a.Submitter, b.Submitter)
		case query.SortState:
			return strings.Compare(a.State, b.State)
		default:
			return 0
		}
	}

	slices.SortStableFunc(patches, func(a, b patchwork.Patch) int {
		if c := key(a, b); c != 0 {
			return c
		}

		return a.ID - b.ID
	})
}
