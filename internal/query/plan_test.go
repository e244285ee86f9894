package query_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwcli/internal/filter"
	"pwcli/internal/patchwork"
	"pwcli/internal/query"
)

func mustBuildSpec(t *testing.T, criteria map[string]string) *filter.Spec {
	t.Helper()

	spec, err := filter.Build(criteria)
	require.NoError(t, err)

	return spec
}

func TestBuildServerSideParams(t *testing.T) {
	t.Parallel()

	spec := mustBuildSpec(t, map[string]string{
		"submitter": "Alex Shi",
		"delegate":  "reviewer",
		"project":   "linux-mmc",
		"archived":  "no",
		"since":     "2024-01-15",
		"before":    "2024-06-01",
	})

	plan := query.Build(spec)

	require.Len(t, plan.Queries, 1)

	want := map[string]string{
		"submitter": "Alex Shi",
		"delegate":  "reviewer",
		"project":   "linux-mmc",
		"archived":  "no",
		"since":     "2024-01-15T00:00:00",
		"before":    "2024-06-01T00:00:00",
	}

	if diff := cmp.Diff(want, plan.Queries[0].Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArchivedEitherOmitted(t *testing.T) {
	t.Parallel()

	plan := query.Build(mustBuildSpec(t, map[string]string{"archived": "either"}))

	require.Len(t, plan.Queries, 1)
	assert.NotContains(t, plan.Queries[0].Params, "archived")
}

func TestBuildStateFanOut(t *testing.T) {
	t.Parallel()

	spec := mustBuildSpec(t, map[string]string{
		"submitter": "Alex Shi",
		"state":     "accepted,new,rfc",
	})

	plan := query.Build(spec)

	require.Len(t, plan.Queries, 3)

	var states []string

	for _, q := range plan.Queries {
		assert.Equal(t, "Alex Shi", q.Params["submitter"], "shared params carried into each query")

		states = append(states, q.Params["state"])
	}

	assert.Equal(t, []string{"accepted", "new", "rfc"}, states)
}

func TestBuildClientOnlyCriteriaStayOffTheWire(t *testing.T) {
	t.Parallel()

	spec := mustBuildSpec(t, map[string]string{
		"submitter": "Alex Shi",
		"msgid":     "x@y",
		"name":      "fix",
		"text":      "regression",
	})

	plan := query.Build(spec)

	require.Len(t, plan.Queries, 1)

	for _, key := range []string{"msgid", "name", "text"} {
		assert.NotContains(t, plan.Queries[0].Params, key)
	}
}

func patchFixture() patchwork.Patch {
	return patchwork.Patch{
		ID:        42,
		Name:      "mmc: fix card detect regression",
		Date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Submitter: "Alex Shi",
		State:     "new",
		Project:   "linux-mmc",
		MsgID:     "abc@example.org",
	}
}

//nolint:funlen // table-driven test with many cases
func TestPredicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria map[string]string
		patch    patchwork.Patch
		want     bool
	}{
		{
			name:     "no client criteria matches everything",
			criteria: map[string]string{"submitter": "Alex Shi"},
			patch:    patchFixture(),
			want:     true,
		},
		{
			name:     "msgid exact match",
			criteria: map[string]string{"msgid": "<abc@example.org>"},
			patch:    patchFixture(),
			want:     true,
		},
		{
			name:     "msgid mismatch",
			criteria: map[string]string{"msgid": "other@example.org"},
			patch:    patchFixture(),
			want:     false,
		},
		{
			name:     "name substring case-insensitive",
			criteria: map[string]string{"name": "Card Detect"},
			patch:    patchFixture(),
			want:     true,
		},
		{
			name:     "name substring mismatch",
			criteria: map[string]string{"name": "usb"},
			patch:    patchFixture(),
			want:     false,
		},
		{
			name:     "free text matches submitter field",
			criteria: map[string]string{"text": "alex shi"},
			patch:    patchFixture(),
			want:     true,
		},
		{
			name:     "free text matches project field",
			criteria: map[string]string{"text": "linux-mmc"},
			patch:    patchFixture(),
			want:     true,
		},
		{
			name:     "free text mismatch",
			criteria: map[string]string{"text": "bluetooth"},
			patch:    patchFixture(),
			want:     false,
		},
		{
			name: "all client criteria must hold",
			criteria: map[string]string{
				"msgid": "abc@example.org",
				"name":  "mmc",
				"text":  "bluetooth",
			},
			patch: patchFixture(),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := query.Build(mustBuildSpec(t, tt.criteria))

			require.NotNil(t, plan.Match, "predicate must always be set")
			assert.Equal(t, tt.want, plan.Match(tt.patch))
		})
	}
}

func TestBuildDefaultSort(t *testing.T) {
	t.Parallel()

	plan := query.Build(mustBuildSpec(t, map[string]string{}))

	assert.Equal(t, query.SortID, plan.SortBy)
}
