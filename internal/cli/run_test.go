package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwcli/internal/cli"
)

// fakeServer is a scriptable stand-in for a patch-tracking server.
type fakeServer struct {
	patches   []map[string]any
	pageSize  int
	failLists bool
}

func (s *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /patches", func(w http.ResponseWriter, r *http.Request) {
		if s.failLists {
			http.Error(w, "boom", http.StatusInternalServerError)

			return
		}

		page := 0
		_, _ = fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

		pageSize := s.pageSize
		if pageSize == 0 {
			pageSize = 100
		}

		start := page * pageSize
		end := min(start+pageSize, len(s.patches))

		if start > end {
			start = end
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"patches":  s.patches[start:end],
			"has_more": end < len(s.patches),
		})
	})

	mux.HandleFunc("GET /patches/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range s.patches {
			if fmt.Sprint(p["id"]) == r.PathValue("id") {
				_ = json.NewEncoder(w).Encode(p)

				return
			}
		}

		http.NotFound(w, r)
	})

	mux.HandleFunc("PATCH /patches/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /patches/{id}/mbox", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("From: alex@example.org\n\npatch body\n"))
	})

	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "linkname": "linux-mmc", "name": "Linux MMC"},
		})
	})

	return mux
}

func fakePatch(id int, name string) map[string]any {
	return map[string]any{
		"id":        id,
		"name":      name,
		"date":      "2024-03-01 10:00:00",
		"submitter": "Alex Shi",
		"state":     "new",
		"project":   "linux-mmc",
		"archived":  false,
		"msgid":     fmt.Sprintf("<%d@example.org>", id),
	}
}

// runCLI starts the fake server, writes a config pointing at it, and
// runs the CLI. Returns exit code, stdout, stderr.
func runCLI(t *testing.T, srv *fakeServer, args ...string) (int, string, string) {
	t.Helper()

	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	cfgPath := filepath.Join(t.TempDir(), "pwclientrc.json")
	cfg := fmt.Sprintf(`{
		"default_project": "linux-mmc",
		"projects": {"linux-mmc": {"url": %q, "token": "sekrit"}}
	}`, ts.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out, errOut bytes.Buffer

	fullArgs := append([]string{"pwcli", "--config", cfgPath}, args...)
	code := cli.Run(strings.NewReader(""), &out, &errOut, fullArgs, map[string]string{}, nil)

	return code, out.String(), errOut.String()
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut, []string{"pwcli"}, map[string]string{}, nil)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Usage: pwcli")
	assert.Contains(t, out.String(), "list")
}

func TestRunUnknownCommand(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "frobnicate")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestRunNoConfig(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut,
		[]string{"pwcli", "list"}, map[string]string{"HOME": t.TempDir()}, nil)

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "no config file found")
}

func TestListText(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{patches: []map[string]any{
		fakePatch(2, "second patch"),
		fakePatch(1, "first patch"),
	}}

	code, out, errOut := runCLI(t, srv, "list")

	assert.Equal(t, 0, code, "stderr: %s", errOut)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "first patch")
	assert.Contains(t, out, "second patch")

	first := strings.Index(out, "first patch")
	second := strings.Index(out, "second patch")
	assert.Less(t, first, second, "sorted ascending by id")
}

func TestListCSVPaginated(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{pageSize: 50}
	for id := 1; id <= 63; id++ {
		srv.patches = append(srv.patches, fakePatch(id, fmt.Sprintf("patch %d", id)))
	}

	code, out, errOut := runCLI(t, srv, "list", "--format=csv", "--fields=id,submitter")

	assert.Equal(t, 0, code, "stderr: %s", errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 64, "header plus 63 data rows across two pages")
	assert.Equal(t, "id,submitter", lines[0])

	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, ",Alex Shi"), "line %q", line)
	}
}

func TestListValidationErrorExitCode(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "list", "--state=bogus", "--archived=maybe")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "state")
	assert.Contains(t, errOut, "archived", "all violations reported together")
}

func TestListUnknownFieldExitCode(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, &fakeServer{}, "list", "--fields=id,bogus")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown fields: bogus")
	assert.Empty(t, out, "nothing rendered on a bad output spec")
}

func TestListRemoteErrorExitCode(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{failLists: true}, "list")

	assert.Equal(t, 3, code)
	assert.Contains(t, errOut, "remote")
}

func TestListPartialDataExitCode(t *testing.T) {
	t.Parallel()

	broken := fakePatch(2, "broken")
	delete(broken, "state")

	srv := &fakeServer{patches: []map[string]any{
		fakePatch(1, "good"),
		broken,
	}}

	code, out, errOut := runCLI(t, srv, "list")

	assert.Equal(t, 4, code, "partial success has its own exit code")
	assert.Contains(t, out, "good")
	assert.NotContains(t, out, "broken")
	assert.Contains(t, errOut, "warning:")
	assert.Contains(t, errOut, "skipped record")
}

func TestShow(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{patches: []map[string]any{fakePatch(42, "the patch")}}

	code, out, _ := runCLI(t, srv, "show", "42")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Information for patch id 42")
	assert.Contains(t, out, "the patch")
	assert.Contains(t, out, "NA", "absent fields render the explicit marker")
}

func TestShowNotFound(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "show", "42")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestShowBadID(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "show", "abc")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid patch id")
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{patches: []map[string]any{fakePatch(42, "the patch")}}

	code, out, _ := runCLI(t, srv, "update", "42", "--state=accepted")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Updated patch 42")
}

func TestUpdateNothingToDo(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "update", "42")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "nothing to update")
}

func TestUpdateBadState(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, &fakeServer{}, "update", "42", "--state=halfway")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown state")
}

func TestProjects(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, &fakeServer{}, "projects")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "linux-mmc")
	assert.Contains(t, out, "Linux MMC")
}

func TestCommandHelp(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, &fakeServer{}, "list", "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage: pwcli list")
	assert.Contains(t, out, "--submitter")
}
