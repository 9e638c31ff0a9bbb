package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"plexshelf/internal/api"
)

const albumsXML = `<MediaContainer size="4">
  <Directory ratingKey="101" type="album" title="Leviathan Wakes (The Expanse, Book 1)" parentTitle="James S. A. Corey" year="2011"/>
  <Directory ratingKey="102" type="album" title="Caliban's War (The Expanse, Book 2)" parentTitle="James S. A. Corey" year="2012"/>
  <Directory ratingKey="201" type="album" title="Foundation" parentTitle="Isaac Asimov"/>
  <Directory ratingKey="202" type="album" title="Foundation and Empire" parentTitle="Isaac Asimov"/>
</MediaContainer>`

type fakePlexServer struct {
	mu   sync.Mutex
	puts []string
}

func (f *fakePlexServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Plex-Token") != "plex-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method == http.MethodPut {
		f.mu.Lock()
		f.puts = append(f.puts, r.URL.RawQuery)
		f.mu.Unlock()
		return
	}
	switch r.URL.Path {
	case "/":
		fmt.Fprint(w, `<MediaContainer friendlyName="shelf" version="1.40.0"/>`)
	case "/library/sections":
		fmt.Fprint(w, `<MediaContainer><Directory key="3" title="Audiobooks" type="artist"/></MediaContainer>`)
	case "/library/sections/3/all":
		fmt.Fprint(w, albumsXML)
	default:
		http.NotFound(w, r)
	}
}

type cliTestEnv struct {
	configPath string
	plex       *fakePlexServer
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PLEX_TOKEN", "")
	t.Setenv("NO_COLOR", "1")

	fake := &fakePlexServer{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	configPath := filepath.Join(base, "plexshelf.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[plex]
url = %q
token = "plex-token"
library_name = "Audiobooks"

[api]
bind = "127.0.0.1:0"
token = "api-secret"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), server.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, plex: fake}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestScanMatchReviewApply(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Scanned 4 audiobooks")

	out, _, err = runCLI(t, []string{"match", "--json", "--no-enrichment"}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	var summary api.RunSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Created != 4 || summary.AutoApproved != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	out, _, err = runCLI(t, []string{"matches", "list", "--status", "pending", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("matches list: %v", err)
	}
	var pending []api.Match
	if err := json.Unmarshal([]byte(out), &pending); err != nil {
		t.Fatalf("decode matches: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected two pending matches, got %+v", pending)
	}

	out, _, err = runCLI(t, []string{"matches", "approve", fmt.Sprint(pending[0].ID), fmt.Sprint(pending[1].ID)}, env.configPath)
	if err != nil {
		t.Fatalf("matches approve: %v", err)
	}
	requireContains(t, out, "is now approved")

	out, _, err = runCLI(t, []string{"matches", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("matches list table: %v", err)
	}
	requireContains(t, out, "The Expanse")
	requireContains(t, out, "approved")

	out, _, err = runCLI(t, []string{"apply"}, env.configPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "Applied 2 collections (4 books, 4 sort titles)")

	env.plex.mu.Lock()
	puts := strings.Join(env.plex.puts, "\n")
	env.plex.mu.Unlock()
	requireContains(t, puts, "collection%5B0%5D.tag.tag=The+Expanse+Series")
	requireContains(t, puts, "titleSort.value=02+-+The+Expanse")

	out, _, err = runCLI(t, []string{"series", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("series list: %v", err)
	}
	requireContains(t, out, "Foundation")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Applied:")
	requireContains(t, out, "completed")
}

func TestMatchesApproveReportsUnknownIDs(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"matches", "approve", "999"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown match")
	}
	requireContains(t, out, "Match 999")
	requireContains(t, err.Error(), "1 of 1 matches not updated")

	if _, _, err := runCLI(t, []string{"matches", "approve", "abc"}, env.configPath); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if _, _, err := runCLI(t, []string{"matches", "list", "--status", "maybe"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "plex-token") || strings.Contains(out, "api-secret") {
		t.Fatalf("secrets leaked into output:\n%s", out)
	}
	requireContains(t, out, redacted)
}

func TestPlexCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plex", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("plex check: %v", err)
	}
	requireContains(t, out, "shelf (1.40.0)")
	requireContains(t, out, "section 3")
}

func TestParseMatchIDs(t *testing.T) {
	tests := []struct {
		args    []string
		want    []int64
		wantErr bool
	}{
		{args: []string{"1", " 22 "}, want: []int64{1, 22}},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"x"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseMatchIDs(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseMatchIDs(%v) expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseMatchIDs(%v): %v", tt.args, err)
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Fatalf("parseMatchIDs(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestApproveAllHonoursMinimumConfidence(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"scan"}, env.configPath); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, _, err := runCLI(t, []string{"match", "--no-enrichment"}, env.configPath); err != nil {
		t.Fatalf("match: %v", err)
	}

	decode := func(out string) api.BulkResult {
		t.Helper()
		var result api.BulkResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("decode bulk result: %v\n%s", err, out)
		}
		return result
	}

	// The two Foundation matches come from fuzzy clustering and score at most 80.
	out, _, err := runCLI(t, []string{"matches", "approve-all", "--min-confidence", "90", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("approve-all floored: %v", err)
	}
	if got := decode(out); got.Changed != 0 {
		t.Fatalf("expected no fuzzy matches above 90, got %+v", got)
	}

	if _, _, err := runCLI(t, []string{"matches", "approve-all", "--min-confidence", "101"}, env.configPath); err == nil {
		t.Fatal("expected out-of-range confidence to fail")
	}

	out, _, err = runCLI(t, []string{"matches", "approve-all", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("approve-all: %v", err)
	}
	if got := decode(out); got.Changed != 2 {
		t.Fatalf("expected both pending matches approved, got %+v", got)
	}
}

func TestClearRequiresYes(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"scan"}, env.configPath); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, _, err := runCLI(t, []string{"match", "--no-enrichment"}, env.configPath); err != nil {
		t.Fatalf("match: %v", err)
	}

	_, _, err := runCLI(t, []string{"clear"}, env.configPath)
	if err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	requireContains(t, err.Error(), "--yes")

	out, _, err := runCLI(t, []string{"clear", "--yes", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	var result api.ClearResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode clear result: %v\n%s", err, out)
	}
	if result.Items != 4 || result.Matches != 4 || result.Series != 2 {
		t.Fatalf("unexpected clear result %+v", result)
	}

	out, _, err = runCLI(t, []string{"matches", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("matches list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty match list after clear, got %s", out)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "completed")
}
