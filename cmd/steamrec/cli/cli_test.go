package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/steamrec/internal/client"
	"github.com/felixgeelhaar/steamrec/internal/config"
	"github.com/felixgeelhaar/steamrec/internal/observe"
	"github.com/felixgeelhaar/steamrec/internal/selection"
	"github.com/felixgeelhaar/steamrec/internal/store"
	"github.com/goccy/go-json"
)

const testID = "76561198000000001"

func newTestRunner(t *testing.T, svc client.Service) (*Runner, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewRunner(observe.Discard(), s, svc, config.Default(), nil), s
}

func TestParsePick(t *testing.T) {
	testCases := []struct {
		in      string
		want    Pick
		wantErr bool
	}{
		{"620", Pick{ID: 620, Percent: 100, Mode: selection.Like}, false},
		{"620:150", Pick{ID: 620, Percent: 150, Mode: selection.Like}, false},
		{"620:80%:opposite", Pick{ID: 620, Percent: 80, Mode: selection.Opposite}, false},
		{"620::opposite", Pick{ID: 620, Percent: 100, Mode: selection.Opposite}, false},
		{"abc", Pick{}, true},
		{"620:250", Pick{}, true},
		{"620:50:hate", Pick{}, true},
		{"620:50:like:extra", Pick{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePick(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePick failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestRunner_Library(t *testing.T) {
	r, s := newTestRunner(t, client.NewStubService())

	all, err := r.Library(context.Background(), testID, "", "")
	if err != nil {
		t.Fatalf("Library failed: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("expected 10 games, got %d", len(all))
	}

	filtered, err := r.Library(context.Background(), testID, "HOLLOW", "")
	if err != nil {
		t.Fatalf("Library failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Hollow Knight" {
		t.Errorf("unexpected filter result %+v", filtered)
	}

	globbed, err := r.Library(context.Background(), testID, "", "s*")
	if err != nil {
		t.Fatalf("Library failed: %v", err)
	}
	if len(globbed) != 2 {
		t.Errorf("expected Slay the Spire and Stardew Valley, got %+v", globbed)
	}

	if _, err := r.Library(context.Background(), testID, "a", "b*"); err == nil {
		t.Error("expected error when combining --filter and --glob")
	}

	calls, _ := s.ListCalls(10)
	if len(calls) != 3 {
		t.Errorf("expected 3 recorded loads, got %d", len(calls))
	}
}

func TestRunner_LibraryRejectsBadID(t *testing.T) {
	r, _ := newTestRunner(t, client.NewStubService())

	_, err := r.Library(context.Background(), "123", "", "")
	if err == nil || err.Error() != "Steam ID must be exactly 17 digits" {
		t.Errorf("expected validation message, got %v", err)
	}
}

func TestRunner_Recommend(t *testing.T) {
	svc := client.NewStubService()
	r, s := newTestRunner(t, svc)

	picks := []Pick{
		{ID: 620, Percent: 100, Mode: selection.Like},
		{ID: 220, Percent: 150, Mode: selection.Opposite},
	}
	results, err := r.Recommend(context.Background(), testID, picks, 0.3)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(results) == 0 {
		t.Error("expected results")
	}

	req := svc.Requests[0]
	if len(req.InputGames) != 2 || req.InputGames[1].Multiplier != 1.5 || req.InputGames[1].Type != "opposite" {
		t.Errorf("unexpected request %+v", req.InputGames)
	}
	if req.NicheFactor != 0.3 {
		t.Errorf("expected niche 0.3, got %v", req.NicheFactor)
	}

	calls, _ := s.ListCalls(10)
	if len(calls) != 2 || calls[0].Kind != "get_recommendations" {
		t.Errorf("expected load and recommend to be recorded, got %+v", calls)
	}
}

func TestRunner_RecommendErrors(t *testing.T) {
	r, _ := newTestRunner(t, client.NewStubService())

	if _, err := r.Recommend(context.Background(), testID, []Pick{{ID: 1, Percent: 100}}, 0.5); err == nil {
		t.Error("expected error for a game outside the library")
	}
	if _, err := r.Recommend(context.Background(), testID, []Pick{{ID: 620, Percent: 100}}, 1.5); err == nil {
		t.Error("expected error for niche factor out of range")
	}
}

func TestRunner_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"profile is private"}`))
	}))
	defer server.Close()

	svc, err := client.NewHTTPClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	r, s := newTestRunner(t, svc)

	_, err = r.Library(context.Background(), testID, "", "")
	if err == nil || err.Error() != "profile is private" {
		t.Errorf("expected server message, got %v", err)
	}

	calls, _ := s.ListCalls(1)
	if len(calls) != 1 || calls[0].Outcome != "failed" || calls[0].Message != "profile is private" {
		t.Errorf("expected failed call to be recorded, got %+v", calls)
	}
}

// runIn executes the root command with HOME pointed at home and resets
// flag state afterwards.
func runIn(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvVarEnvironment, "")
	t.Setenv(config.EnvVarBaseURL, "")
	defer func() {
		verbose, ciMode, demoMode, interactive = false, false, false, false
		configPath, baseURL = "", ""
		libraryFilter, libraryGlob = "", ""
		recommendPicks, recommendNiche = nil, 0
		historyLimit, historySteamID = store.DefaultHistoryLimit, ""
		configInitForce = false
	}()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runIn(t, t.TempDir(), args...)
}

func TestCLI_Commands(t *testing.T) {
	want := []string{"tui", "library", "recommend", "history", "config"}
	for _, name := range want {
		found := false
		for _, cmd := range RootCmd.Commands() {
			if cmd.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestCLI_LibraryDemo(t *testing.T) {
	out, err := execute(t, "library", testID, "--demo", "--filter", "portal")
	if err != nil {
		t.Fatalf("library failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Portal 2") || !strings.Contains(out, "1 of 10 games") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCLI_LibraryDemoJSON(t *testing.T) {
	out, err := execute(t, "library", testID, "--demo", "--ci", "--filter", "portal")
	if err != nil {
		t.Fatalf("library failed: %v\n%s", err, out)
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("expected a JSON array, got:\n%s", out)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 game, got %d", len(items))
	}
	if items[0]["id"] != float64(620) || items[0]["name"] != "Portal 2" {
		t.Errorf("expected snake_case keys, got %v", items[0])
	}
	if _, ok := items[0]["ID"]; ok {
		t.Errorf("unexpected Go field name in output: %v", items[0])
	}
}

func TestCLI_RecommendDemoJSON(t *testing.T) {
	out, err := execute(t, "recommend", testID, "--demo", "--ci", "--pick", "620:120", "--niche", "0.4")
	if err != nil {
		t.Fatalf("recommend failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"short_description"`) {
		t.Errorf("expected JSON results, got:\n%s", out)
	}
}

func TestCLI_RecommendRequiresPick(t *testing.T) {
	if _, err := execute(t, "recommend", testID, "--demo"); err == nil {
		t.Error("expected error without --pick")
	}
}

func TestCLI_Config(t *testing.T) {
	home := t.TempDir()
	run := func(args ...string) (string, error) {
		return runIn(t, home, args...)
	}

	if out, err := run("config", "set", "niche_factor", "0.7"); err != nil || !strings.Contains(out, "Configuration saved") {
		t.Fatalf("config set failed: %v %s", err, out)
	}
	if out, _ := run("config", "get", "niche_factor"); strings.TrimSpace(out) != "0.7" {
		t.Errorf("expected 0.7, got %q", out)
	}
	if out, _ := run("config", "get", "language"); strings.TrimSpace(out) != "(not set)" {
		t.Errorf("expected (not set), got %q", out)
	}
	if _, err := run("config", "set", "niche_factor", "3"); err == nil {
		t.Error("expected out of range niche factor to be rejected")
	}
	if _, err := run("config", "set", "environment", "staging"); err == nil {
		t.Error("expected unknown environment to be rejected")
	}
	if _, err := run("config", "set", "colour", "blue"); err == nil {
		t.Error("expected unknown key to be rejected")
	}
	if out, _ := run("config", "list"); !strings.Contains(out, "niche_factor=0.7") {
		t.Errorf("expected stored value in list, got %q", out)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "custom", "config.yaml")

	out, err := runIn(t, home, "config", "init", "--config", path)
	if err != nil || !strings.Contains(out, "Config written to") {
		t.Fatalf("config init failed: %v %s", err, out)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NicheFactor != config.Default().NicheFactor || cfg.LocalURL != config.Default().LocalURL {
		t.Errorf("expected defaults on disk, got %+v", cfg)
	}

	if _, err := runIn(t, home, "config", "init", "--config", path); err == nil {
		t.Error("expected init to refuse an existing file")
	}
	if _, err := runIn(t, home, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("expected --force to overwrite: %v", err)
	}

	// The written file must load cleanly as the CLI's config.
	if out, err := runIn(t, home, "library", testID, "--demo", "--config", path); err != nil {
		t.Errorf("library with initialized config failed: %v\n%s", err, out)
	}
}

func TestCLI_History(t *testing.T) {
	home := t.TempDir()

	out, err := runIn(t, home, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No calls recorded yet.") {
		t.Errorf("expected empty history, got:\n%s", out)
	}

	if _, err := runIn(t, home, "library", testID, "--demo"); err != nil {
		t.Fatalf("library failed: %v", err)
	}

	out, err = runIn(t, home, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "load_catalog") || !strings.Contains(out, "succeeded") {
		t.Errorf("expected the load in history, got:\n%s", out)
	}
}
