package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/spiffcs/firstissue/config"
	"github.com/spiffcs/firstissue/internal/credential"
	"github.com/spiffcs/firstissue/internal/discovery"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/output"
)

// isolate points config and cache directories at a temp dir and moves the
// working directory there.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	t.Setenv("GITHUB_TOKEN", "")
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNew(t *testing.T) {
	cmd := New()
	if cmd.Use != "firstissue" {
		t.Errorf("expected Use to be 'firstissue', got %q", cmd.Use)
	}

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"search", "watch", "classify", "repos", "auth", "config", "cache", "ratelimit", "version"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}

	for _, flag := range []string{"language", "label", "sort", "then", "since", "limit", "output", "no-cache", "tui", "verbose"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
	}
}

func TestOptionsFilters(t *testing.T) {
	defaults := &config.Config{Sort: "updated", SecondarySort: "stars", Language: "go"}

	tests := []struct {
		name          string
		opts          *Options
		wantPrimary   model.SortKey
		wantSecondary model.SortKey
		wantLanguage  string
		wantHybrid    bool
		wantErr       bool
	}{
		{
			name:          "config defaults select the hybrid search",
			opts:          NewOptions(),
			wantPrimary:   model.SortUpdated,
			wantSecondary: model.SortStars,
			wantLanguage:  "go",
			wantHybrid:    true,
		},
		{
			name:          "explicit sort drops configured secondary",
			opts:          NewOptions(WithSort("created", "")),
			wantPrimary:   model.SortCreated,
			wantSecondary: model.SortNone,
			wantLanguage:  "go",
		},
		{
			name:          "secondary equal to primary is ignored",
			opts:          NewOptions(WithSort("comments", "comments")),
			wantPrimary:   model.SortComments,
			wantSecondary: model.SortNone,
			wantLanguage:  "go",
		},
		{
			name:          "flags override config",
			opts:          NewOptions(WithLanguage("rust"), WithSort("updated", "stars")),
			wantPrimary:   model.SortUpdated,
			wantSecondary: model.SortStars,
			wantLanguage:  "rust",
			wantHybrid:    true,
		},
		{
			name:    "invalid sort",
			opts:    NewOptions(WithSort("hot", "")),
			wantErr: true,
		},
		{
			name:    "invalid secondary",
			opts:    NewOptions(WithSort("updated", "hot")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.opts.filters(defaults)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Primary != tt.wantPrimary || f.Secondary != tt.wantSecondary {
				t.Errorf("sort = %q/%q, want %q/%q", f.Primary, f.Secondary, tt.wantPrimary, tt.wantSecondary)
			}
			if f.Language != tt.wantLanguage {
				t.Errorf("Language = %q, want %q", f.Language, tt.wantLanguage)
			}
			if got := discovery.IsHybrid(f); got != tt.wantHybrid {
				t.Errorf("IsHybrid = %v, want %v", got, tt.wantHybrid)
			}
		})
	}
}

func TestOptionsFormat(t *testing.T) {
	cfg := &config.Config{DefaultFormat: "markdown"}

	if f, err := NewOptions().format(cfg); err != nil || f != output.FormatMarkdown {
		t.Errorf("config format: got %q, %v", f, err)
	}
	if f, err := NewOptions(WithFormat("json")).format(cfg); err != nil || f != output.FormatJSON {
		t.Errorf("flag format: got %q, %v", f, err)
	}
	if _, err := NewOptions(WithFormat("csv")).format(cfg); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOptionsCacheDisabled(t *testing.T) {
	off := true
	tests := []struct {
		name string
		opts *Options
		cfg  *config.Config
		want bool
	}{
		{"enabled by default", NewOptions(), &config.Config{}, false},
		{"--no-cache", NewOptions(WithNoCache()), &config.Config{}, true},
		{"config disables", NewOptions(), &config.Config{CacheDisabled: &off}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.cacheDisabled(tt.cfg); got != tt.want {
				t.Errorf("cacheDisabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTUIFlag(t *testing.T) {
	opts := NewOptions()
	f := newTUIFlag(opts)
	if f.String() != "auto" {
		t.Errorf("default = %q, want auto", f.String())
	}

	tests := []struct {
		in   string
		want string
	}{
		{"true", "true"},
		{"no", "false"},
		{"auto", "auto"},
	}
	for _, tt := range tests {
		if err := f.Set(tt.in); err != nil {
			t.Fatalf("Set(%q): %v", tt.in, err)
		}
		if f.String() != tt.want {
			t.Errorf("Set(%q) -> %q, want %q", tt.in, f.String(), tt.want)
		}
	}
	if err := f.Set("maybe"); err == nil {
		t.Error("expected error for invalid value")
	}

	on := true
	verbose := NewOptions(WithTUI(&on))
	verbose.Verbosity = 1
	if shouldUseTUI(verbose) {
		t.Error("verbose output must disable the TUI")
	}
}

func TestSinceCutoff(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	cutoff, err := sinceCutoff("", now)
	if err != nil || !cutoff.IsZero() {
		t.Errorf("empty since = %v, %v", cutoff, err)
	}
	cutoff, err = sinceCutoff("1w", now)
	if err != nil || !cutoff.Equal(now.Add(-7*24*time.Hour)) {
		t.Errorf("1w = %v, %v", cutoff, err)
	}
	if _, err := sinceCutoff("soon", now); err == nil {
		t.Error("expected error for invalid window")
	}
}

func rawIssue(repo string, n int, updated time.Time) model.RawIssue {
	return model.RawIssue{
		Number:        n,
		Title:         "issue",
		RepositoryURL: "https://api.github.com/repos/" + repo,
		UpdatedAt:     updated,
	}
}

func TestFilterResult(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	cfg := &config.Config{ExcludeRepos: []string{"noisy/repo"}}

	single := discovery.Result{
		Strategy: discovery.StrategySingle,
		Issues: []model.RawIssue{
			rawIssue("a/b", 1, now),
			rawIssue("noisy/repo", 2, now),
			rawIssue("a/b", 3, now.Add(-30*24*time.Hour)),
			rawIssue("c/d", 4, now.Add(-time.Hour)),
		},
	}
	got := filterResult(single, resultFilter{cutoff: now.Add(-7 * 24 * time.Hour), cfg: cfg})
	if len(got.Issues) != 2 || got.Issues[0].Number != 1 || got.Issues[1].Number != 4 {
		t.Errorf("single-stage filter = %+v", got.Issues)
	}

	got = filterResult(single, resultFilter{cfg: cfg, limit: 1})
	if len(got.Issues) != 1 || got.Issues[0].Number != 1 {
		t.Errorf("limit not applied: %+v", got.Issues)
	}

	hybrid := discovery.Result{
		Strategy: discovery.StrategyHybrid,
		Scored: []model.ScoredIssue{
			{Issue: rawIssue("noisy/repo", 1, now), Score: 9},
			{Issue: rawIssue("a/b", 2, now), Score: 8},
			{Issue: rawIssue("a/b", 3, now.Add(-30*24*time.Hour)), Score: 7},
		},
	}
	got = filterResult(hybrid, resultFilter{cutoff: now.Add(-24 * time.Hour), cfg: cfg})
	if len(got.Scored) != 1 || got.Scored[0].Issue.Number != 2 {
		t.Errorf("hybrid filter = %+v", got.Scored)
	}
	if len(hybrid.Scored) != 3 {
		t.Error("filterResult must not modify its input")
	}
}

func TestWatchCategories(t *testing.T) {
	got, err := watchCategories([]string{"bug"}, []string{"documentation"})
	if err != nil || !slices.Equal(got, []model.Category{model.CategoryBug}) {
		t.Errorf("flag categories = %v, %v", got, err)
	}
	got, err = watchCategories(nil, []string{"documentation"})
	if err != nil || !slices.Equal(got, []model.Category{model.CategoryDocumentation}) {
		t.Errorf("config categories = %v, %v", got, err)
	}
	got, err = watchCategories(nil, nil)
	if err != nil || got != nil {
		t.Errorf("no categories should mean all, got %v, %v", got, err)
	}
	if _, err := watchCategories([]string{"nope"}, nil); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestClassifyCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "classify", "--title", "Fix typo in README", "--label", "documentation")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "documentation") || !strings.Contains(out, "beginner") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "classify", "--label", "good first issue", "--json")
	if err != nil {
		t.Fatalf("classify --json: %v", err)
	}
	if !strings.Contains(out, `"category": "good-first-issue"`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}

	if _, err := execute(t, "classify"); err == nil {
		t.Error("expected error without title or labels")
	}
}

func TestReposAddRemove(t *testing.T) {
	isolate(t)

	out, err := execute(t, "repos", "add", "https://github.com/owner/name", "not a repo", "owner/name")
	if err != nil {
		t.Fatalf("repos add: %v", err)
	}
	for _, want := range []string{"Monitoring owner/name", `Skipping "not a repo"`, "already monitored"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cfg.MonitoredRepos, []string{"owner/name"}) {
		t.Fatalf("MonitoredRepos = %v", cfg.MonitoredRepos)
	}

	out, err = execute(t, "repos", "list")
	if err != nil || !strings.Contains(out, "owner/name") {
		t.Errorf("repos list = %q, %v", out, err)
	}

	if _, err := execute(t, "repos", "remove", "owner/name"); err != nil {
		t.Fatalf("repos remove: %v", err)
	}
	cfg, _ = config.LoadGlobal()
	if len(cfg.MonitoredRepos) != 0 {
		t.Errorf("MonitoredRepos after remove = %v", cfg.MonitoredRepos)
	}
}

func TestReposAddCurrentCheckout(t *testing.T) {
	dir := isolate(t)

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:octo/project.git"},
	}); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "repos", "add", ".")
	if err != nil {
		t.Fatalf("repos add .: %v", err)
	}
	if !strings.Contains(out, "Monitoring octo/project") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWatchWithoutRepositories(t *testing.T) {
	isolate(t)

	out, err := execute(t, "watch", "--tui=false")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "No repositories monitored") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(*config.Config) bool
	}{
		{"format", "markdown", false, func(c *config.Config) bool { return c.DefaultFormat == "markdown" }},
		{"format", "xml", true, nil},
		{"language", "go", false, func(c *config.Config) bool { return c.Language == "go" }},
		{"sort", "Created", false, func(c *config.Config) bool { return c.Sort == "created" }},
		{"then", "", false, func(c *config.Config) bool { return c.SecondarySort == "" }},
		{"sort", "hot", true, nil},
		{"cache", "off", false, func(c *config.Config) bool { return c.IsCacheDisabled() }},
		{"cache", "sometimes", true, nil},
		{"token", "abc", true, nil},
		{"unknown", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := &config.Config{}
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("value not applied: %+v", cfg)
			}
		})
	}
}

func TestConfigPathCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, ".firstissue.yaml") || !strings.Contains(out, "not found") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "firstissue 1.2.3") || !strings.Contains(out, "abc123") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	const key = "FIRSTISSUE_TEST_ENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := loadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := loadEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q", key, got)
	}
}

func TestReadTokenFromPipe(t *testing.T) {
	var prompt bytes.Buffer
	got, err := readToken(strings.NewReader("ghp_secret\n"), &prompt)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != "ghp_secret" {
		t.Errorf("token = %q", got)
	}
	if prompt.Len() != 0 {
		t.Error("non-terminal input should not print a prompt")
	}
}

func TestLoginStoresOnlyAcceptedTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "token ghp_good" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}
		fmt.Fprint(w, `{"login":"octocat"}`)
	}))
	defer srv.Close()

	store := credential.NewFileStoreAt(filepath.Join(t.TempDir(), "credentials.json"))
	creds := credential.NewCache(store)
	ctx := context.Background()

	user, err := login(ctx, creds, "ghp_good", ghclient.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("login with a valid token: %v", err)
	}
	if user != "octocat" {
		t.Errorf("user = %q, want octocat", user)
	}

	if _, err := login(ctx, creds, "ghp_bad", ghclient.WithBaseURL(srv.URL)); err == nil {
		t.Fatal("expected a rejected token to fail")
	}
	stored, err := store.Get()
	if err != nil {
		t.Fatal(err)
	}
	if stored != "ghp_good" {
		t.Errorf("stored token = %q, a rejected login must keep the previous token", stored)
	}
	if creds.Token() != "ghp_good" {
		t.Errorf("cached token = %q", creds.Token())
	}
}
