package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/firstissue/internal/discovery"
	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/model"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func init() {
	color.NoColor = true
}

func sampleEntry(number int, title string) Entry {
	return Entry{Issue: model.ClassifiedIssue{
		RawIssue: model.RawIssue{
			Number:    number,
			Title:     title,
			HTMLURL:   "https://github.com/owner/repo/issues/1",
			UpdatedAt: fixedNow.Add(-3 * time.Hour),
			Labels:    []model.Label{{Name: "good first issue"}},
		},
		Repository: "owner/repo",
		Category:   model.CategoryGoodFirstIssue,
		Priority:   model.PriorityLow,
		Difficulty: model.DifficultyBeginner,
	}}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" markdown ", FormatMarkdown, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableFormat(t *testing.T) {
	long := strings.Repeat("very long title ", 10)
	entries := []Entry{sampleEntry(42, "Fix typo in README"), sampleEntry(7, long)}

	var buf bytes.Buffer
	if err := (&TableFormatter{Now: clock}).Format(entries, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Repository", "owner/repo", "#42", "Fix typo in README", "easy", "3h", "2 issues, 2 unassigned"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Score") {
		t.Error("unscored results must not show a score column")
	}
	if strings.Contains(out, "\x1b]8;;") {
		t.Error("links disabled but hyperlink escape present")
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "#7") && !strings.Contains(line, "…") {
			t.Errorf("long title was not truncated: %q", line)
		}
	}
}

func TestTableScoredColumn(t *testing.T) {
	e := sampleEntry(1, "Add tests")
	e.Scored, e.Score, e.Stars = true, 79.44, 100000

	var buf bytes.Buffer
	if err := (&TableFormatter{Now: clock, Links: true}).Format([]Entry{e}, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Score") || !strings.Contains(out, "79.4") {
		t.Errorf("expected score column:\n%s", out)
	}
	if !strings.Contains(out, "\x1b]8;;https://github.com/owner/repo/issues/1") {
		t.Error("expected hyperlinked title")
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "No issues found.\n" {
		t.Errorf("got %q", got)
	}
}

func TestTableRowsAlign(t *testing.T) {
	a := sampleEntry(1, "short")
	b := sampleEntry(12345, "日本語のタイトル")
	b.Issue.Assignee = "someone"

	var buf bytes.Buffer
	if err := (&TableFormatter{Now: clock}).Format([]Entry{a, b}, &buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	// the age column starts at the same visible offset on every row
	var offsets []int
	for _, l := range lines[2:4] {
		idx := strings.LastIndex(l, "3h")
		offsets = append(offsets, format.DisplayWidth(l[:idx]))
	}
	if offsets[0] != offsets[1] {
		t.Errorf("misaligned rows: %v\n%s", offsets, buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{Now: clock}).Format([]Entry{sampleEntry(1, "a")}, &buf); err != nil {
		t.Fatal(err)
	}
	var got JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Issue.Repository != "owner/repo" {
		t.Errorf("unexpected items: %+v", got.Items)
	}
	if got.Summary.Total != 1 || got.Summary.ByCategory[model.CategoryGoodFirstIssue] != 1 {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
}

func TestJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"items":[]`) {
		t.Errorf("expected empty array, got %s", buf.String())
	}
}

func TestMarkdownFormat(t *testing.T) {
	doc := sampleEntry(2, "Document the *config* file")
	doc.Issue.Category = model.CategoryDocumentation

	var buf bytes.Buffer
	if err := (&MarkdownFormatter{Now: clock}).Format([]Entry{doc, sampleEntry(1, "first")}, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	gfi := strings.Index(out, "good-first-issue (1)")
	docs := strings.Index(out, "documentation (1)")
	if gfi < 0 || docs < 0 || gfi > docs {
		t.Errorf("categories missing or out of order:\n%s", out)
	}
	if !strings.Contains(out, `Document the \*config\* file`) {
		t.Error("title not escaped")
	}
	if !strings.Contains(out, "`good first issue`") {
		t.Error("labels not rendered")
	}
}

func TestFromDiscovery(t *testing.T) {
	issue := model.RawIssue{
		Number:        3,
		Title:         "Update docs",
		RepositoryURL: "https://api.github.com/repos/a/b",
		Labels:        []model.Label{{Name: "documentation"}},
	}

	hybrid := FromDiscovery(discovery.Result{
		Strategy: discovery.StrategyHybrid,
		Scored:   []model.ScoredIssue{{Issue: issue, Repository: model.RepositoryRef{FullName: "a/b", Stars: 900}, Score: 71.5}},
	})
	if len(hybrid) != 1 || !hybrid[0].Scored || hybrid[0].Stars != 900 {
		t.Fatalf("unexpected hybrid entries: %+v", hybrid)
	}
	if hybrid[0].Issue.Category != model.CategoryDocumentation || hybrid[0].Issue.Repository != "a/b" {
		t.Errorf("entry not classified: %+v", hybrid[0].Issue)
	}

	single := FromDiscovery(discovery.Result{Strategy: discovery.StrategyFallback, Issues: []model.RawIssue{issue}})
	if len(single) != 1 || single[0].Scored {
		t.Fatalf("unexpected fallback entries: %+v", single)
	}
}
