package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
	Now    func() time.Time
}

// JSONOutput wraps the entries with a summary.
type JSONOutput struct {
	Items   []Entry `json:"items"`
	Summary Summary `json:"summary"`
}

// Format outputs entries and their summary as a single JSON document.
func (f *JSONFormatter) Format(entries []Entry, w io.Writer) error {
	if entries == nil {
		entries = []Entry{}
	}
	out := JSONOutput{
		Items:   entries,
		Summary: Summarize(entries, nowOr(f.Now)),
	}

	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(out)
}
