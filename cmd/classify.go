package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/internal/classify"
	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/model"
)

type classifyOptions struct {
	title  string
	labels []string
	asJSON bool
}

// NewCmdClassify creates the classify command.
func NewCmdClassify() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show how an issue would be classified",
		Long: `Derives category, priority and difficulty from an issue title and its
labels without calling GitHub.

Example:
  firstissue classify --title "Fix typo in README" --label documentation`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Issue title")
	cmd.Flags().StringArrayVarP(&opts.labels, "label", "l", nil, "Issue label (repeatable)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions) error {
	if strings.TrimSpace(opts.title) == "" && len(opts.labels) == 0 {
		return fmt.Errorf("provide --title and/or --label")
	}

	issue := model.RawIssue{Title: opts.title}
	for _, l := range opts.labels {
		issue.Labels = append(issue.Labels, model.Label{Name: l})
	}
	res := classify.Classify(issue)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "Category:   %s %s\n", format.CategoryIcon(res.Category), res.Category)
	fmt.Fprintf(out, "Priority:   %s\n", res.Priority)
	fmt.Fprintf(out, "Difficulty: %s\n", res.Difficulty)
	return nil
}
