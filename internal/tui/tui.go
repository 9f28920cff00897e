// Package tui renders the interactive terminal views: the search progress
// display and the live watch list.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/firstissue/internal/discovery"
)

// Run starts the progress display and blocks until the event channel closes
// or a DoneEvent arrives.
func Run(events <-chan Event, opts ...ModelOption) error {
	// Inline rendering so the results print below the progress lines.
	p := tea.NewProgram(NewModel(events, opts...))
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// drop when the display is behind
	}
}

// SendTaskEvent is a convenience function for sending task events.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{Task: task, Status: status}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

// TaskEventOption is a functional option for TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message on a TaskEvent.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) {
		e.Message = msg
	}
}

// WithCount sets the count on a TaskEvent.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Count = count
	}
}

// WithProgress sets the progress on a TaskEvent.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) {
		e.Progress = progress
	}
}

// WithError sets the error on a TaskEvent.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) {
		e.Error = err
	}
}

// StageObserver forwards discovery stages to the progress display.
type StageObserver struct {
	events chan<- Event
}

// NewStageObserver creates an observer that sends to events.
func NewStageObserver(events chan<- Event) *StageObserver {
	return &StageObserver{events: events}
}

// StageStarted implements discovery.Observer.
func (o *StageObserver) StageStarted(stage discovery.Stage) {
	if id, ok := stageTask(stage); ok {
		SendTaskEvent(o.events, id, StatusRunning)
	}
}

// StageFinished implements discovery.Observer. A failed two-stage step is
// shown as skipped because the search falls back rather than failing.
func (o *StageObserver) StageFinished(stage discovery.Stage, err error) {
	id, ok := stageTask(stage)
	if !ok {
		return
	}
	switch {
	case err == nil:
		SendTaskEvent(o.events, id, StatusComplete)
	case stage == discovery.StageCandidates || stage == discovery.StageScopedIssues:
		SendTaskEvent(o.events, id, StatusSkipped, WithMessage("falling back"))
	default:
		SendTaskEvent(o.events, id, StatusError, WithError(err))
	}
}

func stageTask(stage discovery.Stage) (TaskID, bool) {
	switch stage {
	case discovery.StageCandidates:
		return TaskCandidates, true
	case discovery.StageScopedIssues:
		return TaskScopedIssues, true
	case discovery.StageIssues:
		return TaskIssues, true
	case discovery.StageRepositories:
		return TaskRepositories, true
	default:
		return 0, false
	}
}

var _ discovery.Observer = (*StageObserver)(nil)
