package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the search progress display.
type Model struct {
	tasks          []Task
	spinner        spinner.Model
	progress       progress.Model
	events         <-chan Event
	done           bool
	username       string
	rateLimited    bool
	rateLimitReset time.Time
	now            func() time.Time
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// SearchTasks is the task list of a two-stage search. The single-stage
// search task stays pending unless the two-stage search falls back.
func SearchTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskCandidates, "Finding popular repositories"),
		NewTask(TaskScopedIssues, "Searching their issues"),
		NewTask(TaskIssues, "Searching issues"),
		NewTask(TaskRank, "Ranking results"),
	}
}

// SingleStageTasks is the task list of a plain issue search.
func SingleStageTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskIssues, "Searching issues"),
		NewTask(TaskRank, "Ranking results"),
	}
}

// NewModel creates a new progress model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(25),
		progress.WithoutPercentage(),
	)

	m := Model{
		tasks:    SingleStageTasks(),
		spinner:  s,
		progress: p,
		events:   events,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.tasks {
		t := &m.tasks[i]
		if t.ID != e.Task {
			continue
		}
		t.Status = e.Status
		if e.Message != "" {
			t.Message = e.Message
		}
		if e.Count > 0 {
			t.Count = e.Count
		}
		if e.Progress > 0 {
			t.Progress = e.Progress
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Error != nil {
			t.Error = e.Error
		}
		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		break
	}
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	for _, task := range m.tasks {
		if task.ID == TaskAuth && task.Status == StatusComplete {
			if m.username != "" {
				fmt.Fprintf(&b, "  %s Authenticated as %s\n", iconComplete, userStyle.Render(m.username))
			} else {
				fmt.Fprintf(&b, "  %s Anonymous access\n", iconComplete)
			}
			continue
		}
		b.WriteString(task.View(m.spinner.View(), m.progress))
		b.WriteString("\n")
	}

	if m.rateLimited {
		if d := m.rateLimitReset.Sub(m.now()).Round(time.Second); d > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("\n  Rate limited - using cached data (resets in %s)\n", d)))
		}
	}

	if !m.done {
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
