package tui

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/spiffcs/firstissue/internal/aggregate"
	"github.com/spiffcs/firstissue/internal/model"
)

// Refresher triggers an immediate aggregation cycle.
type Refresher interface {
	Refresh()
}

// DismissStore records and filters dismissed issues.
type DismissStore interface {
	Dismiss(key string, updatedAt time.Time) error
	Restore(key string) error
	ShouldShow(key string, updatedAt time.Time) bool
}

// ResultMsg delivers a completed aggregation cycle to the watch list.
type ResultMsg struct {
	Result aggregate.Result
}

// ProgressMsg reports batch progress of the running cycle.
type ProgressMsg struct {
	Done  int
	Total int
}

// WatchModel is the Bubble Tea model for the live issue list of the
// monitored repositories.
type WatchModel struct {
	all     []model.ClassifiedIssue
	visible []model.ClassifiedIssue
	cursor  int

	refresher Refresher
	store     DismissStore
	open      func(url string) error
	now       func() time.Time

	progress     progress.Model
	batchDone    int
	batchTotal   int
	refreshing   bool
	refreshedAt  time.Time
	repositories int
	failed       []string

	dismissed    []model.ClassifiedIssue // undo stack, most recent last
	beginnerOnly bool
	windowWidth  int
	windowHeight int
	statusMsg    string
	quitting     bool
}

// WatchOption configures a WatchModel.
type WatchOption func(*WatchModel)

// WithOpener replaces the browser launcher.
func WithOpener(open func(url string) error) WatchOption {
	return func(m *WatchModel) {
		m.open = open
	}
}

// WithWatchClock overrides the time source used for ages.
func WithWatchClock(now func() time.Time) WatchOption {
	return func(m *WatchModel) {
		m.now = now
	}
}

// NewWatchModel creates an empty watch list waiting for its first result.
func NewWatchModel(refresher Refresher, store DismissStore, opts ...WatchOption) WatchModel {
	m := WatchModel{
		refresher:    refresher,
		store:        store,
		open:         browser.OpenURL,
		now:          time.Now,
		refreshing:   true,
		windowWidth:  100,
		windowHeight: 30,
		progress: progress.New(
			progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewWatchProgram wraps m in a full-screen program. Callers feed it
// ResultMsg and ProgressMsg values with Program.Send.
func NewWatchProgram(m WatchModel) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case ResultMsg:
		m.applyResult(msg.Result)
		return m, nil

	case ProgressMsg:
		m.batchDone, m.batchTotal = msg.Done, msg.Total
		m.refreshing = msg.Done < msg.Total
		if msg.Total == 0 {
			return m, nil
		}
		return m, m.progress.SetPercent(float64(msg.Done) / float64(msg.Total))

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case openFailedMsg:
		m.statusMsg = "Could not open browser: " + msg.err.Error()
		return m, clearStatusAfter(3 * time.Second)

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
		}

	case "b":
		m.beginnerOnly = !m.beginnerOnly
		m.applyFilter("")
		if m.beginnerOnly {
			m.statusMsg = "Showing beginner issues only"
		} else {
			m.statusMsg = "Showing all difficulties"
		}
		return m, clearStatusAfter(2 * time.Second)

	case "r":
		if m.refresher == nil {
			return m, nil
		}
		m.refreshing = true
		m.statusMsg = "Refreshing..."
		r := m.refresher
		return m, tea.Batch(func() tea.Msg { r.Refresh(); return nil }, clearStatusAfter(2*time.Second))

	case "x", "d":
		return m.dismiss()
	case "u":
		return m.undoDismiss()

	case "o", "enter":
		return m.openSelected()
	}
	return m, nil
}

// applyResult replaces the list, keeping the cursor on the same issue when
// it is still present.
func (m *WatchModel) applyResult(res aggregate.Result) {
	selected := ""
	if m.cursor < len(m.visible) {
		selected = m.visible[m.cursor].Key()
	}

	m.all = res.Issues
	if m.store != nil {
		m.all = aggregate.FilterDismissed(res.Issues, m.store)
	}
	m.refreshing = false
	m.refreshedAt = res.RefreshedAt
	m.repositories = res.Repositories
	m.failed = res.Failed
	m.applyFilter(selected)
}

func (m *WatchModel) applyFilter(selected string) {
	if selected == "" && m.cursor < len(m.visible) {
		selected = m.visible[m.cursor].Key()
	}

	m.visible = m.visible[:0:0]
	for _, i := range m.all {
		if m.beginnerOnly && i.Difficulty != model.DifficultyBeginner {
			continue
		}
		m.visible = append(m.visible, i)
	}

	m.cursor = 0
	for idx, i := range m.visible {
		if i.Key() == selected {
			m.cursor = idx
			break
		}
	}
}

func (m WatchModel) dismiss() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	issue := m.visible[m.cursor]
	if m.store != nil {
		if err := m.store.Dismiss(issue.Key(), issue.UpdatedAt); err != nil {
			m.statusMsg = "Error: " + err.Error()
			return m, clearStatusAfter(2 * time.Second)
		}
	}

	key := issue.Key()
	kept := make([]model.ClassifiedIssue, 0, len(m.all))
	for _, i := range m.all {
		if i.Key() != key {
			kept = append(kept, i)
		}
	}
	m.all = kept
	m.dismissed = append(m.dismissed, issue)

	next := ""
	if m.cursor+1 < len(m.visible) {
		next = m.visible[m.cursor+1].Key()
	} else if m.cursor > 0 {
		next = m.visible[m.cursor-1].Key()
	}
	m.applyFilter(next)

	m.statusMsg = fmt.Sprintf("Dismissed %s", key)
	return m, clearStatusAfter(2 * time.Second)
}

// undoDismiss restores the most recently dismissed issue.
func (m WatchModel) undoDismiss() (tea.Model, tea.Cmd) {
	if len(m.dismissed) == 0 {
		return m, nil
	}
	issue := m.dismissed[len(m.dismissed)-1]
	key := issue.Key()
	if m.store != nil {
		if err := m.store.Restore(key); err != nil {
			m.statusMsg = "Error: " + err.Error()
			return m, clearStatusAfter(2 * time.Second)
		}
	}
	m.dismissed = m.dismissed[:len(m.dismissed)-1]

	// keep the list ordered by last update, newest first
	idx := len(m.all)
	for i, existing := range m.all {
		if existing.Key() == key {
			idx = -1
			break
		}
		if idx == len(m.all) && existing.UpdatedAt.Before(issue.UpdatedAt) {
			idx = i
		}
	}
	if idx >= 0 {
		m.all = slices.Insert(slices.Clone(m.all), idx, issue)
	}
	m.applyFilter(key)

	m.statusMsg = fmt.Sprintf("Restored %s", key)
	return m, clearStatusAfter(2 * time.Second)
}

func (m WatchModel) openSelected() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	url := m.visible[m.cursor].HTMLURL
	if url == "" {
		m.statusMsg = "No URL available"
		return m, clearStatusAfter(2 * time.Second)
	}
	open := m.open
	return m, func() tea.Msg {
		if err := open(url); err != nil {
			return openFailedMsg{err: err}
		}
		return nil
	}
}

// Selected returns the issue under the cursor.
func (m WatchModel) Selected() (model.ClassifiedIssue, bool) {
	if m.cursor >= len(m.visible) {
		return model.ClassifiedIssue{}, false
	}
	return m.visible[m.cursor], true
}

// View implements tea.Model
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	return renderWatchView(m)
}

type openFailedMsg struct{ err error }

// clearStatusMsg is a message to clear the status
type clearStatusMsg struct{}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
