// Package ui implements the terminal interface on top of the engine.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/githydra/internal/config"
	"github.com/zjrosen/githydra/internal/engine"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/log"
	"github.com/zjrosen/githydra/internal/pubsub"
	"github.com/zjrosen/githydra/internal/ui/styles"
)

// promptKind says what the text input at the bottom is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptCommit
	promptBranch
	promptStash
)

// Model is the bubbletea root model. All engine interaction happens in
// Update; commands only touch the engine through goroutine-safe methods.
type Model struct {
	eng    *engine.Engine
	events <-chan pubsub.Event[engine.Event]
	cfg    config.Config

	width  int
	height int
	ready  bool

	diff      viewport.Model
	diffKey   engine.DiffKey
	diffHunks []domain.DiffHunk
	diffErr   error
	hasDiff   bool
	input     textinput.Model
	prompt    promptKind
	spin      spinner.Model
	quitting  bool
}

// New builds the root model around a started engine.
func New(cfg config.Config, eng *engine.Engine, events <-chan pubsub.Event[engine.Event]) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = styles.MarkerStyle

	return Model{
		eng:    eng,
		events: events,
		cfg:    cfg,
		input:  ti,
		spin:   sp,
	}
}

// Init starts listening for engine events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent()}
	if m.cfg.UI.ShowSpinner {
		cmds = append(cmds, m.spin.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.diff = viewport.New(m.diffPaneWidth()-2, m.mainHeight()-2)
			m.ready = true
			return m, m.reloadDiff()
		}
		// Resize in place so the scroll position survives; rewrap the
		// loaded diff to the new width.
		m.diff.Width = m.diffPaneWidth() - 2
		m.diff.Height = m.mainHeight() - 2
		if m.hasDiff {
			m.diff.SetContent(renderDiff(m.diffHunks, m.diff.Width))
		}
		return m, m.reloadDiff()

	case engineEventMsg:
		m.eng.Apply(msg.event)
		cmds := []tea.Cmd{m.waitForEvent()}
		if _, isRefresh := msg.event.(engine.SectionRefreshed); isRefresh {
			if cmd := m.reloadDiff(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		return m, tea.Quit

	case diffLoadedMsg:
		if key, ok := m.eng.SelectedDiffKey(); !ok || key != msg.key {
			return m, nil // selection moved on while loading
		}
		m.diffKey = msg.key
		m.diffHunks = msg.hunks
		m.diffErr = msg.err
		m.hasDiff = msg.err == nil
		if msg.err == nil {
			m.diff.SetContent(renderDiff(msg.hunks, m.diff.Width))
			m.diff.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// waitForEvent blocks on the engine's event stream.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return engineEventMsg{event: ev.Payload}
	}
}

// reloadDiff requests the diff of the current selection when the status
// view shows it and the cached content key changed.
func (m Model) reloadDiff() tea.Cmd {
	if !m.ready || m.eng.Session().View() != engine.ViewStatus {
		return nil
	}
	key, ok := m.eng.SelectedDiffKey()
	if !ok {
		return nil
	}
	if m.hasDiff && key == m.diffKey {
		return nil
	}
	eng := m.eng
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hunks, err := eng.Diff(ctx, key)
		return diffLoadedMsg{key: key, hunks: hunks, err: err}
	}
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.prompt = promptNone
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case "enter":
		value := m.input.Value()
		prompt := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		m.input.SetValue("")
		return m, m.submitPrompt(prompt, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(prompt promptKind, value string) tea.Cmd {
	var action engine.Action
	switch prompt {
	case promptCommit:
		if value == "" {
			return nil
		}
		action = engine.Commit{Message: value}
	case promptBranch:
		if value == "" {
			return nil
		}
		action = engine.CreateBranch{Name: value}
	case promptStash:
		action = engine.StashSave{Message: value}
	default:
		return nil
	}
	m.dispatch(action)
	return nil
}

func (m *Model) openPrompt(kind promptKind, placeholder string) {
	m.prompt = kind
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) dispatch(action engine.Action) {
	if err := m.eng.Dispatch(action); err != nil {
		log.Warn(log.CatUI, "dispatch failed", "err", err)
	}
}

func (m Model) diffPaneWidth() int {
	return m.width / 2
}

func (m Model) listPaneWidth() int {
	if m.eng.Session().View() == engine.ViewStatus {
		return m.width - m.diffPaneWidth()
	}
	return m.width
}

// mainHeight is the pane area between the header rows and the footer.
func (m Model) mainHeight() int {
	return max(m.height-3, 3)
}
