package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/githydra/internal/engine"
	domain "github.com/zjrosen/githydra/internal/git/domain"
)

// handleKey maps normal-mode keys onto engine actions. A keypress always
// reaches Dispatch at least to clear a lingering error banner.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.eng.Session()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "1":
		m.dispatch(engine.SwitchView{View: engine.ViewStatus})
	case "2":
		m.dispatch(engine.SwitchView{View: engine.ViewLog})
	case "3":
		m.dispatch(engine.SwitchView{View: engine.ViewBranches})
	case "4":
		m.dispatch(engine.SwitchView{View: engine.ViewRemote})
	case "5":
		m.dispatch(engine.SwitchView{View: engine.ViewStash})

	case "j", "down":
		m.dispatch(engine.MoveSelection{Delta: 1})
		return m, m.reloadDiff()
	case "k", "up":
		m.dispatch(engine.MoveSelection{Delta: -1})
		return m, m.reloadDiff()

	case "ctrl+d":
		m.diff.HalfViewDown()
		return m, nil
	case "ctrl+u":
		m.diff.HalfViewUp()
		return m, nil

	case " ":
		if f, ok := session.SelectedFile(); ok && session.View() == engine.ViewStatus {
			if f.Kind == domain.StatusStaged {
				m.dispatch(engine.UnstageSelected{})
			} else {
				m.dispatch(engine.StageSelected{})
			}
		}

	case "c":
		m.openPrompt(promptCommit, "Commit message")
	case "n":
		m.openPrompt(promptBranch, "New branch name")
	case "s":
		m.openPrompt(promptStash, "Stash message (optional)")

	case "enter":
		if session.View() == engine.ViewBranches {
			m.dispatch(engine.Checkout{})
		}
	case "d":
		if session.View() == engine.ViewBranches {
			m.dispatch(engine.DeleteBranch{})
		}
	case "D":
		if session.View() == engine.ViewBranches {
			m.dispatch(engine.DeleteBranch{Force: true})
		}

	case "p":
		if session.View() == engine.ViewStash {
			m.dispatch(engine.StashPop{Index: -1})
		}
	case "x":
		if session.View() == engine.ViewStash {
			m.dispatch(engine.StashDrop{Index: -1})
		}

	case "P":
		m.dispatch(engine.Push{})
	case "L":
		m.dispatch(engine.Pull{})
	case "C":
		m.dispatch(engine.CancelPending{})
	case "r":
		m.dispatch(engine.Refresh{})

	default:
		// Unmapped keys still clear the banner.
		session.ClearBannerOnInput()
	}

	return m, nil
}
