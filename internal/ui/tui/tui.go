package tui

import tea "github.com/charmbracelet/bubbletea"

// TUI forwards status and log lines into a running program. Sends happen on
// their own goroutine because writers may be running inside Update, where a
// blocking Send would stall the event loop.
type TUI struct {
	program *tea.Program
}

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

func (t *TUI) UpdateStatus(status string) {
	go t.program.Send(StatusMsg(status))
}

func (t *TUI) Log(msg string) {
	go t.program.Send(LogMsg(msg))
}

type LogMsg string
type StatusMsg string
