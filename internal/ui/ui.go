// Package ui defines the sink the core reports to. Implementations render;
// they never hold state the core depends on.
package ui

type UI interface {
	UpdateStatus(status string)
	Log(msg string)
}

type SilentUI struct{}

func (s SilentUI) UpdateStatus(status string) {}
func (s SilentUI) Log(msg string)             {}
