package tui

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/steamrec/internal/catalog"
	"github.com/felixgeelhaar/steamrec/internal/orchestrate"
	"github.com/felixgeelhaar/steamrec/internal/selection"
	"github.com/felixgeelhaar/steamrec/internal/status"
)

const (
	strengthStep = 10
	nicheStep    = 0.05
	maxLogLines  = 200
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

type focus int

const (
	focusSteamID focus = iota
	focusSearch
	focusList
)

// outcomeMsg carries a finished call back onto the event loop.
type outcomeMsg orchestrate.Outcome

// Model projects orchestrator state. All session mutations happen inside
// Update; network calls run as commands and come back as outcomeMsg.
type Model struct {
	orch *orchestrate.Orchestrator
	ctx  context.Context

	steamInput  textinput.Model
	searchInput textinput.Model
	spinner     spinner.Model
	bar         progress.Model
	logView     viewport.Model

	focus  focus
	cursor int
	niche  float64
	log    []string

	Quitting bool
	Ready    bool
	Width    int
	Height   int
}

func NewModel(ctx context.Context, orch *orchestrate.Orchestrator, niche float64) Model {
	steam := textinput.New()
	steam.Placeholder = "17-digit Steam ID"
	steam.CharLimit = 32
	steam.Width = 24
	steam.Prompt = "Steam ID: "
	steam.Focus()

	search := textinput.New()
	search.Placeholder = "filter games"
	search.CharLimit = 64
	search.Width = 30
	search.Prompt = "Search: "

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		orch:        orch,
		ctx:         ctx,
		steamInput:  steam,
		searchInput: search,
		spinner:     s,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		logView:     viewport.New(80, 5),
		niche:       orch.Guard().ClampNiche(niche),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Niche is the niche factor the next recommendation request will carry.
func (m Model) Niche() float64 {
	return m.niche
}

// Cursor is the index of the highlighted row among the visible games.
func (m Model) Cursor() int {
	return m.cursor
}

// Visible returns the games that match the current search text.
func (m Model) Visible() []catalog.Item {
	return slices.Collect(m.orch.Session().Catalog().Filter(m.searchInput.Value()))
}

func (m Model) current() (catalog.Item, bool) {
	visible := m.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return catalog.Item{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.steamInput.Blur()
	m.searchInput.Blur()
	switch f {
	case focusSteamID:
		m.steamInput.Focus()
	case focusSearch:
		m.searchInput.Focus()
	}
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.logView.SetContent(strings.Join(m.log, "\n"))
	m.logView.GotoBottom()
}

func (m Model) run(call *orchestrate.Call) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return outcomeMsg(call.Run(ctx))
	}
}

func (m Model) loadCatalog() tea.Cmd {
	call, err := m.orch.BeginLoadCatalog(strings.TrimSpace(m.steamInput.Value()))
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.run(call))
}

func (m Model) recommend() tea.Cmd {
	call, err := m.orch.BeginRecommend(m.niche)
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.run(call))
}

func (m Model) busy() bool {
	return m.orch.Busy(orchestrate.LoadCatalog) || m.orch.Busy(orchestrate.GetRecommendations)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.logView.Width = msg.Width
		m.bar.Width = min(40, max(10, msg.Width/3))

	case outcomeMsg:
		out := orchestrate.Outcome(msg)
		if m.orch.Apply(out) && out.Kind == orchestrate.LoadCatalog {
			m.cursor = 0
			if out.Err == nil {
				m.setFocus(focusList)
			}
		}

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LogMsg:
		m.appendLog(string(msg))

	case StatusMsg:
		m.appendLog(mutedStyle.Render(string(msg)))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	case "ctrl+l":
		return m, m.loadCatalog()
	case "ctrl+r":
		return m, m.recommend()
	}

	switch m.focus {
	case focusSteamID:
		if msg.Type == tea.KeyEnter {
			return m, m.loadCatalog()
		}
		var cmd tea.Cmd
		m.steamInput, cmd = m.steamInput.Update(msg)
		return m, cmd

	case focusSearch:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyDown {
			m.setFocus(focusList)
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.cursor = min(m.cursor, max(0, len(m.Visible())-1))
		return m, cmd
	}

	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.orch.Session().Selection()

	switch msg.String() {
	case "q":
		m.Quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.Visible())-1 {
			m.cursor++
		}
	case "/":
		m.setFocus(focusSearch)
	case " ", "space":
		if item, ok := m.current(); ok {
			sel.Toggle(item.ID, item.Name)
		}
	case "left", "h":
		if item, ok := m.current(); ok {
			sel.AdjustStrength(item.ID, -strengthStep)
		}
	case "right", "l":
		if item, ok := m.current(); ok {
			sel.AdjustStrength(item.ID, strengthStep)
		}
	case "o":
		if item, ok := m.current(); ok {
			sel.FlipMode(item.ID)
		}
	case "[":
		m.niche = m.stepNiche(-nicheStep)
	case "]":
		m.niche = m.stepNiche(nicheStep)
	case "enter":
		return m, m.recommend()
	}
	return m, nil
}

func (m Model) stepNiche(delta float64) float64 {
	return m.orch.Guard().ClampNiche(math.Round((m.niche+delta)*100) / 100)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" Steam Recommender "))
	b.WriteString(" ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.steamInput.View())
	b.WriteString("\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	library := m.libraryView()
	results := m.resultsView()
	if m.Width >= 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(library), paneStyle.Render(results)))
	} else {
		b.WriteString(paneStyle.Render(library))
		b.WriteString("\n")
		b.WriteString(paneStyle.Render(results))
	}
	b.WriteString("\n")
	b.WriteString(m.tuningView())
	b.WriteString("\n")
	if len(m.log) > 0 {
		b.WriteString(m.logView.View())
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("tab focus · space select · ←/→ strength · o like/opposite · [/] niche · enter recommend · ctrl+l load · q quit"))

	if m.Quitting {
		b.WriteString("\n  Quitting...\n")
	}
	return b.String()
}

func (m Model) statusLine() string {
	st := m.orch.Status().Current()
	switch st.Severity {
	case status.Loading:
		return m.spinner.View() + " " + st.Message
	case status.Error:
		return errorStyle.Render(st.Message)
	case status.Success:
		return infoStyle.Render(st.Message)
	}
	return ""
}

func (m Model) libraryView() string {
	cat := m.orch.Session().Catalog()
	sel := m.orch.Session().Selection()
	visible := m.Visible()

	var b strings.Builder
	fmt.Fprintf(&b, "Library (%d/%d)\n", len(visible), cat.Len())
	if cat.Len() == 0 {
		b.WriteString(mutedStyle.Render("Enter a Steam ID and press enter to load a library."))
		return b.String()
	}

	rows := max(5, m.Height-16)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(visible) && i < start+rows; i++ {
		item := visible[i]
		mark := "[ ]"
		detail := ""
		if e, ok := sel.Get(item.ID); ok {
			mark = "[x]"
			detail = mutedStyle.Render(fmt.Sprintf("  %d%% %s", e.Tuning.Percent(), e.Tuning.Mode))
		}
		line := fmt.Sprintf("%s %s%s", mark, item.Name, detail)
		if i == m.cursor && m.focus == focusList {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
		if item.ShortDescription != "" && i == m.cursor {
			b.WriteString(mutedStyle.Render("    " + item.ShortDescription))
			b.WriteString("\n")
		}
	}

	hidden := 0
	for e := range sel.Entries() {
		if !slices.ContainsFunc(visible, func(it catalog.Item) bool { return it.ID == e.ItemID }) {
			hidden++
		}
	}
	fmt.Fprintf(&b, "%d selected", sel.Size())
	if hidden > 0 {
		fmt.Fprintf(&b, " (%d hidden by search)", hidden)
	}
	return b.String()
}

func (m Model) resultsView() string {
	results := m.orch.Session().Results()

	var b strings.Builder
	b.WriteString("Recommendations\n")
	if len(results) == 0 {
		b.WriteString(mutedStyle.Render("Select games and press enter."))
		return b.String()
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, r.Name)
		if r.ShortDescription != "" {
			b.WriteString(mutedStyle.Render("    " + r.ShortDescription))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) tuningView() string {
	niche := fmt.Sprintf("Niche factor: %.2f", m.niche)
	item, ok := m.current()
	if !ok {
		return niche
	}
	e, selected := m.orch.Session().Selection().Get(item.ID)
	if !selected {
		return niche
	}
	ratio := e.Tuning.Strength / (float64(selection.MaxPercent) / 100)
	return fmt.Sprintf("%s  %s %3d%% %s", niche, m.bar.ViewAs(ratio), e.Tuning.Percent(), e.Tuning.Mode)
}
