package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	natureStyles = map[string]lipgloss.Style{
		model.NatureOnsite: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.NatureRemote: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.NatureHybrid: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	}

	headerBarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))
)

// RenderPostings formats postings as a plain scrollable list.
func RenderPostings(postings []model.Posting) string {
	if len(postings) == 0 {
		return subtitleStyle.Render("No relevant jobs.") + "\n"
	}

	var b strings.Builder
	for i, p := range postings {
		nature := p.JobNature
		if st, ok := natureStyles[nature]; ok {
			nature = st.Render(nature)
		}
		fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%d. %s", i+1, p.JobTitle)))
		fmt.Fprintf(&b, "   %s %s %s\n",
			subtitleStyle.Render(strings.Join([]string{p.Company, p.Location, p.Experience, p.Salary}, " · ")),
			subtitleStyle.Render("·"),
			nature,
		)
		fmt.Fprintf(&b, "   %s\n\n", linkStyle.Render(p.ApplyLink))
	}
	return b.String()
}

type postingsModel struct {
	postings []model.Posting
	header   string
	viewport viewport.Model
	ready    bool
}

func (m postingsModel) Init() tea.Cmd {
	return nil
}

func (m postingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		bodyHeight := msg.Height - 2 // header + status bar
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.viewport.SetContent(RenderPostings(m.postings))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m postingsModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := fmt.Sprintf("%d jobs  %3.f%%  ↑/↓/pgup/pgdn scroll  q quit",
		len(m.postings), m.viewport.ScrollPercent()*100)
	return headerBarStyle.Render(m.header) + "\n" +
		m.viewport.View() + "\n" +
		statusBarStyle.Render(status)
}

// RunPostingsView shows postings in a full-screen scrollable view.
func RunPostingsView(header string, postings []model.Posting) error {
	m := postingsModel{postings: postings, header: header}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
