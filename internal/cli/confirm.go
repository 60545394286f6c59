package cli

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirmer asks the user a yes/no question and reports the answer.
type Confirmer func(question string) bool

// confirmModel is the bubbletea model for a one-line y/n prompt.
type confirmModel struct {
	question string
	answer   bool
	decided  bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.answer = true
			m.decided = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.decided = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.decided {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleValue.Render(m.question))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render("[Y/n]"))
	return b.String()
}

// askConfirm shows an interactive y/n prompt. Without a terminal the answer
// is "no": a scripted invocation must never be stalled on a prompt or have a
// suggestion silently accepted.
func askConfirm(question string) bool {
	if !interactive() {
		return false
	}
	final, err := tea.NewProgram(confirmModel{question: question}).Run()
	if err != nil {
		return false
	}
	m, ok := final.(confirmModel)
	return ok && m.answer
}
