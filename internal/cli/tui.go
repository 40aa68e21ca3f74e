package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/router"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// providerPicker - Interactive provider selection
// =============================================================================

// providerPicker is the bubbletea model behind query --pick. Providers
// that are not available are listed but cannot be selected.
type providerPicker struct {
	category  provider.Category
	providers []router.Status
	cursor    int
	selected  *router.Status
}

func newProviderPicker(category provider.Category, statuses []router.Status) providerPicker {
	m := providerPicker{category: category, providers: statuses}
	// Start on the first selectable row.
	for i, s := range statuses {
		if s.Available {
			m.cursor = i
			break
		}
	}
	return m
}

func (m providerPicker) Init() tea.Cmd {
	return nil
}

func (m providerPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.providers)-1 {
			m.cursor++
		}
	case "enter":
		s := m.providers[m.cursor]
		if !s.Available {
			return m, nil
		}
		m.selected = &s
		return m, tea.Quit
	}
	return m, nil
}

func (m providerPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select provider for " + string(m.category)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(m.providers))
	for i, s := range m.providers {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		state := "ready"
		if !s.Available {
			state = s.Reason
		}
		rows = append(rows, []string{cursor, s.Name, strconv.Itoa(s.Priority), formatRemaining(s.Remaining), state})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Provider", "Priority", "Tokens", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row >= len(m.providers) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !m.providers[row].Available {
				base = base.Foreground(colorDim)
			} else if col != 2 && col != 3 {
				base = base.Foreground(colorGreen)
			}
			if row == m.cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.providers))))

	return b.String()
}

func formatRemaining(n int) string {
	if n < 0 {
		return "∞"
	}
	return strconv.Itoa(n)
}
