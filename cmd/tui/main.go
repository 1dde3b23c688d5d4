package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	// Class styles: resolved single classes, unresolved pairs, everything else
	classResolvedStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	classUnresolvedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	classOtherStyle      = lipgloss.NewStyle().Foreground(mutedColor)
)

// ResultRecord mirrors one row of the pipeline's database.json.
type ResultRecord struct {
	Name        string  `json:"name"`
	Accession   string  `json:"accession"`
	Sequence    string  `json:"sequence"`
	Length      int     `json:"length"`
	MAABClass   string  `json:"maab_class"`
	ExtSP       int     `json:"ext_sp"`
	Tyr         int     `json:"tyr"`
	Prp         int     `json:"prp"`
	Agp         int     `json:"agp"`
	PastPercent float64 `json:"past_percent"`
	PvykPercent float64 `json:"pvyk_percent"`
	PskyPercent float64 `json:"psky_percent"`
	PPercent    float64 `json:"p_percent"`
	Coverage    float64 `json:"coverage"`
}

func classStyle(class string) lipgloss.Style {
	switch {
	case strings.Contains(class, "/"):
		return classUnresolvedStyle
	case class == "0" || class == "Shared" || class == "":
		return classOtherStyle
	default:
		return classResolvedStyle
	}
}

type listItem struct {
	record ResultRecord
}

func (i listItem) FilterValue() string {
	return i.record.Accession + " " + i.record.MAABClass
}

func (i listItem) Title() string {
	if i.record.Accession != "" {
		return i.record.Accession
	}
	return i.record.Name
}

func (i listItem) Description() string {
	class := i.record.MAABClass
	if class == "" {
		class = "?"
	}
	return fmt.Sprintf("Class: %s    Cov: %.2f    Len: %d",
		classStyle(class).Render(class), i.record.Coverage, i.record.Length)
}

type mode int

const (
	modeSequence mode = iota
	modeCounts
	modeComposition
)

func (m mode) String() string {
	switch m {
	case modeSequence:
		return "Sequence"
	case modeCounts:
		return "Motif counts"
	case modeComposition:
		return "Composition"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	records       []ResultRecord
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	totalRecords  int
	selectedIndex int
}

func initialModel() model {
	path := "database.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	var records []ResultRecord
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &records)
	}

	// Create list items
	items := make([]list.Item, len(records))
	for i, record := range records {
		items[i] = listItem{record: record}
	}

	// Create list
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "MAAB Classification"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:         l,
		records:      records,
		currentMode:  modeSequence,
		totalRecords: len(records),
	}
}

// cycleMode advances to the next view mode, wrapping around.
func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 3
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Calculate list dimensions (left panel takes 1/3 of width)
		listWidth := msg.Width / 3
		listHeight := msg.Height - 4 // Account for borders and status

		m.list.SetWidth(listWidth)
		m.list.SetHeight(listHeight)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "h":
			m.showHelp = !m.showHelp
			return m, nil

		case "tab":
			return m.cycleMode(), nil

		case "1":
			m.currentMode = modeSequence
			return m, nil

		case "2":
			m.currentMode = modeCounts
			return m, nil

		case "3":
			m.currentMode = modeComposition
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Help modal overlay
	if m.showHelp {
		return m.renderHelpModal()
	}

	// Main layout
	leftPanel := m.renderLeftPanel()
	rightPanel := m.renderRightPanel()
	statusBar := m.renderStatusBar()

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanel,
		rightPanel,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		statusBar,
	)
}

func (m model) renderLeftPanel() string {
	listWidth := m.width / 3

	listContainer := containerStyle.
		Width(listWidth - 2). // Account for padding
		Height(m.height - 4). // Account for status bar
		Render(m.list.View())

	return listContainer
}

// buildRightLines assembles the detail panel lines for a record in the
// current mode.
func (m model) buildRightLines(record ResultRecord) []string {
	var lines []string

	class := record.MAABClass
	if class == "" {
		class = "?"
	}
	lines = append(lines, titleStyle.Render(fmt.Sprintf("%s - MAAB class %s", record.Accession, class)))

	label := lipgloss.NewStyle().Foreground(mutedColor)
	meta := label.Render("Class: ") + classStyle(class).Render(class) +
		label.Render(fmt.Sprintf("    Length: %d    Coverage: %.2f", record.Length, record.Coverage))
	lines = append(lines, meta, "")

	switch m.currentMode {
	case modeSequence:
		lines = append(lines, m.formatSequence(record.Sequence, "Sequence"))
	case modeCounts:
		lines = append(lines,
			lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("Motif counts:"),
			fmt.Sprintf("  ext (SP3-5):  %d", record.ExtSP),
			fmt.Sprintf("  tyr:          %d", record.Tyr),
			fmt.Sprintf("  prp:          %d", record.Prp),
			fmt.Sprintf("  agp:          %d", record.Agp),
			fmt.Sprintf("  ext combined: %d", record.ExtSP+record.Tyr),
		)
	case modeComposition:
		lines = append(lines,
			lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("Residue composition:"),
			fmt.Sprintf("  PAST: %6.2f%%", record.PastPercent),
			fmt.Sprintf("  PVYK: %6.2f%%", record.PvykPercent),
			fmt.Sprintf("  PSKY: %6.2f%%", record.PskyPercent),
			fmt.Sprintf("  P:    %6.2f%%", record.PPercent),
		)
	}

	return lines
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if len(m.records) == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No records available")
	}

	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No item selected")
	}

	record := selectedItem.(listItem).record
	panelContent := lipgloss.JoinVertical(lipgloss.Left, m.buildRightLines(record)...)

	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(panelContent)
}

func (m model) formatSequence(sequence, title string) string {
	if sequence == "" {
		return lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf("No %s available", strings.ToLower(title)))
	}

	cleanSequence := strings.ReplaceAll(sequence, "\n", "")
	cleanSequence = strings.ReplaceAll(cleanSequence, "\r", "")

	titleStr := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(title + ":")

	sequenceContent := sequenceStyle.
		Width(m.width*2/3 - 6). // Account for padding and borders
		Render(cleanSequence)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStr,
		"",
		sequenceContent,
	)
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d sequences", m.selectedIndex+1, m.totalRecords)
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())
	rightInfo := "Press 'h' for help, 'q' to quit"

	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6 // Account for padding

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing

		statusContent = fmt.Sprintf("%s%s%s%s%s",
			leftInfo,
			strings.Repeat(" ", leftSpacing),
			centerInfo,
			strings.Repeat(" ", rightSpacing),
			rightInfo,
		)
	} else {
		// Fallback for narrow terminals
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}

	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `MAAB Classification Browser - Help

Navigation:
  up/down, j/k  Navigate list
  /             Filter by accession or class
  Enter         Select sequence

View Modes:
  1             Show sequence
  2             Show motif counts
  3             Show residue composition
  Tab           Cycle view modes

General:
  h             Toggle this help
  q, Ctrl+C     Quit application

Current Mode: ` + m.currentMode.String() + `
Total Sequences: ` + fmt.Sprintf("%d", m.totalRecords) + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Align(lipgloss.Center)

	modal := modalStyle.Render(helpContent)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
