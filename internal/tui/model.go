package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AskPort is the TUI-facing subset of the session.
type AskPort interface {
	Ask(ctx context.Context, question string) string
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	session  AskPort
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	status   string
	ready    bool
	waiting  bool
}

// answerMsg carries a finished answer back into the update loop.
type answerMsg struct {
	answer string
}

// New creates a new TUI model instance.
func New(session AskPort) Model {
	ti := textinput.New()
	ti.Prompt = ">>> "
	ti.Placeholder = "Escribe tu pregunta y presiona Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		session:  session,
		input:    ti,
		viewport: vp,
		status:   "MAC-GPT listo. Esc o Ctrl+C para salir.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case answerMsg:
		m.waiting = false
		m.lines = append(m.lines, botStyle.Render("MAC-GPT: ")+msg.answer, "")
		m.status = "Listo."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.waiting {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			m.input.SetValue("")
			m.lines = append(m.lines, userStyle.Render("Tú: ")+q)
			m.status = "Pensando..."
			m.waiting = true
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			session := m.session
			return m, func() tea.Msg {
				return answerMsg{answer: session.Ask(context.Background(), q)}
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and chat transcript.
func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("MAC-GPT — Asistente de la Licenciatura MAC")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return "Haz una pregunta sobre la Licenciatura en Matemáticas Aplicadas y Computación."
	}
	return strings.Join(m.lines, "\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
