package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
)

// Answerer is the TUI-facing subset of the QA orchestrator.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// Model is the Bubble Tea model for the interactive QA session.
type Model struct {
	qa        Answerer
	retriever domain.Retriever
	source    string

	input    textinput.Model
	viewport viewport.Model
	answer   string
	passages []string
	cursor   int
	status   string
	ready    bool
	lastQ    string
}

// New creates a new TUI model over an indexed document.
func New(qa Answerer, retriever domain.Retriever, source string) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		qa:        qa,
		retriever: retriever,
		source:    source,
		input:     ti,
		viewport:  vp,
		status:    "Document indexed. Ask away.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + source, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.render())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.ask(q)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "down":
			if len(m.passages) > 0 {
				m.cursor = (m.cursor + 1) % len(m.passages)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if len(m.passages) > 0 {
				m.cursor = (m.cursor - 1 + len(m.passages)) % len(m.passages)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) ask(question string) {
	ctx := context.Background()
	m.answer = m.qa.Answer(ctx, question)
	m.lastQ = question
	m.cursor = 0
	passages, err := m.retriever.Retrieve(ctx, question, 5)
	if err != nil {
		m.passages = nil
	} else {
		m.passages = passages
	}
	m.status = fmt.Sprintf("Answered %q", question)
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document QA")
	source := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.source)
	body := answerBoxStyle.Render(m.viewport.View())
	input := questionBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + source + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) render() string {
	if m.answer == "" {
		return "No answer yet."
	}
	out := answerStyle.Render("Answer") + "\n" + m.answer
	if len(m.passages) > 0 {
		title := fmt.Sprintf("Supporting passage %d/%d", m.cursor+1, len(m.passages))
		out += "\n\n" + answerStyle.Render(title) + "\n" + highlightBestSentence(m.passages[m.cursor], m.lastQ)
	}
	return out
}

var (
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle      = lipgloss.NewStyle().Bold(true)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe           = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe       = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the passage sentence with the most word
// overlap against the question.
func highlightBestSentence(text, question string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	questionTokens := tokenSet(question)
	if len(questionTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(questionTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(questionTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range wordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := questionTokens[t]; ok {
			score++
		}
	}
	return score
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
