package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/chart"
	"github.com/felixgeelhaar/vedic/internal/dasha"
	"github.com/felixgeelhaar/vedic/internal/pages"
)

type chatKeyMap struct {
	Quit     key.Binding
	Ask      key.Binding
	Example  key.Binding
	Provider key.Binding
}

var chatKeys = chatKeyMap{
	Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	Ask:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
	Example:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "example")),
	Provider: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "provider")),
}

var timeNow = time.Now

// mountedMsg reports that the chart and dasha were fetched (or not).
type mountedMsg struct{ err error }

// answeredMsg reports that a question finished, successfully or not.
type answeredMsg struct{ err error }

// ChatModel is the interactive AI astrologer screen.
type ChatModel struct {
	ctx     context.Context
	page    *pages.Chat
	subject string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	mounted  bool
	busy     bool
	example  int
	err      error
	width    int
	height   int
	ready    bool
	quitting bool

	styles Styles
}

// NewChatModel creates the chat screen for page. subject names the profile
// the chart belongs to.
func NewChatModel(ctx context.Context, page *pages.Chat, subject string) ChatModel {
	in := textinput.New()
	in.Placeholder = "Ask about your chart..."
	in.CharLimit = 500
	in.Prompt = "› "
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return ChatModel{
		ctx:      ctx,
		page:     page,
		subject:  subject,
		input:    in,
		viewport: viewport.New(80, 16),
		spinner:  sp,
		busy:     true,
		styles:   DefaultStyles(),
	}
}

// Init starts the chart fetch.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.mount())
}

func (m ChatModel) mount() tea.Cmd {
	page, ctx := m.page, m.ctx
	return func() tea.Msg {
		return mountedMsg{err: page.Mount(ctx)}
	}
}

func (m ChatModel) ask(question string) tea.Cmd {
	page, ctx := m.page, m.ctx
	return func() tea.Msg {
		_, err := page.Ask(ctx, question)
		return answeredMsg{err: err}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-9, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case mountedMsg:
		m.busy = false
		m.mounted = true
		m.err = msg.err
		m.refresh()
		return m, nil

	case answeredMsg:
		m.busy = false
		m.err = msg.err
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy {
			// Shows the question as soon as the page logs it.
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, chatKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, chatKeys.Provider):
		if !m.busy {
			m.page.Provider = nextProvider(m.page.Provider)
		}
		return m, nil

	case key.Matches(msg, chatKeys.Example):
		if !m.asked() && len(pages.ExampleQuestions) > 0 {
			m.input.SetValue(pages.ExampleQuestions[m.example%len(pages.ExampleQuestions)])
			m.input.CursorEnd()
			m.example++
		}
		return m, nil

	case key.Matches(msg, chatKeys.Ask):
		question := strings.TrimSpace(m.input.Value())
		if m.busy || !m.mounted || question == "" || m.contextFailed() {
			return m, nil
		}
		m.input.Reset()
		m.busy = true
		m.err = nil
		return m, tea.Batch(m.ask(question), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) asked() bool {
	for _, msg := range m.page.Messages() {
		if msg.Kind == pages.MessageUser {
			return true
		}
	}
	return false
}

func (m ChatModel) contextFailed() bool {
	return m.page.Context.Snapshot().State == pages.Error
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(RenderMessages(m.page.Messages(), m.styles, m.viewport.Width))
	m.viewport.GotoBottom()
}

// View renders the TUI (required by Bubble Tea)
func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Vedic Astrologer"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(m.header()))
	b.WriteString("\n\n")

	snap := m.page.Context.Snapshot()
	switch {
	case !m.mounted:
		b.WriteString(m.spinner.View() + " Calculating chart...")
		b.WriteString("\n")
		return b.String()
	case snap.State == pages.Error:
		b.WriteString(m.styles.Error.Render(snap.Message))
		b.WriteString("\n")
		b.WriteString(m.renderHelp(chatKeys.Quit))
		return b.String()
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if !m.asked() {
		b.WriteString(m.renderExamples())
	}
	if m.busy {
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Consulting the stars..."))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render(api.Message(m.err, "Failed to get answer")))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderHelp(chatKeys.Ask, chatKeys.Example, chatKeys.Provider, chatKeys.Quit))
	return b.String()
}

func (m ChatModel) header() string {
	parts := []string{m.subject}
	if snap := m.page.Context.Snapshot(); snap.Data != nil {
		if c := snap.Data.Chart; c != nil && c.Lagna != nil {
			parts = append(parts, "Lagna "+lagnaSign(c.Lagna))
		}
		if d := snap.Data.Dasha; d != nil {
			if cur, ok := dasha.Current(d.Sequence, timeNow()); ok {
				parts = append(parts, "Dasha "+cur.Lord)
			}
		}
	}
	parts = append(parts, "Provider "+string(m.page.Provider))
	return strings.Join(parts, " · ")
}

func lagnaSign(p *api.Position) string {
	if p.SignName != "" {
		return p.SignName
	}
	return chart.SignName(p.House)
}

func (m ChatModel) renderExamples() string {
	var b strings.Builder
	b.WriteString(m.styles.Muted.Render("Try asking:"))
	b.WriteString("\n")
	for _, q := range pages.ExampleQuestions {
		b.WriteString(m.styles.Muted.Render("  • " + q))
		b.WriteString("\n")
	}
	return b.String()
}

func (m ChatModel) renderHelp(bindings ...key.Binding) string {
	items := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		items = append(items, m.styles.Key.Render(h.Key)+" "+m.styles.KeyDesc.Render(h.Desc))
	}
	return m.styles.Help.Render(strings.Join(items, "  "))
}

// RenderMessages formats the chat log for display, wrapping at width.
func RenderMessages(msgs []pages.Message, s Styles, width int) string {
	body := lipgloss.NewStyle()
	if width > 2 {
		body = body.Width(width - 2)
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		label, style := s.Speaker(msg.Kind)
		if msg.Kind == pages.MessageAI && msg.Provider != "" {
			label = fmt.Sprintf("%s (%s)", label, msg.Provider)
		}
		stamp := ""
		if !msg.At.IsZero() {
			stamp = s.Muted.Render(" " + msg.At.Format("15:04"))
		}
		if label != "" {
			b.WriteString(style.Bold(true).Render(label) + stamp + "\n")
		}
		b.WriteString(body.Inherit(style).Render(msg.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func nextProvider(p api.LLMProvider) api.LLMProvider {
	for i, candidate := range api.LLMProviders {
		if candidate == p {
			return api.LLMProviders[(i+1)%len(api.LLMProviders)]
		}
	}
	return api.ProviderQwen
}

// RunChat runs the chat screen until the user quits.
func RunChat(ctx context.Context, page *pages.Chat, subject string) error {
	_, err := tea.NewProgram(NewChatModel(ctx, page, subject), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
