package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/musicagent/internal/agent"
)

// Conversation answers turns. [agent.Agent] implements it.
type Conversation interface {
	Greet(sess *agent.Session) agent.Response
	Handle(ctx context.Context, sess *agent.Session, text string) agent.Response
}

// Focus is the part of the screen receiving keys.
type Focus int

const (
	InputFocus Focus = iota
	ChoiceFocus
)

// line is one transcript entry.
type line struct {
	user bool
	text string
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	// header, input and help rows around the transcript
	chromeHeight = 5
	// title bar with its bottom padding, then the paginator row
	choiceChrome = 3
	// smallest transcript kept visible while choosing
	minTranscript = 3
)

// Model represents the TUI application state.
//
// The session is only touched inside turn commands; Update reads its
// user name after each reply arrives.
type Model struct {
	ctx        context.Context
	conv       Conversation
	sess       *agent.Session
	username   string
	transcript []line
	viewport   viewport.Model
	input      textinput.Model
	choices    list.Model
	rowHeight  int
	spinner    spinner.Model
	help       help.Model
	keys       keyMap
	focus      Focus
	waiting    bool
	quitting   bool
	width      int
	height     int
}

// NewModel creates a chat model for sess and shows the greeting.
func NewModel(ctx context.Context, conv Conversation, sess *agent.Session) *Model {
	input := textinput.New()
	input.Placeholder = "Ask for a song, or type /help"
	input.Prompt = "> "
	input.CharLimit = 500
	input.Focus()

	delegate := list.NewDefaultDelegate()
	choices := list.New(nil, delegate, 0, 0)
	choices.Title = "Choose one"
	choices.SetShowHelp(false)
	choices.SetShowStatusBar(false)
	choices.SetFilteringEnabled(false)

	m := &Model{
		ctx:       ctx,
		conv:      conv,
		sess:      sess,
		viewport:  viewport.New(defaultWidth, defaultHeight-chromeHeight),
		input:     input,
		choices:   choices,
		rowHeight: delegate.Height() + delegate.Spacing(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.agent)),
		help:      help.New(),
		keys:      newKeyMap(),
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.receive(conv.Greet(sess))
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgReply:
			resp := msg.data.(agent.Response)
			m.waiting = false
			m.receive(resp)
			if resp.Stop {
				m.quitting = true
				return m, tea.Quit
			}
			if m.focus == InputFocus {
				return m, m.input.Focus()
			}
			return m, nil
		case MsgCancelled:
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, any open choices and the input line.
func (m *Model) View() string {
	var b strings.Builder

	title := "MusicAgent"
	if m.username != "" {
		title = fmt.Sprintf("MusicAgent • %s", m.username)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.quitting {
		return b.String()
	}

	if m.hasChoices() {
		b.WriteString(m.choices.View())
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(m.spinner.View() + styles.help.Render(" thinking..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

// Focus reports which part of the screen receives keys.
func (m *Model) Focus() Focus { return m.focus }

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.scroll) {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.waiting {
		return m, nil
	}

	if m.focus == ChoiceFocus {
		return m.handleChoiceKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.focus):
		if m.hasChoices() {
			m.focus = ChoiceFocus
			m.input.Blur()
		}
		return m, nil
	case key.Matches(msg, m.keys.send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.send(text, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleChoiceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.focus):
		m.focus = InputFocus
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.send):
		item, ok := m.choices.SelectedItem().(candidateItem)
		if !ok {
			return m, nil
		}
		return m, m.send(item.candidate.Label, item.candidate.Payload)
	}

	var cmd tea.Cmd
	m.choices, cmd = m.choices.Update(msg)
	return m, cmd
}

// send echoes shown into the transcript and runs text as a turn.
func (m *Model) send(shown, text string) tea.Cmd {
	m.transcript = append(m.transcript, line{user: true, text: shown})
	m.waiting = true
	m.input.Blur()
	m.refresh()
	return tea.Batch(m.turn(text), m.spinner.Tick)
}

func (m *Model) turn(text string) tea.Cmd {
	ctx, conv, sess := m.ctx, m.conv, m.sess
	return func() tea.Msg {
		resp := conv.Handle(ctx, sess, text)
		if ctx.Err() != nil {
			return cancelledMsg()
		}
		return replyMsg(resp)
	}
}

// receive records a response and opens or closes the choice list.
func (m *Model) receive(resp agent.Response) {
	m.transcript = append(m.transcript, line{text: resp.Text})
	m.username = m.sess.Username()

	if len(resp.Candidates) > 0 {
		m.choices.SetItems(candidateItems(resp.Candidates))
		m.choices.Select(0)
		m.focus = ChoiceFocus
		m.input.Blur()
	} else {
		m.choices.SetItems(nil)
		m.focus = InputFocus
	}

	m.layout()
	m.refresh()
}

func (m *Model) hasChoices() bool {
	return len(m.choices.Items()) > 0
}

// layout splits the window between transcript and choices.
func (m *Model) layout() {
	choiceHeight := 0
	if m.hasChoices() {
		want := len(m.choices.Items())*m.rowHeight + choiceChrome
		choiceHeight = min(want, max(m.height-chromeHeight-minTranscript, m.rowHeight+choiceChrome))
	}
	m.choices.SetSize(m.width, choiceHeight)

	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chromeHeight-choiceHeight, 3)
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 10)
	m.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 10))

	var b strings.Builder
	for i, l := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		if l.user {
			b.WriteString(styles.user.Render("you: "))
			b.WriteString(wrap.Render(l.text))
		} else {
			b.WriteString(styles.agent.Render("agent: "))
			b.WriteString(wrap.Render(l.text))
		}
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) helpKeys() []key.Binding {
	if m.focus == ChoiceFocus {
		pick := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick"))
		return []key.Binding{m.keys.up, m.keys.down, pick, m.keys.back, m.keys.quit}
	}

	keys := []key.Binding{m.keys.send}
	if m.hasChoices() {
		keys = append(keys, m.keys.focus)
	}
	return append(keys, m.keys.scroll, m.keys.quit)
}

// Run starts the full-screen chat and blocks until it exits.
func Run(ctx context.Context, conv Conversation, sess *agent.Session) error {
	p := tea.NewProgram(NewModel(ctx, conv, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
