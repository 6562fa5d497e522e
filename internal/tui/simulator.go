package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leaseiq/leaseiq/internal/client"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/session"
	"github.com/leaseiq/leaseiq/internal/simulator"
)

// noContractReply is the local dealer fallback when no lease is selected;
// free-form questions need a contract for context so no request is made.
const noContractReply = "Please upload a contract so I can give you a more specific answer."

type simThread struct {
	id       string
	title    string
	messages []simMessage
}

type simMessage struct {
	fromUser bool
	text     string
}

type simModel struct {
	ctrl *session.Controller
	api  *client.Client

	threads     []simThread
	activeIdx   int
	suggestions map[string][]model.Suggestion

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	waiting bool
	ready   bool
	status  string
	width   int
	height  int
}

// RunSimulator starts the dealer negotiation view.
func RunSimulator(ctrl *session.Controller, api *client.Client) error {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	if ctrl.Active() == nil {
		ti.Placeholder = "Please select a lease to begin..."
	}
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := simModel{
		ctrl: ctrl,
		api:  api,
		threads: []simThread{
			{
				id:       "thread-1",
				title:    "Dealer A - Lease Questions",
				messages: []simMessage{{text: simulator.OpeningMessage("thread-1")}},
			},
			{
				id:       simulator.CompetitorThreadID,
				title:    "Dealer B - Offer Comparison",
				messages: []simMessage{{text: simulator.OpeningMessage(simulator.CompetitorThreadID)}},
			},
		},
		suggestions: make(map[string][]model.Suggestion),
		input:       ti,
		spin:        sp,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m simModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadSuggestionsCmd())
}

// loadSuggestionsCmd fetches the canned question menus from the server,
// falling back to the built-in catalog when it is unreachable.
func (m simModel) loadSuggestionsCmd() tea.Cmd {
	api := m.api
	threadIDs := make([]string, len(m.threads))
	for i, t := range m.threads {
		threadIDs[i] = t.id
	}
	return func() tea.Msg {
		catalog := make(map[string][]model.Suggestion, len(threadIDs))
		for _, id := range threadIDs {
			list, err := api.Suggestions(context.Background(), id)
			if err != nil || len(list) == 0 {
				list = simulator.Suggestions(id)
			}
			catalog[id] = list
		}
		return suggestionsMsg{Catalog: catalog}
	}
}

func (m simModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}
		m.refreshThread()

	case suggestionsMsg:
		m.suggestions = msg.Catalog

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.activeIdx = (m.activeIdx + 1) % len(m.threads)
			m.refreshThread()
		case "enter":
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "1", "2", "3", "4":
			if m.input.Value() == "" && !m.waiting {
				m.pickSuggestion(int(msg.String()[0] - '1'))
			}
		}

	case simReplyMsg:
		m.waiting = false
		for i := range m.threads {
			if m.threads[i].id != msg.ThreadID {
				continue
			}
			text := msg.Text
			if msg.Err != nil {
				text = "The dealer is unavailable right now. Try again in a moment."
				m.status = errorStyle.Render(msg.Err.Error())
			}
			m.threads[i].messages = append(m.threads[i].messages, simMessage{text: text})
		}
		m.refreshThread()

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// pickSuggestion plays a canned exchange: the question goes in as the user,
// the stored answer as the dealer. No server round trip.
func (m *simModel) pickSuggestion(idx int) {
	thread := &m.threads[m.activeIdx]
	list := m.suggestions[thread.id]
	if idx < 0 || idx >= len(list) {
		return
	}
	thread.messages = append(thread.messages,
		simMessage{fromUser: true, text: list[idx].Question},
		simMessage{text: list[idx].Answer},
	)
	m.refreshThread()
}

func (m *simModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return nil
	}
	m.input.Reset()
	m.status = ""

	thread := &m.threads[m.activeIdx]
	thread.messages = append(thread.messages, simMessage{fromUser: true, text: text})

	active := m.ctrl.Active()
	if active == nil {
		thread.messages = append(thread.messages, simMessage{text: noContractReply})
		m.refreshThread()
		return nil
	}

	m.waiting = true
	m.refreshThread()
	return tea.Batch(m.spin.Tick, m.askCmd(thread.id, text, active.ID))
}

func (m simModel) askCmd(threadID, text string, leaseID int64) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		resp, err := api.SimulatorChat(context.Background(), &model.SimulatorChatRequest{
			Message:  text,
			FileID:   leaseID,
			ThreadID: threadID,
		})
		if err != nil {
			return simReplyMsg{ThreadID: threadID, Err: err}
		}
		return simReplyMsg{ThreadID: threadID, Text: resp.AssistantMessage}
	}
}

func (m *simModel) refreshThread() {
	if !m.ready {
		return
	}
	thread := m.threads[m.activeIdx]

	var s strings.Builder
	for _, msg := range thread.messages {
		label := aiStyle.Render("Dealer")
		if msg.fromUser {
			label = userStyle.Render("You")
		}
		s.WriteString(label + "\n" + wrap(msg.text, m.viewport.Width) + "\n\n")
	}
	m.viewport.SetContent(s.String())
	m.viewport.GotoBottom()
}

func (m simModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var tabs []string
	for i, t := range m.threads {
		style := faintStyle
		if i == m.activeIdx {
			style = titleStyle
		}
		tabs = append(tabs, style.Render(t.title))
	}

	var menu strings.Builder
	for i, sg := range m.suggestions[m.threads[m.activeIdx].id] {
		menu.WriteString(faintStyle.Render(fmt.Sprintf("[%d] %s  ", i+1, sg.Question)))
		if i == 1 {
			menu.WriteString("\n")
		}
	}

	status := m.status
	if m.waiting {
		status = m.spin.View() + statusStyle.Render(" Dealer is typing...")
	}
	if active := m.ctrl.Active(); active == nil {
		status = errorStyle.Render("No lease selected") + "  " + status
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(tabs, "   ")),
		m.viewport.View(),
		menu.String(),
		status,
		m.input.View(),
	)
}
