// Package tui implements the terminal views: the lease chat window and the
// dealer negotiation simulator.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leaseiq/leaseiq/internal/analysis"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/session"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	aiStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type chatModel struct {
	ctrl    *session.Controller
	backend *analysis.Client

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	streaming bool
	uploading bool
	ready     bool
	status    string
	width     int
	height    int
}

// RunChat starts the chat view over the active conversation.
func RunChat(ctrl *session.Controller, backend *analysis.Client) error {
	ti := textinput.New()
	ti.Placeholder = "Ask LeaseIQ anything, or /upload <contract.pdf>"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatModel{ctrl: ctrl, backend: backend, input: ti, spin: sp}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refreshConversation()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case refreshMsg:
		m.refreshConversation()
		if m.streaming || m.uploading {
			cmds = append(cmds, refreshTick())
		}

	case streamDoneMsg:
		m.streaming = false
		m.refreshConversation()

	case uploadDoneMsg:
		m.uploading = false
		if msg.Err != nil {
			m.status = errorStyle.Render("Upload failed: " + msg.Err.Error())
		} else if msg.Lease != nil {
			m.status = statusStyle.Render("Contract analyzed: " + msg.Lease.CarName)
		}
		m.refreshConversation()

	case spinner.TickMsg:
		if m.streaming || m.uploading {
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

// submit routes the input line: /upload starts a contract upload, anything
// else goes through the controller and streams a reply.
func (m *chatModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.streaming || m.uploading {
		return nil
	}
	m.input.Reset()
	m.status = ""

	if path, ok := strings.CutPrefix(text, "/upload "); ok {
		m.uploading = true
		return tea.Batch(m.spin.Tick, m.uploadCmd(strings.TrimSpace(path)), refreshTick())
	}

	lease := m.ctrl.Send(context.Background(), session.NewText{Text: text}, m.ctrl.Active())
	if lease == nil {
		return nil
	}

	m.streaming = true
	m.refreshConversation()
	return tea.Batch(m.spin.Tick, m.streamCmd(text, lease), refreshTick())
}

func (m chatModel) streamCmd(text string, lease *model.Lease) tea.Cmd {
	ctrl, backend := m.ctrl, m.backend
	return func() tea.Msg {
		ctx := context.Background()
		ctrl.StreamReply(ctx, lease, func(ctx context.Context) (io.ReadCloser, error) {
			return backend.Chat(ctx, text, lease.ServerFilename)
		})
		return streamDoneMsg{}
	}
}

func (m chatModel) uploadCmd(path string) tea.Cmd {
	ctrl, backend := m.ctrl, m.backend
	return func() tea.Msg {
		ctx := context.Background()
		name := filepath.Base(path)

		lease := ctrl.Send(ctx, session.FileAttachment{
			Text:     "Uploaded " + name,
			FileName: name,
		}, ctrl.Active())
		if lease == nil {
			return uploadDoneMsg{Err: fmt.Errorf("could not attach %s", name)}
		}

		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{Err: err}
		}
		defer f.Close()

		result, err := backend.Upload(ctx, name, f)
		if err != nil {
			return uploadDoneMsg{Err: err}
		}

		merged := ctrl.MergeUploadResult(ctx, result.Filename, name, result.Data)

		// Kick off the deep analysis pass so the summary is ready when the
		// user opens it. Best effort; the upload already extracted the core
		// fields.
		if result.FileID != "" {
			if _, err := backend.AnalyzeContract(ctx, result.FileID); err != nil {
				return uploadDoneMsg{Lease: merged, Err: nil}
			}
		}
		return uploadDoneMsg{Lease: merged}
	}
}

func (m *chatModel) refreshConversation() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderConversation(m.ctrl.Active(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func renderConversation(lease *model.Lease, width int) string {
	if lease == nil {
		return faintStyle.Render("No conversation yet. Say hello or /upload a lease contract.")
	}

	var s strings.Builder
	for _, msg := range lease.ChatHistory {
		label := aiStyle.Render("LeaseIQ")
		if msg.Sender == model.SenderUser {
			label = userStyle.Render("You")
		}
		s.WriteString(label)
		if msg.Time != "" {
			s.WriteString(faintStyle.Render("  " + msg.Time))
		}
		s.WriteString("\n")

		text := msg.Text
		if msg.Type == model.MessageTypeFile && msg.FileName != "" {
			text = "📄 " + msg.FileName
			if msg.Text != "" {
				text += "\n" + msg.Text
			}
		}
		if msg.IsStreaming && text == "" {
			text = faintStyle.Render("...")
		}
		s.WriteString(wrap(text, width) + "\n\n")
	}
	return s.String()
}

// wrap is a soft word wrap for message bodies.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		col := 0
		for j, word := range strings.Fields(line) {
			if j > 0 {
				if col+1+len(word) > width {
					out.WriteString("\n")
					col = 0
				} else {
					out.WriteString(" ")
					col++
				}
			}
			out.WriteString(word)
			col += len(word)
		}
	}
	return out.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "LeaseIQ"
	if active := m.ctrl.Active(); active != nil && active.CarName != "" {
		title = active.CarName
	}

	status := m.status
	if m.streaming {
		status = m.spin.View() + statusStyle.Render(" LeaseIQ is thinking...")
	} else if m.uploading {
		status = m.spin.View() + statusStyle.Render(" Analyzing contract...")
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		titleStyle.Render(title),
		m.viewport.View(),
		status,
		m.input.View(),
	)
}

func refreshTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}
