package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sagiri-relay/network"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Client is what the shell needs from the relay.
type Client interface {
	SubmitCommand(ctx context.Context, text, deviceID string) (string, error)
	WaitCommand(ctx context.Context, id string, every time.Duration) (network.Command, error)
}

type submittedMsg struct {
	Text string
	ID   string
	Err  error
}

type resultMsg struct {
	Text string
	Cmd  network.Command
	Err  error
}

// ShellModel is an interactive prompt: each line is queued as a command and
// its output is appended once an agent completes it.
type ShellModel struct {
	Client   Client
	DeviceID string
	Wait     time.Duration
	Poll     time.Duration

	Input   textinput.Model
	Log     viewport.Model
	content string
	history []string
	histPos int
	pending int
	Err     error
}

func NewShellModel(c Client, deviceID string, wait, poll time.Duration) ShellModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command..."
	ti.Prompt = focusedStyle.Render("> ")
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 76

	vp := viewport.New(80, 20)
	return ShellModel{
		Client:   c,
		DeviceID: deviceID,
		Wait:     wait,
		Poll:     poll,
		Input:    ti,
		Log:      vp,
	}
}

func (m ShellModel) Init() tea.Cmd { return textinput.Blink }

func (m ShellModel) submit(text string) tea.Cmd {
	return func() tea.Msg {
		id, err := m.Client.SubmitCommand(context.Background(), text, m.DeviceID)
		return submittedMsg{Text: text, ID: id, Err: err}
	}
}

func (m ShellModel) wait(text, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.Wait)
		defer cancel()
		cmd, err := m.Client.WaitCommand(ctx, id, m.Poll)
		return resultMsg{Text: text, Cmd: cmd, Err: err}
	}
}

func (m *ShellModel) appendLog(s string) {
	m.content += s
	if !strings.HasSuffix(m.content, "\n") {
		m.content += "\n"
	}
	m.Log.SetContent(m.content)
	m.Log.GotoBottom()
}

func (m ShellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Log.Width = msg.Width - 4
		m.Log.Height = max(msg.Height-8, 3)
		m.Input.Width = msg.Width - 8

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.histPos > 0 {
				m.histPos--
				m.Input.SetValue(m.history[m.histPos])
				m.Input.CursorEnd()
			}
			return m, nil
		case tea.KeyDown:
			if m.histPos < len(m.history)-1 {
				m.histPos++
				m.Input.SetValue(m.history[m.histPos])
			} else {
				m.histPos = len(m.history)
				m.Input.SetValue("")
			}
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.Input.Value())
			m.Input.SetValue("")
			switch text {
			case "":
				return m, nil
			case "exit", "quit":
				return m, tea.Quit
			}
			m.history = append(m.history, text)
			m.histPos = len(m.history)
			m.pending++
			m.appendLog(focusedStyle.Render("> " + text))
			return m, m.submit(text)
		}

	case submittedMsg:
		if msg.Err != nil {
			m.pending--
			m.Err = msg.Err
			m.appendLog(errorMessageStyle("Failed to send command: " + msg.Err.Error()))
			return m, nil
		}
		m.Err = nil
		m.appendLog(blurredStyle.Render(fmt.Sprintf("queued %s", msg.ID)))
		return m, m.wait(msg.Text, msg.ID)

	case resultMsg:
		m.pending--
		if msg.Err != nil {
			m.appendLog(errorMessageStyle(fmt.Sprintf("%s: no result: %v", msg.Text, msg.Err)))
			return m, nil
		}
		m.appendLog(FormatOutput(msg.Cmd))
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	m.Log, cmd = m.Log.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ShellModel) View() string {
	var b strings.Builder
	target := m.DeviceID
	if target == "" {
		target = "any device"
	}
	b.WriteString(titleStyle.Render("Relay shell - "+target) + "\n\n")
	b.WriteString(m.Log.View())
	b.WriteString("\n\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n")
	status := "Enter to send, up/down for history, esc to quit"
	if m.pending > 0 {
		status = fmt.Sprintf("%d command(s) waiting for output", m.pending)
	}
	b.WriteString(blurredStyle.Render(status))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return docStyle.Render(b.String())
}

// Pending reports how many commands have no output yet.
func (m ShellModel) Pending() int { return m.pending }

// Transcript returns everything printed so far.
func (m ShellModel) Transcript() string { return m.content }

// StatusLine is used by one-shot commands to print progress.
func StatusLine(s string) string { return statusMessageStyle(s) }
