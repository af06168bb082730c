// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kantah-chat/internal/attachment"
	"github.com/jeranaias/kantah-chat/internal/chat"
	"github.com/jeranaias/kantah-chat/internal/model"
	"github.com/jeranaias/kantah-chat/internal/ui/components"
	"github.com/jeranaias/kantah-chat/internal/ui/styles"
)

// Layout rows outside the viewport.
const (
	headerHeight = 2
	inputHeight  = 3
	hintHeight   = 1
)

// Model is the chat view.
type Model struct {
	theme   *styles.Theme
	session *chat.Session
	keys    KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	messages *components.MessageList
	sidebar  *components.HistorySidebar
	welcome  *components.Welcome

	siteName string
	pending  []pendingAttachment
	sending  bool
	status   string
	isError  bool
	rendered int // message count at the last refresh

	width  int
	height int
}

// New creates a chat view over session.
func New(theme *styles.Theme, session *chat.Session, siteName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ketik pertanyaan Anda..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	welcome := components.NewWelcome(theme)
	welcome.SiteName = siteName
	welcome.QuickActions = session.QuickActions()

	m := Model{
		theme:    theme,
		session:  session,
		keys:     DefaultKeyMap(),
		viewport: vp,
		input:    ti,
		spinner:  sp,
		messages: components.NewMessageList(theme),
		sidebar:  components.NewHistorySidebar(theme),
		welcome:  welcome,
		siteName: siteName,
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case AttachmentMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Gagal melampirkan %s: %v", filepath.Base(msg.Path), msg.Err))
			return m, nil
		}
		m.pending = append(m.pending, pendingAttachment{name: filepath.Base(msg.Path), image: msg.Image})
		m.setStatus(fmt.Sprintf("%d lampiran siap dikirim", len(m.pending)))
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// The user message is appended by the send goroutine.
		if m.session.MessageCount() != m.rendered {
			m.refresh()
			m.viewport.GotoBottom()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if !m.sending && !m.sidebar.Focused {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.ToggleSidebar):
		return m.toggleSidebar(), nil
	}

	if m.sidebar.Focused {
		return m.handleSidebarKey(msg)
	}

	// Input is disabled while a request is in flight.
	if m.sending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NewChat):
		return m.newChat(), nil
	case key.Matches(msg, m.keys.QuickAction) && m.input.Value() == "" && m.session.IsEmpty():
		i := int(msg.Runes[0] - '1')
		if i < len(m.session.QuickActions()) {
			return m.startQuickAction(i)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.toggleSidebar(), nil
	// Newest entries are drawn on top.
	case key.Matches(msg, m.keys.Up):
		m.sidebar.Move(1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.Move(-1)
	case key.Matches(msg, m.keys.Submit):
		m.scrollToSelected()
	}
	return m, nil
}

func (m Model) toggleSidebar() Model {
	if !m.sidebar.Focused && len(m.sidebar.Items) == 0 {
		return m
	}
	m.sidebar.Focused = !m.sidebar.Focused
	if m.sidebar.Focused {
		m.input.Blur()
	} else if !m.sending {
		m.input.Focus()
	}
	return m
}

// scrollToSelected scrolls the viewport to the question under the sidebar cursor.
func (m *Model) scrollToSelected() {
	item, ok := m.sidebar.Selected()
	if !ok {
		return
	}
	i, ok := m.session.Lookup(item.ID)
	if !ok {
		return
	}
	msgs := m.session.Messages()
	if i >= len(msgs) {
		return
	}
	if off, ok := m.messages.LineOffset(msgs[i].ID); ok {
		m.viewport.SetYOffset(off)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}

	if text == "" && len(m.pending) == 0 {
		return m, nil
	}

	images := make([]model.ImageData, len(m.pending))
	for i, p := range m.pending {
		images[i] = p.image
	}
	m.pending = nil
	m.input.Reset()
	return m.startSend(text, images)
}

func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/attach":
		if arg == "" {
			m.setError("Gunakan: /attach <path>")
			return m, nil
		}
		return m, attachCmd(arg)
	case "/detach":
		m.pending = nil
		m.setStatus("Lampiran dibatalkan")
		m.layout()
		return m, nil
	case "/new":
		return m.newChat(), nil
	case "/quit", "/exit":
		return m, tea.Quit
	default:
		m.setError("Perintah tidak dikenal: " + name)
		return m, nil
	}
}

func (m Model) newChat() Model {
	m.session.NewChat()
	m.pending = nil
	m.sidebar.Focused = false
	m.sidebar.Cursor = -1
	m.setStatus("Chat baru dimulai")
	m.layout()
	m.refresh()
	return m
}

func (m Model) startQuickAction(i int) (tea.Model, tea.Cmd) {
	actions := m.session.QuickActions()
	return m.startSend(actions[i].Question, nil)
}

func (m Model) startSend(text string, images []model.ImageData) (tea.Model, tea.Cmd) {
	m.sending = true
	m.status = ""
	m.input.Blur()
	m.layout()
	return m, tea.Batch(m.sendCmd(text, images), m.spinner.Tick)
}

// sendCmd runs the blocking session send off the render loop.
func (m Model) sendCmd(text string, images []model.ImageData) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		msg, err := session.Send(context.Background(), text, images)
		return ReplyMsg{Message: msg, Err: err}
	}
}

func attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := attachment.Load(path)
		return AttachmentMsg{Path: path, Image: img, Err: err}
	}
}

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	if !m.sidebar.Focused {
		m.input.Focus()
	}

	switch {
	case errors.Is(msg.Err, chat.ErrEmptyMessage):
		m.setError("Tulis pertanyaan atau lampirkan file")
	case errors.Is(msg.Err, chat.ErrBusy):
		m.setError("Masih menunggu jawaban sebelumnya")
	case msg.Err != nil:
		m.setError(msg.Err.Error())
	}

	m.layout()
	m.refresh()
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

// =============================================================================
// HELPERS
// =============================================================================

// layout sizes the viewport and input for the current window.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	reserved := headerHeight + inputHeight + hintHeight
	if len(m.pending) > 0 {
		reserved++
	}
	h := m.height - reserved
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.theme.ContentWidth()
	m.viewport.Height = h
	m.sidebar.Height = h

	w := m.width - 8 // border, padding and prompt
	if w < 10 {
		w = 10
	}
	m.input.Width = w
}

// refresh re-renders the viewport content from the session.
func (m *Model) refresh() {
	msgs := m.session.Messages()
	m.rendered = len(msgs)
	m.sidebar.SetItems(m.session.History())

	if len(msgs) == 0 {
		m.welcome.Width = m.viewport.Width
		m.viewport.SetContent(m.welcome.View())
		return
	}
	m.messages.SetWidth(m.viewport.Width)
	m.messages.SetMessages(msgs)
	m.viewport.SetContent(m.messages.View())
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.isError = true
}

// Sending reports whether a request is in flight.
func (m Model) Sending() bool {
	return m.sending
}

// PendingAttachments returns the number of queued attachments.
func (m Model) PendingAttachments() int {
	return len(m.pending)
}
