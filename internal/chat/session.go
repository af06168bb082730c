// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/api"
	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/model"
)

// Replies shown in place of an answer when a request fails.
const (
	ErrorReply           = "Maaf, terjadi kesalahan. Silakan coba lagi."
	ConnectionErrorReply = "Maaf, terjadi kesalahan koneksi. Silakan coba lagi."
)

var (
	// ErrEmptyMessage is returned when neither text nor attachments were given.
	ErrEmptyMessage = errors.New("message or images are required")

	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrNoQuickAction is returned for an out-of-range quick action index.
	ErrNoQuickAction = errors.New("no such quick action")
)

// =============================================================================
// STATE
// =============================================================================

// State is the session's request state.
type State int

const (
	StateIdle    State = iota // Ready for input
	StateSending              // Waiting for the server
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Sender delivers a chat request to the server.
type Sender interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one visitor's chat.
type Session struct {
	mu sync.RWMutex

	sender       Sender
	conv         *model.Conversation
	state        State
	quickActions []knowledge.QuickAction
	logger       *zap.Logger
}

// NewSession creates an idle session with an empty conversation.
func NewSession(sender Sender) *Session {
	return &Session{
		sender: sender,
		conv:   model.NewConversation(),
		state:  StateIdle,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (s *Session) WithLogger(logger *zap.Logger) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SetQuickActions replaces the starter questions offered on an empty chat.
func (s *Session) SetQuickActions(actions []knowledge.QuickAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quickActions = append([]knowledge.QuickAction(nil), actions...)
}

// QuickActions returns the starter questions.
func (s *Session) QuickActions() []knowledge.QuickAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]knowledge.QuickAction(nil), s.quickActions...)
}

// Send submits one question and blocks until the assistant message has been
// appended. The returned message is that assistant message.
//
// Send fails without touching the conversation when the input is empty
// (ErrEmptyMessage) or another request is in flight (ErrBusy).
func (s *Session) Send(ctx context.Context, content string, images []model.ImageData) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(images) == 0 {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.conv.AddUserMessage(content, images)
	s.state = StateSending
	convID := s.conv.ID
	logger := s.logger
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}()

	reply := s.request(ctx, logger, api.ChatRequest{Message: content, Images: images})

	s.mu.Lock()
	defer s.mu.Unlock()

	// A reply that outlives a New Chat lands in the current conversation.
	if s.conv.ID != convID {
		logger.Debug("reply arrived after new chat", zap.String("conversation", convID))
	}
	return s.conv.AddAssistantMessage(reply), nil
}

// request performs the network call and maps its outcome to reply text.
func (s *Session) request(ctx context.Context, logger *zap.Logger, req api.ChatRequest) string {
	resp, err := s.sender.Chat(ctx, req)
	if err != nil {
		logger.Warn("chat request failed", zap.Error(err))
		return ConnectionErrorReply
	}
	if !resp.Success {
		logger.Warn("chat request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", resp.Error))
		return ErrorReply
	}
	return resp.Message
}

// QuickAction sends the i-th starter question.
func (s *Session) QuickAction(ctx context.Context, i int) (*model.Message, error) {
	s.mu.RLock()
	if i < 0 || i >= len(s.quickActions) {
		s.mu.RUnlock()
		return nil, ErrNoQuickAction
	}
	question := s.quickActions[i].Question
	s.mu.RUnlock()

	return s.Send(ctx, question, nil)
}

// NewChat clears messages and history.
func (s *Session) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Reset()
}

// Lookup returns the message index for a history entry, for scrolling the
// message list to the question it summarises.
func (s *Session) Lookup(historyID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.conv.IndexOf(historyID)
	return i, i >= 0
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Messages()
}

// MessageCount returns the number of messages without copying them.
func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.MessageCount()
}

// History returns a snapshot of the history index.
func (s *Session) History() []model.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.History()
}

// IsLoading reports whether a request is in flight.
func (s *Session) IsLoading() bool {
	return s.State() == StateSending
}

// State returns the current request state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsEmpty reports whether the conversation has no messages, which is when
// quick actions are offered.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.IsEmpty()
}
