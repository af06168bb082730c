// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage_CopiesImages(t *testing.T) {
	images := []ImageData{{Data: "aGFsbw==", MimeType: "image/png"}}
	msg := NewUserMessage("lihat ini", images)

	images[0].Data = "changed"
	require.Len(t, msg.Images, 1)
	assert.Equal(t, "aGFsbw==", msg.Images[0].Data)
	assert.True(t, msg.HasImages())
	assert.True(t, msg.IsUser())
	assert.True(t, strings.HasPrefix(msg.ID, "msg_"))
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewAssistantMessage("x").ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "Anda", RoleUser.DisplayName())
	assert.Equal(t, "Asisten", RoleAssistant.DisplayName())
	assert.Equal(t, "other", Role("other").DisplayName())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		images  int
		want    string
	}{
		{"plain", "Apa jam operasional?", 0, "Apa jam operasional?"},
		{"trimmed", "  Berapa biaya?\n", 0, "Berapa biaya?"},
		{"image only", "   ", 2, "[2 gambar/dokumen]"},
		{"empty", "", 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summarize(tc.content, tc.images))
		})
	}
}

func TestSummarize_Truncates(t *testing.T) {
	long := strings.Repeat("sertifikat ", 20)
	got := Summarize(long, 0)
	assert.LessOrEqual(t, len([]rune(got)), SummaryWidth)
	assert.True(t, strings.HasSuffix(got, "..."))
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_HistoryTracksUserMessages(t *testing.T) {
	conv := NewConversation()

	u1 := conv.AddUserMessage("Pertanyaan satu", nil)
	conv.AddAssistantMessage("Jawaban satu")
	u2 := conv.AddUserMessage("", []ImageData{{Data: "eA==", MimeType: "image/jpeg"}})
	conv.AddAssistantMessage("Jawaban dua")

	history := conv.History()
	require.Len(t, history, 2)
	assert.Equal(t, 4, conv.MessageCount())
	assert.Equal(t, u1.ID, history[0].ID)
	assert.Equal(t, u2.ID, history[1].ID)
	assert.Equal(t, "[1 gambar/dokumen]", history[1].Summary)

	for _, item := range history {
		idx := conv.IndexOf(item.ID)
		require.GreaterOrEqual(t, idx, 0)
		assert.True(t, conv.Messages()[idx].IsUser())
	}
}

func TestConversation_Reset(t *testing.T) {
	conv := NewConversation()
	oldID := conv.ID
	conv.AddUserMessage("halo", nil)
	conv.AddAssistantMessage("halo juga")

	conv.Reset()

	assert.True(t, conv.IsEmpty())
	assert.Empty(t, conv.History())
	assert.NotEqual(t, oldID, conv.ID)
	assert.Equal(t, -1, conv.IndexOf("missing"))
	assert.Zero(t, conv.MessageCount())
}

func TestConversation_SnapshotsAreCopies(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("halo", nil)

	msgs := conv.Messages()
	msgs[0] = nil
	assert.NotNil(t, conv.Messages()[0])

	hist := conv.History()
	hist[0].Summary = "changed"
	assert.Equal(t, "halo", conv.History()[0].Summary)
}
