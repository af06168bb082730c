// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: in-memory chat session with messages and a history index
//   - Message: single message with role, content, attachments and timestamp
//   - ImageData: base64 attachment payload with its MIME type
//   - HistoryItem: sidebar entry pointing back at a user message
//
// # Usage
//
//	conv := model.NewConversation()
//	msg := conv.AddUserMessage("Apa syarat balik nama?", nil)
//	conv.AddAssistantMessage("Syaratnya adalah ...")
//	idx := conv.IndexOf(conv.History()[0].ID) // == conv.IndexOf(msg.ID)
package model
