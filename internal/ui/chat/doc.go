// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for the terminal client.
//
// The view wraps a chat.Session. Requests run in a tea.Cmd so the render loop
// keeps animating the spinner while the session is sending; the input is
// blurred until the reply arrives.
//
// Slash commands:
//
//	/attach <path>   queue an image or PDF for the next message
//	/detach          drop queued attachments
//	/new             start a new chat
//	/quit            exit
package chat
