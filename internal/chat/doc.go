// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the client-side chat session.
//
// A Session owns one in-memory conversation and allows a single request in
// flight at a time (idle, then sending, then idle again). Every accepted Send
// appends the user message and its history entry, makes one call to the chat
// server and appends exactly one assistant message, which is a localized
// apology when the server rejects the request or cannot be reached.
//
// Sessions are safe for concurrent use so a terminal UI can render while a
// send runs on another goroutine.
package chat
