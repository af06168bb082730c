// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the chat assistant server.
//
// Client.Chat posts one question to /api/chat and decodes the JSON envelope
// whatever the status code, so callers can tell an answered request, a
// rejected one and an upstream failure apart. Only transport failures and
// undecodable bodies are returned as errors. Requests are never retried.
package api
