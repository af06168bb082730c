// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual pieces of the chat view: message
// bubbles, the history sidebar and the welcome screen with quick actions.
package components
