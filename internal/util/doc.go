// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers shared across packages.
//
// # Key Functions
//
//   - TruncateWidth: display-width safe truncation
//   - SingleLine: whitespace folding for one-line summaries
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
