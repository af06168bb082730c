// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the kantah command line.
//
// Commands:
//
//	kantah serve                 run the chat API server
//	kantah chat [--plain]        chat with a running server
//	kantah ask "question"        ask one question and print the answer
//	kantah config show|path|init inspect or create the config file
//	kantah inquiries             summarise the inquiry log
//	kantah version               print build information
//
// Configuration is read from ~/.kantah/config.toml (or config.yaml, or the
// file given with --config). Environment variables override file values.
package cli
