// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini sends assembled prompts to the Google Gemini API.
//
// The Generator interface is the seam the HTTP handler depends on; Client is
// the production implementation built on google.golang.org/genai. One Client
// is created at startup and shared by all requests.
//
// # Usage
//
//	client, err := gemini.NewClient(ctx, gemini.Options{APIKey: key})
//	reply, err := client.Generate(ctx, p)
package gemini
