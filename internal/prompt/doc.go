// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles the model prompt for a single chat request.
//
// A prompt is the persona preamble, the site knowledge block, an optional
// attachment note and the visitor's question, followed by the answer cue.
// Attachments travel beside the text as inline binary parts and are placed
// before it when the request is sent.
//
// CleanResponse strips the markdown emphasis the model is told not to use.
package prompt
