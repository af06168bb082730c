// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import "strings"

// CleanResponse removes bold markers from model output and turns any
// remaining asterisk into a dash, so bullet lists survive as plain text.
// The result never contains "*".
func CleanResponse(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	return strings.ReplaceAll(text, "*", "-")
}
