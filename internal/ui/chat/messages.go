// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/kantah-chat/internal/model"
)

// ReplyMsg carries the outcome of a session send back to the render loop.
type ReplyMsg struct {
	Message *model.Message
	Err     error
}

// AttachmentMsg reports a file read by /attach.
type AttachmentMsg struct {
	Path  string
	Image model.ImageData
	Err   error
}

// pendingAttachment is a file queued for the next message.
type pendingAttachment struct {
	name  string
	image model.ImageData
}
