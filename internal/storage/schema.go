// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// Schema is the inquiry log schema. It is applied on every open.
const Schema = `
-- One row per served chat request. Message content is never stored.
CREATE TABLE IF NOT EXISTS inquiries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL,   -- Unix milliseconds
    site TEXT NOT NULL,
    persona TEXT NOT NULL,
    message_len INTEGER NOT NULL,  -- runes in the normalized question
    image_count INTEGER NOT NULL,
    status INTEGER NOT NULL,       -- HTTP status returned to the client
    latency_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at);
CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status);
`
