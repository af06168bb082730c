// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the optional inquiry log.
//
// The log is a SQLite database (pure Go driver) that records metadata about
// each chat request the server answers: when, for which site and persona,
// how long the question was, how many attachments it carried, the status
// returned and the latency. The question and reply text are never written.
//
// # Usage
//
//	log, err := storage.Open(path)
//	defer log.Close()
//	err = log.Record(ctx, storage.Inquiry{Site: "bpn-grobogan", Status: 200})
//	stats, err := log.Stats(ctx)
package storage
