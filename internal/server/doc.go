// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the chat assistant's HTTP API.
//
// Endpoints:
//   - POST /api/chat          - answer a visitor question, optionally with attachments
//   - GET  /api/quick-actions - the site's suggested starter questions
//   - GET  /health            - liveness plus site, persona and model
//   - GET  /stats             - request counters since start
//
// Every response from /api/chat is a JSON envelope: {message, success:true}
// on success and {error, success:false} otherwise. Upstream error details are
// logged, never returned.
//
// Requests pass through recovery, security headers, request logging, per-IP
// rate limiting, CORS and (when a token is configured) bearer authentication.
package server
