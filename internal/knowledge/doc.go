// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package knowledge holds the static reference text, persona instructions and
// quick actions that brand a deployment of the assistant.
//
// # Key Types
//
//   - Site: a deployable office (land registry, police precinct) with its own
//     knowledge document, contact fallback and quick actions
//   - Persona: tone of voice applied on top of a site (formal, casual)
//   - Store: the knowledge text currently served, optionally reloaded from disk
//
// # Usage
//
//	site, _ := knowledge.LookupSite("bpn-grobogan")
//	persona, _ := knowledge.LookupPersona("formal")
//	store, err := knowledge.NewStore(site, "", logger)
//	preamble := persona.Preamble(site)
package knowledge
