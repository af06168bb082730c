// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/model"
)

const (
	referenceHeader = "\n\nDATA REFERENSI:\n"
	questionPrefix  = "Pertanyaan dari masyarakat: "
	answerCue       = "Jawaban (dalam bahasa Indonesia, natural, tanpa formatting markdown):"

	// DefaultImageQuestion is asked on the visitor's behalf when only
	// attachments were sent.
	DefaultImageQuestion = "Tolong analisis dan jelaskan isi dari gambar/dokumen yang saya kirim ini."
)

// Prompt is the assembled input for one model call.
type Prompt struct {
	Text   string
	Images []model.ImageData
}

// HasImages reports whether the prompt carries attachments.
func (p Prompt) HasImages() bool {
	return len(p.Images) > 0
}

// Assembler builds prompts for a fixed persona and site.
type Assembler struct {
	persona  *knowledge.Persona
	site     *knowledge.Site
	preamble string
}

// NewAssembler creates an assembler. The preamble is rendered once.
func NewAssembler(persona *knowledge.Persona, site *knowledge.Site) *Assembler {
	return &Assembler{
		persona:  persona,
		site:     site,
		preamble: persona.Preamble(site),
	}
}

// Persona returns the persona the assembler renders.
func (a *Assembler) Persona() *knowledge.Persona {
	return a.persona
}

// Site returns the site the assembler renders.
func (a *Assembler) Site() *knowledge.Site {
	return a.site
}

// Build assembles the prompt for one request. knowledgeText is the current
// reference document; message may be empty when images are present.
func (a *Assembler) Build(knowledgeText, message string, images []model.ImageData) Prompt {
	message = NormalizeMessage(message)

	var b strings.Builder
	b.Grow(len(a.preamble) + len(knowledgeText) + len(message) + 512)

	b.WriteString(a.preamble)
	b.WriteString(referenceHeader)
	b.WriteString(strings.TrimSpace(knowledgeText))
	b.WriteString("\n\n")
	b.WriteString(a.persona.Closing)
	b.WriteString("\n\n")

	if len(images) > 0 {
		fmt.Fprintf(&b, "[Pengguna mengirim %d gambar/dokumen untuk dianalisis]\n\n", len(images))
	}

	b.WriteString(questionPrefix)
	if message == "" && len(images) > 0 {
		b.WriteString(DefaultImageQuestion)
	} else {
		b.WriteString(message)
	}
	b.WriteString("\n\n")

	b.WriteString(answerCue)

	var imgs []model.ImageData
	if len(images) > 0 {
		imgs = make([]model.ImageData, len(images))
		copy(imgs, images)
	}
	return Prompt{Text: b.String(), Images: imgs}
}

// NormalizeMessage applies NFC normalization and trims surrounding whitespace.
func NormalizeMessage(message string) string {
	return strings.TrimSpace(norm.NFC.String(message))
}
