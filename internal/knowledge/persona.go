// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPersona is returned when a persona id is not registered.
var ErrUnknownPersona = errors.New("unknown persona")

// Persona is the tone of voice layered over a site.
type Persona struct {
	ID string
	// Intro opens the preamble; %s is the site identity.
	Intro string
	// Tone is the rule describing how answers should sound.
	Tone string
	// Representation is the closing behavioural rule; %s is the site name.
	Representation string
	// Closing is the sentence placed between the knowledge block and the question.
	Closing string
}

var personas = map[string]*Persona{
	"formal": {
		ID:             "formal",
		Intro:          "Kamu adalah asisten virtual resmi %s.",
		Tone:           "Jawab dengan bahasa yang natural, ramah, dan mudah dipahami seperti berbicara dengan manusia.",
		Representation: "Selalu tampilkan diri sebagai representasi profesional dari %s.",
		Closing:        "Berdasarkan data di atas, jawab pertanyaan berikut dengan natural dan ramah:",
	},
	"casual": {
		ID:             "casual",
		Intro:          "Kamu adalah asisten virtual %s yang santai dan bersahabat.",
		Tone:           "Jawab dengan bahasa santai sehari-hari, hangat, dan tetap sopan. Sapa pengguna dengan \"Kak\".",
		Representation: "Walaupun santai, kamu tetap mewakili %s, jadi jangan bercanda soal prosedur atau biaya.",
		Closing:        "Berdasarkan data di atas, jawab pertanyaan berikut dengan santai tapi tetap jelas:",
	},
}

// LookupPersona returns the persona registered under id.
func LookupPersona(id string) (*Persona, error) {
	p, ok := personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
	}
	return p, nil
}

// PersonaIDs returns the registered persona ids in sorted order.
func PersonaIDs() []string {
	ids := make([]string, 0, len(personas))
	for id := range personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Preamble renders the behavioural instructions for the persona at site.
// The knowledge block and the user's question are appended by the prompt package.
func (p *Persona) Preamble(site *Site) string {
	var b strings.Builder

	fmt.Fprintf(&b, p.Intro, site.Identity)
	b.WriteString("\n\nATURAN PENTING YANG WAJIB DIPATUHI:\n")

	rules := []string{
		fmt.Sprintf("HANYA jawab pertanyaan berdasarkan data berikut ini untuk pertanyaan tentang %[1]s. "+
			"JANGAN menjawab di luar konteks data yang diberikan untuk topik %[1]s.", site.Topic),
		fmt.Sprintf("Jika pertanyaan tentang %s tidak ada dalam data, jawab dengan sopan: \"%s\"", site.Topic, site.Fallback),
		p.Tone,
		"JANGAN PERNAH menggunakan tanda bintang ganda (**) atau formatting markdown dalam jawaban. Gunakan teks biasa saja.",
		"Jangan gunakan bullet points dengan tanda *, gunakan tanda - atau nomor saja.",
		"Jawab dengan singkat, padat, dan informatif.",
		fmt.Sprintf(p.Representation, site.Name),
	}
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	b.WriteString("\nKEMAMPUAN ANALISIS GAMBAR/DOKUMEN:\n")
	imageRules := []string{
		"Jika pengguna mengirim gambar atau dokumen, WAJIB analisis dengan teliti dan deskriptif.",
		site.DocumentHint,
		"Untuk dokumen lainnya, baca dan jelaskan isi dokumen tersebut dengan lengkap.",
		"Jika gambar tidak jelas atau tidak dapat dibaca, sampaikan dengan sopan dan minta gambar yang lebih jelas.",
		"PENTING: Deskripsikan ISI dari gambar/dokumen, BUKAN nama file-nya.",
	}
	for i, r := range imageRules {
		fmt.Fprintf(&b, "%d. %s\n", len(rules)+i+1, r)
	}

	return strings.TrimRight(b.String(), "\n")
}
