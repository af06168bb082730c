// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"sort"
)

//go:embed data/*.md
var documents embed.FS

// ErrUnknownSite is returned when a site id is not registered.
var ErrUnknownSite = errors.New("unknown site")

// QuickAction is a canned question offered on the empty chat screen.
type QuickAction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Question    string `json:"question"`
}

// Site describes one branded deployment.
type Site struct {
	ID string `json:"id"`
	// Name is the short display name shown in headers.
	Name string `json:"name"`
	// Identity is how the assistant introduces its institution.
	Identity string `json:"-"`
	// Topic is the short subject label used in the answering rules ("BPN").
	Topic string `json:"-"`
	// Fallback is the sentence used when the knowledge block has no answer.
	Fallback string `json:"-"`
	// DocumentHint tells the model what to extract from typical uploads.
	DocumentHint string `json:"-"`

	QuickActions []QuickAction `json:"quick_actions"`

	document string
}

// Document returns the embedded knowledge text for the site.
func (s *Site) Document() (string, error) {
	data, err := documents.ReadFile("data/" + s.document)
	if err != nil {
		return "", fmt.Errorf("read embedded knowledge for %s: %w", s.ID, err)
	}
	return string(data), nil
}

var sites = map[string]*Site{
	"bpn-grobogan": {
		ID:       "bpn-grobogan",
		Name:     "Kantor Pertanahan Kabupaten Grobogan",
		Identity: "Kantor Pertanahan Kabupaten Grobogan (BPN Grobogan), Kementerian ATR/BPN",
		Topic:    "BPN",
		Fallback: "Mohon maaf, saya tidak memiliki informasi tentang hal tersebut. " +
			"Silakan hubungi langsung Kantor Pertanahan Kabupaten Grobogan di nomor (0292) 421376 " +
			"atau WhatsApp 0823-2088-8815 untuk informasi lebih lanjut.",
		DocumentHint: "Untuk gambar sertifikat tanah, identifikasi: nomor sertifikat, nama pemegang hak, " +
			"lokasi tanah, luas tanah, jenis hak (HM/HGB/HP dll), dan informasi penting lainnya yang tertera.",
		QuickActions: []QuickAction{
			{
				Title:       "Informasi Layanan",
				Description: "Layanan pertanahan",
				Question:    "Apa saja layanan yang tersedia di Kantor Pertanahan Kabupaten Grobogan?",
			},
			{
				Title:       "Balik Nama/Waris",
				Description: "Prosedur & persyaratan",
				Question:    "Bagaimana syarat balik nama sertifikat tanah?",
			},
			{
				Title:       "Kontak & Alamat",
				Description: "Hubungi kami",
				Question:    "Berapa nomor kontak dan alamat BPN Grobogan?",
			},
			{
				Title:       "Jam Operasional",
				Description: "Waktu pelayanan",
				Question:    "Berapa jam operasional Kantor Pertanahan Kabupaten Grobogan?",
			},
		},
		document: "bpn-grobogan.md",
	},
	"polsek-rembang": {
		ID:       "polsek-rembang",
		Name:     "Polsek Rembang",
		Identity: "Kepolisian Sektor (Polsek) Rembang",
		Topic:    "Polsek",
		Fallback: "Mohon maaf, saya tidak memiliki informasi tentang hal tersebut. " +
			"Silakan datang langsung ke SPKT Polsek Rembang atau hubungi 110 untuk keadaan darurat.",
		DocumentHint: "Untuk gambar dokumen kepolisian (SKCK, surat laporan, surat kehilangan), identifikasi: " +
			"jenis dokumen, nomor dokumen, nama yang tercantum, tanggal terbit, dan masa berlaku bila ada.",
		QuickActions: []QuickAction{
			{
				Title:       "Buat SKCK",
				Description: "Syarat & biaya",
				Question:    "Apa saja syarat membuat SKCK di Polsek Rembang?",
			},
			{
				Title:       "Laporan Kehilangan",
				Description: "Prosedur pelaporan",
				Question:    "Bagaimana cara membuat laporan kehilangan?",
			},
			{
				Title:       "Kontak Darurat",
				Description: "Hubungi kami",
				Question:    "Nomor berapa yang bisa dihubungi dalam keadaan darurat?",
			},
			{
				Title:       "Jam Pelayanan",
				Description: "Waktu pelayanan",
				Question:    "Kapan jam pelayanan Polsek Rembang?",
			},
		},
		document: "polsek-rembang.md",
	},
}

// LookupSite returns the site registered under id.
func LookupSite(id string) (*Site, error) {
	site, ok := sites[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, id)
	}
	return site, nil
}

// SiteIDs returns the registered site ids in sorted order.
func SiteIDs() []string {
	ids := make([]string, 0, len(sites))
	for id := range sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
