// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment turns files on disk into inline chat attachments.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/kantah-chat/internal/model"
)

// MaxSize is the largest file accepted as an attachment.
const MaxSize = 10 * 1024 * 1024

var (
	// ErrTooLarge is returned for files over MaxSize.
	ErrTooLarge = errors.New("attachment exceeds maximum size")

	// ErrUnsupportedType is returned for files that are neither images nor PDFs.
	ErrUnsupportedType = errors.New("attachment must be an image or PDF")
)

// extensionTypes covers formats http.DetectContentType does not recognise.
var extensionTypes = map[string]string{
	".heic": "image/heic",
	".heif": "image/heif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Load reads path and returns it as a base64 attachment.
func Load(path string) (model.ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ImageData{}, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.ImageData{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return model.ImageData{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxSize {
		return model.ImageData{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, filepath.Base(path), info.Size(), MaxSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return model.ImageData{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(data) > MaxSize {
		return model.ImageData{}, fmt.Errorf("%w: %s", ErrTooLarge, filepath.Base(path))
	}

	mimeType := DetectMimeType(path, data)
	if !Supported(mimeType) {
		return model.ImageData{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, filepath.Base(path), mimeType)
	}

	return model.ImageData{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, nil
}

// DetectMimeType sniffs the content first and falls back to the file extension
// when sniffing only yields a generic type.
func DetectMimeType(path string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = strings.TrimSpace(sniffed[:i])
	}
	if Supported(sniffed) {
		return sniffed
	}
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return sniffed
}

// Supported reports whether mimeType is an image or PDF.
func Supported(mimeType string) bool {
	return (strings.HasPrefix(mimeType, "image/") && len(mimeType) > len("image/")) ||
		mimeType == "application/pdf"
}
