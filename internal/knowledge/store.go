// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrEmptyDocument is returned when a knowledge file has no content.
var ErrEmptyDocument = errors.New("knowledge document is empty")

// Store serves the knowledge text for one site. When backed by a file it can
// follow edits to that file; otherwise it serves the embedded document.
type Store struct {
	site   *Site
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	text string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads the knowledge text for site. An empty path selects the
// embedded document.
func NewStore(site *Site, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		site:   site,
		path:   path,
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Site returns the site this store serves.
func (s *Store) Site() *Site {
	return s.site
}

// Text returns the current knowledge text.
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Reload re-reads the backing document. On failure the previous text is kept.
func (s *Store) Reload() error {
	var (
		text string
		err  error
	)
	if s.path == "" {
		text, err = s.site.Document()
	} else {
		var data []byte
		data, err = os.ReadFile(s.path)
		if err != nil {
			err = fmt.Errorf("read knowledge file: %w", err)
		}
		text = string(data)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyDocument
	}

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return nil
}

// Watch follows the backing file and reloads it on change until ctx is done
// or Close is called. It is a no-op for the embedded document.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create knowledge watcher: %w", err)
	}
	// Watch the directory: editors often replace files via rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch knowledge directory: %w", err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.processEvents(ctx)
	return nil
}

func (s *Store) processEvents(ctx context.Context) {
	defer close(s.done)
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("knowledge reload failed, keeping previous text",
					zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.logger.Info("knowledge reloaded",
				zap.String("site", s.site.ID), zap.Int("bytes", len(s.Text())))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("knowledge watcher error", zap.Error(err))
		}
	}
}

// Close stops watching. It is safe to call on a store that never watched.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}
