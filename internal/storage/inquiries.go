// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned when the log is used after Close.
var ErrClosed = errors.New("inquiry log is closed")

// =============================================================================
// TYPES
// =============================================================================

// Inquiry is the metadata recorded for one served chat request.
type Inquiry struct {
	ID         int64         `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	Site       string        `json:"site"`
	Persona    string        `json:"persona"`
	MessageLen int           `json:"message_len"`
	ImageCount int           `json:"image_count"`
	Status     int           `json:"status"`
	Latency    time.Duration `json:"latency_ns"`
}

// Stats aggregates the inquiry log.
type Stats struct {
	Total          int           `json:"total"`
	ByStatus       map[int]int   `json:"by_status"`
	WithImages     int           `json:"with_images"`
	AverageLatency time.Duration `json:"average_latency_ns"`
	First          time.Time     `json:"first,omitempty"`
	Last           time.Time     `json:"last,omitempty"`
}

// Succeeded returns the number of 2xx inquiries.
func (s Stats) Succeeded() int {
	n := 0
	for code, count := range s.ByStatus {
		if code >= 200 && code < 300 {
			n += count
		}
	}
	return n
}

// String renders the stats for terminal output.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total inquiries: %d\n", s.Total)
	if s.Total == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "With attachments: %d\n", s.WithImages)
	fmt.Fprintf(&b, "Average latency: %s\n", s.AverageLatency.Round(time.Millisecond))
	fmt.Fprintf(&b, "Period: %s - %s\n", s.First.Format("2006-01-02 15:04"), s.Last.Format("2006-01-02 15:04"))

	codes := make([]int, 0, len(s.ByStatus))
	for code := range s.ByStatus {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, "  %d: %d\n", code, s.ByStatus[code])
	}
	return b.String()
}

// =============================================================================
// INQUIRY LOG
// =============================================================================

// InquiryLog is a SQLite-backed append-only log of inquiries.
// It is safe for concurrent use.
type InquiryLog struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Open opens or creates the inquiry log at path.
func Open(path string) (*InquiryLog, error) {
	if path == "" {
		return nil, errors.New("inquiry log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &InquiryLog{db: db, path: path}, nil
}

// Path returns the database file path.
func (l *InquiryLog) Path() string {
	return l.path
}

// Record appends one inquiry. A zero CreatedAt is set to now.
func (l *InquiryLog) Record(ctx context.Context, inq Inquiry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}

	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO inquiries (created_at, site, persona, message_len, image_count, status, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inq.CreatedAt.UnixMilli(), inq.Site, inq.Persona, inq.MessageLen,
		inq.ImageCount, inq.Status, inq.Latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record inquiry: %w", err)
	}
	return nil
}

// Recent returns up to limit inquiries, newest first.
func (l *InquiryLog) Recent(ctx context.Context, limit int) ([]Inquiry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, site, persona, message_len, image_count, status, latency_ms
		 FROM inquiries ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	defer rows.Close()

	var out []Inquiry
	for rows.Next() {
		var (
			inq       Inquiry
			createdMs int64
			latencyMs int64
		)
		if err := rows.Scan(&inq.ID, &createdMs, &inq.Site, &inq.Persona,
			&inq.MessageLen, &inq.ImageCount, &inq.Status, &latencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inq.CreatedAt = time.UnixMilli(createdMs)
		inq.Latency = time.Duration(latencyMs) * time.Millisecond
		out = append(out, inq)
	}
	return out, rows.Err()
}

// Stats aggregates the whole log.
func (l *InquiryLog) Stats(ctx context.Context) (Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Stats{}, ErrClosed
	}

	stats := Stats{ByStatus: make(map[int]int)}

	var (
		avgLatency sql.NullFloat64
		firstMs    sql.NullInt64
		lastMs     sql.NullInt64
		withImages sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(latency_ms), MIN(created_at), MAX(created_at),
		        SUM(CASE WHEN image_count > 0 THEN 1 ELSE 0 END)
		 FROM inquiries`).Scan(&stats.Total, &avgLatency, &firstMs, &lastMs, &withImages)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate inquiries: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	stats.AverageLatency = time.Duration(avgLatency.Float64 * float64(time.Millisecond))
	stats.First = time.UnixMilli(firstMs.Int64)
	stats.Last = time.UnixMilli(lastMs.Int64)
	stats.WithImages = int(withImages.Int64)

	rows, err := l.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM inquiries GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to group inquiries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code, count int
		if err := rows.Scan(&code, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[code] = count
	}
	return stats, rows.Err()
}

// Close closes the database. Further calls return ErrClosed.
func (l *InquiryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
