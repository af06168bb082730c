// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *InquiryLog {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "data", "inquiries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestInquiryLog_RecordAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(ctx, Inquiry{
		CreatedAt: base, Site: "bpn-grobogan", Persona: "formal",
		MessageLen: 20, Status: 200, Latency: 1500 * time.Millisecond,
	}))
	require.NoError(t, l.Record(ctx, Inquiry{
		CreatedAt: base.Add(time.Minute), Site: "bpn-grobogan", Persona: "formal",
		ImageCount: 2, Status: 500, Latency: 300 * time.Millisecond,
	}))

	recent, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 500, recent[0].Status)
	assert.Equal(t, 2, recent[0].ImageCount)
	assert.Equal(t, 200, recent[1].Status)
	assert.Equal(t, 1500*time.Millisecond, recent[1].Latency)
	assert.True(t, base.Equal(recent[1].CreatedAt))
}

func TestInquiryLog_Stats(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	empty, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Contains(t, empty.String(), "Total inquiries: 0")

	for _, status := range []int{200, 200, 400, 500} {
		require.NoError(t, l.Record(ctx, Inquiry{Site: "polsek-rembang", Persona: "casual", Status: status, Latency: 100 * time.Millisecond}))
	}
	require.NoError(t, l.Record(ctx, Inquiry{Site: "polsek-rembang", Persona: "casual", ImageCount: 1, Status: 200, Latency: 600 * time.Millisecond}))

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[200])
	assert.Equal(t, 1, stats.ByStatus[400])
	assert.Equal(t, 1, stats.ByStatus[500])
	assert.Equal(t, 3, stats.Succeeded())
	assert.Equal(t, 1, stats.WithImages)
	assert.Equal(t, 200*time.Millisecond, stats.AverageLatency)
	assert.Contains(t, stats.String(), "  500: 1")
}

func TestInquiryLog_ConcurrentRecord(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(ctx, Inquiry{Site: "bpn-grobogan", Persona: "formal", Status: 200}))
		}()
	}
	wg.Wait()

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Total)
}

func TestInquiryLog_Closed(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Record(context.Background(), Inquiry{}), ErrClosed)
	_, err := l.Stats(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInquiryLog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquiries.db")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(context.Background(), Inquiry{Site: "s", Persona: "p", Status: 200}))
	require.NoError(t, l.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()
	stats, err := l2.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, path, l2.Path())
}
