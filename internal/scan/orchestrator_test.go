package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mikey/awb-scanner/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFinder echoes the message subject back as a match so tests can tell
// which messages were scanned. Subjects starting with "panic" blow up.
type stubFinder struct {
	mu      sync.Mutex
	scanned int
}

func (f *stubFinder) FindAll(_ context.Context, msg *core.Message) []core.ReferenceMatch {
	if strings.HasPrefix(msg.Subject, "panic") {
		panic("boom")
	}

	f.mu.Lock()
	f.scanned++
	f.mu.Unlock()

	if msg.Subject == "" {
		return nil
	}
	return []core.ReferenceMatch{{
		Code:       msg.Subject,
		Carrier:    "THY",
		Confidence: 0.9,
		Location:   core.LocationSubject,
	}}
}

func newTestOrchestrator(finder core.ReferenceFinder, workers int) *Orchestrator {
	svc := core.NewScanService(finder, nil, zap.NewNop())
	return NewOrchestrator(svc, workers, zap.NewNop())
}

func corpus(n int) []core.Message {
	messages := make([]core.Message, n)
	for i := range messages {
		messages[i] = core.Message{Subject: fmt.Sprintf("235-%08d", i)}
	}
	return messages
}

func TestScanEmptyCorpus(t *testing.T) {
	o := newTestOrchestrator(&stubFinder{}, 2)
	defer o.Stop()

	var reported []int
	matches := o.Scan(context.Background(), nil, 10, func(p int) {
		reported = append(reported, p)
	})

	assert.Empty(t, matches)
	assert.Equal(t, []int{100}, reported)
}

func TestScanReportsBatchProgress(t *testing.T) {
	finder := &stubFinder{}
	o := newTestOrchestrator(finder, 2)
	defer o.Stop()

	var reported []int
	matches := o.Scan(context.Background(), corpus(25), 10, func(p int) {
		reported = append(reported, p)
	})

	// 25 messages in batches of 10 make three batches
	assert.Equal(t, []int{33, 66, 100}, reported)
	assert.Len(t, matches, 25)
	assert.Equal(t, 25, finder.scanned)
}

func TestScanProgressNeverDecreases(t *testing.T) {
	o := newTestOrchestrator(&stubFinder{}, 4)
	defer o.Stop()

	var reported []int
	o.Scan(context.Background(), corpus(17), 3, func(p int) {
		reported = append(reported, p)
	})

	require.NotEmpty(t, reported)
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1])
	}
	assert.Equal(t, 100, reported[len(reported)-1])
}

func TestScanDeduplicatesAcrossBatches(t *testing.T) {
	messages := make([]core.Message, 20)
	for i := range messages {
		messages[i] = core.Message{Subject: "235-12345678"}
	}

	o := newTestOrchestrator(&stubFinder{}, 2)
	defer o.Stop()

	matches := o.Scan(context.Background(), messages, 5, nil)

	require.Len(t, matches, 1)
	assert.Equal(t, "235-12345678", matches[0].Code)
}

func TestScanIsolatesPanickingBatch(t *testing.T) {
	messages := corpus(20)
	// poison one batch; its messages are lost but the rest survive
	messages[12].Subject = "panic-please"

	o := newTestOrchestrator(&stubFinder{}, 2)
	defer o.Stop()

	var reported []int
	matches := o.Scan(context.Background(), messages, 10, func(p int) {
		reported = append(reported, p)
	})

	assert.Len(t, matches, 10)
	assert.Equal(t, []int{50, 100}, reported)
}

func TestScanDefaultBatchSize(t *testing.T) {
	finder := &stubFinder{}
	o := newTestOrchestrator(finder, 2)
	defer o.Stop()

	matches := o.Scan(context.Background(), corpus(5), 0, nil)

	assert.Len(t, matches, 5)
	assert.Equal(t, 5, finder.scanned)
}

func TestScanHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finder := &stubFinder{}
	o := newTestOrchestrator(finder, 2)
	defer o.Stop()

	matches := o.Scan(ctx, corpus(30), 10, nil)

	assert.Empty(t, matches)
	assert.Zero(t, finder.scanned)
}

func TestStopIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(&stubFinder{}, 2)

	o.Stop()
	o.Stop()
}

func TestScanAfterStopReturnsNothing(t *testing.T) {
	finder := &stubFinder{}
	o := newTestOrchestrator(finder, 2)
	o.Stop()

	matches := o.Scan(context.Background(), corpus(5), 10, nil)

	assert.Empty(t, matches)
	assert.Zero(t, finder.scanned)
}
