package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockResearch/internal/domain/models"
	pkgch "StockResearch/pkg/clickhouse"
	xlogger "StockResearch/pkg/logger"
)

// AuditSchema creates the api_calls table (idempotent).
var AuditSchema = []string{
	`CREATE TABLE IF NOT EXISTS api_calls (
		ts DateTime,
		provider LowCardinality(String),
		endpoint LowCardinality(String),
		key String,
		ticker String,
		outcome LowCardinality(String),
		latency_ms Int64
	) ENGINE = MergeTree()
	ORDER BY (provider, ts)`,
}

// ClickHouseAudit buffers call records and batch-inserts them. Records are
// dropped, never blocking, when the buffer is full: audit must not slow the
// serving path.
type ClickHouseAudit struct {
	ch     *pkgch.Client
	table  string
	logger *xlogger.Logger

	mu     sync.Mutex
	buf    []models.CallRecord
	max    int
	ticker *time.Ticker
	done   chan struct{}
}

// NewClickHouseAudit creates the sink and starts its flush loop.
func NewClickHouseAudit(ch *pkgch.Client, batchSize int, flushEvery time.Duration, logger *xlogger.Logger) *ClickHouseAudit {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}
	a := &ClickHouseAudit{
		ch:     ch,
		table:  "api_calls",
		logger: logger,
		buf:    make([]models.CallRecord, 0, batchSize),
		max:    batchSize,
		ticker: time.NewTicker(flushEvery),
		done:   make(chan struct{}),
	}
	go a.flushLoop()
	return a
}

// Record buffers one call record.
func (a *ClickHouseAudit) Record(_ context.Context, rec models.CallRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buf) >= a.max*2 {
		// backpressure: drop rather than block the hot path
		return
	}
	a.buf = append(a.buf, rec)

	if len(a.buf) >= a.max {
		batch := a.buf
		a.buf = make([]models.CallRecord, 0, a.max)
		go a.insert(batch)
	}
}

func (a *ClickHouseAudit) flushLoop() {
	for {
		select {
		case <-a.done:
			return
		case <-a.ticker.C:
			a.mu.Lock()
			if len(a.buf) == 0 {
				a.mu.Unlock()
				continue
			}
			batch := a.buf
			a.buf = make([]models.CallRecord, 0, a.max)
			a.mu.Unlock()
			a.insert(batch)
		}
	}
}

// insert writes one batch with a multi-row VALUES insert.
func (a *ClickHouseAudit) insert(batch []models.CallRecord) {
	if len(batch) == 0 {
		return
	}

	values := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*7)
	for _, r := range batch {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.At, r.Provider, r.Endpoint, r.Key, r.Ticker, r.Outcome, r.LatencyMS)
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ts, provider, endpoint, key, ticker, outcome, latency_ms) VALUES %s",
		a.table, strings.Join(values, ","),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := a.ch.DB().ExecContext(ctx, q, args...); err != nil {
		a.logger.Warn("audit insert failed",
			xlogger.Int("rows", len(batch)), xlogger.Error(err))
	}
}

// Close flushes whatever is buffered and stops the loop.
func (a *ClickHouseAudit) Close() error {
	a.ticker.Stop()
	close(a.done)

	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	a.insert(batch)
	return a.ch.Close()
}
