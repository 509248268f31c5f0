package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"StockResearch/internal/domain/models"
	xlogger "StockResearch/pkg/logger"

	"github.com/gorilla/websocket"
)

// QuoteSink receives live trade ticks, typically to warm the quote cache so
// interactive calls are served without spending provider budget.
type QuoteSink interface {
	WarmQuote(ctx context.Context, trade models.StreamTrade)
}

// Stream is the Finnhub WebSocket trade stream.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	sink           QuoteSink
	logger         *xlogger.Logger

	// mu guards conn, which Close may touch from the shutdown path while
	// the run loop reconnects.
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewStream creates a live trade stream for the configured symbols.
func NewStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, sink QuoteSink, logger *xlogger.Logger) *Stream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		sink:           sink,
		logger:         logger,
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

// Run connects, subscribes, and feeds ticks to the sink until ctx is done.
// Connection failures trigger reconnects after the configured delay.
func (s *Stream) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.connect(ctx); err != nil {
			s.logger.Warn("stream connect failed", xlogger.Error(err))
			if !s.sleep(ctx, s.reconnectDelay) {
				return
			}
			continue
		}

		s.readLoop(ctx)
		_ = s.Close()

		if !s.sleep(ctx, s.reconnectDelay) {
			return
		}
	}
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.logger.Info("stream connected", xlogger.Strings("symbols", s.symbols))
	return nil
}

func (s *Stream) readLoop(ctx context.Context) {
	conn := s.current()
	if conn == nil {
		return
	}

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			s.logger.Warn("stream read failed", xlogger.Error(err))
			return
		}

		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-trade frames
			continue
		}
		if m.Type != "trade" {
			continue
		}

		for _, d := range m.Data {
			s.sink.WarmQuote(ctx, models.StreamTrade{
				Symbol:    d.S,
				Price:     d.P,
				Volume:    d.V,
				Timestamp: d.T / 1000,
			})
		}
	}
}

func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Close closes the current connection. Safe to call concurrently with Run.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *Stream) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
