package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockResearch/internal/domain/models"
	xlogger "StockResearch/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSink struct {
	trades chan models.StreamTrade
}

func (s chanSink) WarmQuote(_ context.Context, trade models.StreamTrade) {
	select {
	case s.trades <- trade:
	default:
	}
}

func wsTradeServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("token"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_ = c.WriteJSON(map[string]interface{}{
			"type": "trade",
			"data": []map[string]interface{}{
				{"s": "AAPL", "p": 190.54, "v": 100, "t": 1700000000000},
			},
		})
		// Hold the connection until the client closes it.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamDeliversTrades(t *testing.T) {
	sink := chanSink{trades: make(chan models.StreamTrade, 1)}
	s := NewStream("token", wsTradeServer(t), []string{"AAPL"},
		10*time.Millisecond, time.Minute, sink, xlogger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case trade := <-sink.trades:
		assert.Equal(t, "AAPL", trade.Symbol)
		assert.InDelta(t, 190.54, trade.Price, 0.001)
		assert.Equal(t, int64(1700000000), trade.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("no trade received")
	}

	cancel()
	require.NoError(t, s.Close())
}

func TestStreamCloseDuringRunIsSafe(t *testing.T) {
	sink := chanSink{trades: make(chan models.StreamTrade, 1)}
	s := NewStream("token", wsTradeServer(t), []string{"AAPL"},
		10*time.Millisecond, time.Minute, sink, xlogger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for the connection, then shut down from the outside while the
	// run loop is blocked reading, the way the server shutdown path does.
	select {
	case <-sink.trades:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never connected")
	}
	cancel()
	require.NoError(t, s.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestStreamCloseWithoutConnect(t *testing.T) {
	s := NewStream("token", "ws://unused.invalid", nil,
		time.Second, time.Minute, nil, xlogger.Nop())
	assert.NoError(t, s.Close())
}
