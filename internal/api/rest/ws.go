package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"unibook/internal/infra/metrics"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	// The display client is served from its own origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes the merged book for one currency to the client on the
// configured interval until the client goes away. The payload is the same
// JSON the /api endpoint returns, so a streaming client and a polling client
// share one decoder.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.StreamClientsGauge.Inc()
	defer metrics.StreamClientsGauge.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain the read side to notice close frames and dropped peers.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(s.streamInt)
	defer tick.Stop()
	for {
		if err := s.pushOnce(ctx, conn, currency); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (s *Server) pushOnce(ctx context.Context, conn *websocket.Conn, currency string) error {
	merged, err := s.mergedBook(ctx, currency)
	if err != nil {
		// A fully failed cycle is not fatal to the stream; the next tick
		// may succeed.
		s.logger.Warn().Err(err).Str("currency", currency).Msg("stream cycle failed")
		return nil
	}
	body, err := renderBook(merged, s.sources)
	if err != nil {
		s.logger.Error().Err(err).Str("currency", currency).Msg("stream render failed")
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return err
	}
	return nil
}
