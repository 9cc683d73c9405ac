package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
)

const (
	wsSubprotocol = "crewdeck.feed.v1"

	wsDefaultSendQueueSize = 256
	wsDefaultWriteTimeout  = 5 * time.Second
)

// WSGateway upgrades dashboard connections and streams feed events to them.
type WSGateway struct {
	log *slog.Logger
	hub *Hub

	// Accept() authorizes same-host origins by default; cross-origin hosts
	// must be listed here.
	originPatterns []string

	writeTimeout  time.Duration
	sendQueueSize int
}

// GatewayOption configures WSGateway.
type GatewayOption func(*WSGateway)

// WithOriginPatterns allows cross-origin hosts (e.g. a separately hosted UI).
func WithOriginPatterns(patterns []string) GatewayOption {
	return func(g *WSGateway) {
		g.originPatterns = patterns
	}
}

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) GatewayOption {
	return func(g *WSGateway) {
		if d > 0 {
			g.writeTimeout = d
		}
	}
}

// WithSendQueueSize sets the per-client event queue size.
func WithSendQueueSize(n int) GatewayOption {
	return func(g *WSGateway) {
		if n > 0 {
			g.sendQueueSize = n
		}
	}
}

// NewWSGateway constructs a gateway over a hub.
func NewWSGateway(log *slog.Logger, hub *Hub, opts ...GatewayOption) *WSGateway {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if hub == nil {
		hub = NewHub(log)
	}
	g := &WSGateway{
		log:           log,
		hub:           hub,
		writeTimeout:  wsDefaultWriteTimeout,
		sendQueueSize: wsDefaultSendQueueSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Hub returns the gateway's hub.
func (g *WSGateway) Hub() *Hub { return g.hub }

// ServeHTTP adapter so the gateway can be mounted as http.Handler.
func (g *WSGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS upgrades an HTTP request and streams events until the client
// disconnects or the server shuts down.
func (g *WSGateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	sub := g.hub.Subscribe(g.sendQueueSize)
	defer g.hub.Unsubscribe(sub)

	g.log.Info("feed.client.connect", "remote", r.RemoteAddr)

	// The feed is write-only; CloseRead keeps control frames flowing and
	// cancels the context when the client goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			g.log.Info("feed.client.disconnect", "remote", r.RemoteAddr)
			return
		case event := <-sub.C:
			if err := g.writeEvent(ctx, conn, event); err != nil {
				g.log.Info("feed.client.write.fail", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}

func (g *WSGateway) writeEvent(ctx context.Context, conn *websocket.Conn, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, g.writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
