// Package main provides a CI-friendly smoke test for the crewdeck live feed.
//
// It validates:
//   - handshake + subprotocol selection on /ws/feed
//   - an award issued over the HTTP API is broadcast to a connected client
//   - the broadcast frame carries the actor, target, and action
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	feedSubprotocol = "crewdeck.feed.v1"
	maxReadBytes    = 1 << 20 // 1MiB
)

type feedEvent struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func main() {
	var (
		wsURL   = flag.String("url", "ws://127.0.0.1:8080/ws/feed", "feed WebSocket URL")
		apiURL  = flag.String("api", "http://127.0.0.1:8080", "HTTP API base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header to send (browser-like WS handshake)")
		actor   = flag.String("actor", "", "acting staff member id (must hold direct authority)")
		target  = flag.String("target", "", "target member id for the probe award")
		points  = flag.Int("points", 1, "probe award amount")
		timeout = flag.Duration("timeout", 7*time.Second, "per-step timeout")
	)
	flag.Parse()

	if err := validateWSURL(*wsURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if strings.TrimSpace(*actor) == "" || strings.TrimSpace(*target) == "" {
		fatalf("-actor and -target are required")
	}

	root := context.Background()

	conn := mustConnect(root, *wsURL, *origin, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	mustAward(root, *apiURL, *actor, *target, *points, *timeout)

	event := mustReadEvent(root, conn, *timeout)
	if event.Action != "points.awarded" {
		fatalf("unexpected action: got=%q want=%q", event.Action, "points.awarded")
	}
	if event.ActorID != *actor {
		fatalf("actor mismatch: got=%q want=%q", event.ActorID, *actor)
	}
	if event.TargetID != *target {
		fatalf("target mismatch: got=%q want=%q", event.TargetID, *target)
	}
	if event.CreatedAt.IsZero() {
		fatalf("event missing created_at")
	}

	fmt.Printf("OK: event=%s actor=%s target=%s detail=%q\n", event.ID, event.ActorID, event.TargetID, event.Detail)
}

func validateWSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	if strings.TrimSpace(u.Path) == "" {
		return errors.New("missing path")
	}
	return nil
}

func mustConnect(parent context.Context, wsURL, origin string, stepTimeout time.Duration) *websocket.Conn {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := http.Header{}
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		Subprotocols: []string{feedSubprotocol},
		HTTPHeader:   h,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v", err)
	}

	if resp != nil {
		got := strings.TrimSpace(resp.Header.Get("Sec-WebSocket-Protocol"))
		if got != "" && got != feedSubprotocol {
			fatalf("subprotocol mismatch: got=%q want=%q", got, feedSubprotocol)
		}
	}

	conn.SetReadLimit(maxReadBytes)
	return conn
}

func mustAward(parent context.Context, apiURL, actor, target string, amount int, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"points": amount,
		"reason": "Feed smoke probe",
	})
	if err != nil {
		fatalf("marshal award body: %v", err)
	}

	endpoint := strings.TrimRight(apiURL, "/") + "/v1/members/" + url.PathEscape(target) + "/award"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		fatalf("build award request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", actor)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("award request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fatalf("award status: got=%d want=200", resp.StatusCode)
	}
}

func mustReadEvent(parent context.Context, conn *websocket.Conn, stepTimeout time.Duration) feedEvent {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	mt, data, err := conn.Read(ctx)
	if err != nil {
		fatalf("read feed event: %v", err)
	}
	if mt != websocket.MessageText {
		fatalf("unsupported message type: %v", mt)
	}

	var event feedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		fatalf("bad json frame: %v", err)
	}
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Action) == "" {
		fatalf("incomplete feed event: %s", string(data))
	}
	return event
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
