package http

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/pulsewire-server/internal/auth"
	"github.com/vovakirdan/pulsewire-server/internal/config"
	"github.com/vovakirdan/pulsewire-server/internal/core"
	"github.com/vovakirdan/pulsewire-server/internal/log"
	"github.com/vovakirdan/pulsewire-server/internal/proto"
	"github.com/vovakirdan/pulsewire-server/internal/store/sqlite"
)

const testJWTSecret = "test-secret"

func testJWTConfig() *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(testJWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := log.NewWithWriter("error", testWriter{t})
	hub := core.NewHub(logger)

	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtCfg := testJWTConfig()
	server := NewServer(hub, auth.NewService(jwtCfg), jwtCfg, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		SessionBuffer:     64,
		WSMessageLimit:    0,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func mintToken(t *testing.T, identity, displayName string) string {
	t.Helper()

	token, err := auth.GenerateToken(testJWTConfig(), identity, displayName)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

// dialWS opens a websocket session against the test server and consumes the
// ready envelope.
func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server, room, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?room=" + room
	if token != "" {
		wsURL += "&token=" + token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", room, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	ready := readEnvelope(t, ctx, conn)
	if ready.Type != proto.OutboundTypeReady {
		t.Fatalf("expected ready envelope, got %+v", ready)
	}
	return conn
}

type envelope struct {
	Type  string         `json:"type"`
	Room  string         `json:"room"`
	Data  map[string]any `json:"data"`
	Error *proto.Error   `json:"error"`
}

func readEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn) envelope {
	t.Helper()

	var env envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

// expectEnvelope reads envelopes until one of the wanted type arrives.
func expectEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) envelope {
	t.Helper()

	for {
		env := readEnvelope(t, ctx, conn)
		if env.Type == typ {
			return env
		}
	}
}

func readJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	return wsjson.Read(ctx, conn, v)
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	raw, err := encode(data)
	if err != nil {
		t.Fatalf("encode %s data: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}
