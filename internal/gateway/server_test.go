package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/drivedesk/internal/channel"
	"github.com/soyeahso/drivedesk/internal/channel/slack"
	"github.com/soyeahso/drivedesk/internal/channel/wschat"
	"github.com/soyeahso/drivedesk/internal/config"
	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
)

func testServer(t *testing.T, token string) (*httptest.Server, chan domain.InboundMessage) {
	t.Helper()
	log := logging.New(nil, "silent")

	got := make(chan domain.InboundMessage, 4)
	reg := channel.NewRegistry(log)
	sl := slack.New(slack.Config{}, log)
	ws := wschat.New("/ws", nil, log)
	sl.OnMessage(func(m domain.InboundMessage) { got <- m })
	ws.OnMessage(func(m domain.InboundMessage) {
		got <- m
		go ws.Send(context.Background(), m.ReplyTo("echo: "+m.Body))
	})
	reg.Register(sl)
	reg.Register(ws)

	cfg := config.Defaults().Gateway
	cfg.Token = token
	ts := httptest.NewServer(New(cfg, reg, log).Handler())
	t.Cleanup(ts.Close)
	return ts, got
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := testServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version)
}

func TestNotFoundEndpoint(t *testing.T) {
	ts, _ := testServer(t, "")

	resp, err := http.Get(ts.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsRequiresToken(t *testing.T) {
	ts, _ := testServer(t, "tok")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlackCommandBypassesGatewayToken(t *testing.T) {
	ts, got := testServer(t, "tok")

	resp, err := http.PostForm(ts.URL+"/slack/command", url.Values{
		"user_id":      {"U1"},
		"text":         {"find budget"},
		"response_url": {"https://hooks.slack.test/1"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ephemeral", body["response_type"])
	assert.Equal(t, slack.AckText, body["text"])

	m := <-got
	assert.Equal(t, "find budget", m.Body)
}

func TestWebSocketThroughGateway(t *testing.T) {
	ts, _ := testServer(t, "tok")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user=U1"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"&token=tok", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wschat.InFrame{Text: "hi"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out wschat.OutFrame
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "echo: hi", out.Text)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8787", ListenAddr(config.GatewayConfig{Port: 8787}))
	assert.Equal(t, "0.0.0.0:80", ListenAddr(config.GatewayConfig{Bind: "0.0.0.0", Port: 80}))
	assert.Equal(t, "[::1]:9000", ListenAddr(config.GatewayConfig{Bind: "::1", Port: 9000}))
}

func TestStartStopsOnCancel(t *testing.T) {
	cfg := config.GatewayConfig{Bind: "127.0.0.1", Port: 0}
	srv := New(cfg, nil, logging.New(nil, "silent"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
