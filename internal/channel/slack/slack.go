// Package slack serves the /drivedesk slash command. Requests are
// acknowledged immediately and the answer is posted to the command's
// response_url once the agent finishes.
package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/version"
)

const (
	ChannelID = "slack"

	AckText   = "Working on it..."
	UsageText = "Ask me about your Drive files, e.g. `/drivedesk find the Q3 budget sheet`. Send `reset` to start over."

	maxBodyBytes = 1 << 20
	maxClockSkew = 5 * time.Minute
)

var ErrNoResponseURL = errors.New("slack: reply has no response_url")

// Config configures the slash command endpoint.
type Config struct {
	Path string
	// SigningSecret enables request signature checks when set.
	SigningSecret string
	Timeout       time.Duration
}

// Channel implements channel.HTTPChannel for Slack slash commands.
type Channel struct {
	path    string
	secret  string
	http    *resty.Client
	now     func() time.Time
	running atomic.Bool
	log     *logging.Logger

	mu      sync.RWMutex
	handler func(domain.InboundMessage)
	lastErr string
}

// New creates the channel.
func New(cfg Config, log *logging.Logger) *Channel {
	if cfg.Path == "" {
		cfg.Path = "/slack/command"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Channel{
		path:   cfg.Path,
		secret: cfg.SigningSecret,
		http: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", version.UserAgent()).
			SetTimeout(cfg.Timeout),
		now: time.Now,
		log: log.Sub("slack"),
	}
}

func (c *Channel) ID() string   { return ChannelID }
func (c *Channel) Path() string { return c.path }

// VerifiesRequests reports whether Slack signatures are checked.
func (c *Channel) VerifiesRequests() bool { return c.secret != "" }

// Start marks the channel running until ctx ends. Requests arrive through
// the gateway, so there is no connection to hold open.
func (c *Channel) Start(ctx context.Context) error {
	c.running.Store(true)
	<-ctx.Done()
	c.running.Store(false)
	return nil
}

func (c *Channel) Stop(_ context.Context) error {
	c.running.Store(false)
	return nil
}

func (c *Channel) OnMessage(handler func(domain.InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *Channel) Status() domain.ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ChannelStatus{ChannelID: ChannelID, Running: c.running.Load(), LastError: c.lastErr}
}

type commandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func writeEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(commandResponse{ResponseType: "ephemeral", Text: text})
}

func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if c.secret != "" {
		if err := c.verify(r.Header, body); err != nil {
			c.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected slack request")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	userID := form.Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(form.Get("text"))
	if text == "" {
		writeEphemeral(w, UsageText)
		return
	}

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		writeEphemeral(w, "drivedesk is starting up, try again in a moment.")
		return
	}

	msg := domain.InboundMessage{
		ID:          uuid.New().String(),
		ChannelID:   ChannelID,
		UserID:      userID,
		UserName:    form.Get("user_name"),
		Body:        text,
		Timestamp:   c.now(),
		CallbackURL: form.Get("response_url"),
	}
	c.log.Info().Str("user", userID).Str("msgId", msg.ID).Msg("slash command received")
	h(msg)
	writeEphemeral(w, AckText)
}

// verify checks Slack's v0 request signature.
func (c *Channel) verify(h http.Header, body []byte) error {
	ts := h.Get("X-Slack-Request-Timestamp")
	sig := h.Get("X-Slack-Signature")
	if ts == "" || sig == "" {
		return errors.New("missing signature headers")
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp %q", ts)
	}
	if skew := c.now().Sub(time.Unix(secs, 0)); skew > maxClockSkew || skew < -maxClockSkew {
		return fmt.Errorf("stale timestamp %s", ts)
	}
	if !hmac.Equal([]byte(Sign(c.secret, ts, body)), []byte(sig)) {
		return errors.New("signature mismatch")
	}
	return nil
}

// Sign computes the X-Slack-Signature value for a request.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// Send posts an ephemeral reply to the command's response_url.
func (c *Channel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if msg.CallbackURL == "" {
		return ErrNoResponseURL
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(commandResponse{ResponseType: "ephemeral", Text: msg.Body}).
		Post(msg.CallbackURL)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("response_url returned %s", resp.Status())
	}
	c.mu.Lock()
	c.lastErr = ""
	if err != nil {
		c.lastErr = err.Error()
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("slack reply: %w", err)
	}
	return nil
}
