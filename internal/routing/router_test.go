package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/drivedesk/internal/agent"
	"github.com/soyeahso/drivedesk/internal/channel"
	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/llm"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/session"
	"github.com/soyeahso/drivedesk/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// mockChannel records what it is asked to send. Like a real channel, it
// refuses to send on a finished context.
type mockChannel struct {
	id      string
	mu      sync.Mutex
	sent    []domain.OutboundMessage
	handler func(domain.InboundMessage)
}

func (m *mockChannel) ID() string { return m.id }
func (m *mockChannel) Start(_ context.Context) error { return nil }
func (m *mockChannel) Stop(_ context.Context) error { return nil }
func (m *mockChannel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}
func (m *mockChannel) OnMessage(handler func(domain.InboundMessage)) { m.handler = handler }
func (m *mockChannel) Status() domain.ChannelStatus {
	return domain.ChannelStatus{ChannelID: m.id, Running: true}
}

func (m *mockChannel) replies() []domain.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutboundMessage(nil), m.sent...)
}

type fixture struct {
	ch     *mockChannel
	store  *session.MemoryStore
	router *Router
}

func newFixture(t *testing.T, complete func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error)) *fixture {
	t.Helper()
	log := testLogger()
	f := &fixture{ch: &mockChannel{id: "slack"}, store: session.NewMemoryStore(10, nil)}

	reg := channel.NewRegistry(log)
	reg.Register(f.ch)

	d := tools.NewDispatcher(f.store, nil, nil, tools.Options{}, log)
	runner := agent.NewRunner(agent.RunnerConfig{}, &llm.MockClient{CompleteFunc: complete}, f.store, d, log)
	f.router = NewRouter(reg, runner, f.store, time.Second, log)
	return f
}

func inbound(body string) domain.InboundMessage {
	return domain.InboundMessage{ID: "m1", ChannelID: "slack", UserID: "U1", Body: body, CallbackURL: "https://hooks.slack.test/1"}
}

func TestHandleInbound_Reply(t *testing.T) {
	f := newFixture(t, func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "Hello from the agent!"}, nil
	})

	f.router.HandleInbound(context.Background(), inbound("hi"))

	sent := f.ch.replies()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.OutboundMessage{
		ChannelID:   "slack",
		To:          "U1",
		Body:        "Hello from the agent!",
		ReplyToID:   "m1",
		CallbackURL: "https://hooks.slack.test/1",
	}, sent[0])
}

func TestHandleInbound_FailureSendsGenericMessage(t *testing.T) {
	f := newFixture(t, func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("engine exploded")
	})

	f.router.HandleInbound(context.Background(), inbound("hi"))

	sent := f.ch.replies()
	require.Len(t, sent, 1)
	assert.Equal(t, agent.FailureMessage(errors.New("engine exploded")), sent[0].Body)
	assert.NotContains(t, sent[0].Body, "exploded")
}

func TestHandleInbound_TimeoutStillReplies(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f.router.timeout = 50 * time.Millisecond

	f.router.HandleInbound(context.Background(), inbound("what did we spend?"))

	sent := f.ch.replies()
	require.Len(t, sent, 1)
	assert.Equal(t, agent.FailureMessage(context.DeadlineExceeded), sent[0].Body)
	assert.Contains(t, sent[0].Body, "took too long")
}

func TestHandleInbound_TimeoutUsesFreshSendContext(t *testing.T) {
	var sendCtx context.Context
	ch := &ctxChannel{mockChannel: &mockChannel{id: "slack"}, seen: func(ctx context.Context) { sendCtx = ctx }}
	log := testLogger()
	reg := channel.NewRegistry(log)
	reg.Register(ch)
	store := session.NewMemoryStore(10, nil)
	d := tools.NewDispatcher(store, nil, nil, tools.Options{}, log)
	runner := agent.NewRunner(agent.RunnerConfig{}, &llm.MockClient{CompleteFunc: func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}, store, d, log)
	r := NewRouter(reg, runner, store, 20*time.Millisecond, log)

	r.HandleInbound(context.Background(), inbound("hi"))

	require.NotNil(t, sendCtx)
	deadline, ok := sendCtx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), time.Second)
	require.Len(t, ch.replies(), 1)
}

// ctxChannel reports the context each send was given.
type ctxChannel struct {
	*mockChannel
	seen func(context.Context)
}

func (c *ctxChannel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	c.seen(ctx)
	return c.mockChannel.Send(ctx, msg)
}

func TestHandleInbound_Reset(t *testing.T) {
	called := false
	f := newFixture(t, func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		called = true
		return &llm.CompletionResponse{Content: "x"}, nil
	})
	ctx := context.Background()
	require.NoError(t, f.store.Append(ctx, "U1", domain.Turn{Role: domain.RoleUser, Content: "old"}))

	f.router.HandleInbound(ctx, inbound("  RESET "))

	assert.False(t, called)
	sent := f.ch.replies()
	require.Len(t, sent, 1)
	assert.Equal(t, ResetReply, sent[0].Body)
	turns, err := f.store.Read(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHandleInbound_UnknownChannel(t *testing.T) {
	f := newFixture(t, func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "x"}, nil
	})
	msg := inbound("hi")
	msg.ChannelID = "nowhere"

	f.router.HandleInbound(context.Background(), msg)
	assert.Empty(t, f.ch.replies())
}

func TestWire(t *testing.T) {
	f := newFixture(t, func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "wired"}, nil
	})

	f.router.Wire(context.Background())
	require.NotNil(t, f.ch.handler)
	f.ch.handler(inbound("hi"))

	assert.Eventually(t, func() bool { return len(f.ch.replies()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "wired", f.ch.replies()[0].Body)
}

func TestIsReset(t *testing.T) {
	assert.True(t, IsReset("reset"))
	assert.True(t, IsReset(" Reset\n"))
	assert.False(t, IsReset("reset my sheet"))
}
