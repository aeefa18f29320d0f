// Package routing connects messaging channels to the agent runner.
package routing

import (
	"context"
	"strings"
	"time"

	"github.com/soyeahso/drivedesk/internal/agent"
	"github.com/soyeahso/drivedesk/internal/channel"
	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
)

const (
	// DefaultRunTimeout bounds one inbound message from receipt to reply.
	DefaultRunTimeout = 3 * time.Minute

	// sendTimeout bounds delivery of the reply, which starts after the run
	// deadline may already have passed.
	sendTimeout = 15 * time.Second

	ResetCommand = "reset"
	ResetReply   = "Done. I've forgotten our conversation and your last search results."
)

// Runner answers one inbound message.
type Runner interface {
	Run(ctx context.Context, msg domain.InboundMessage) (*agent.RunResult, error)
	Reset(ctx context.Context, userID string, store agent.Resetter) error
}

// Router routes inbound messages to the agent and replies to channels.
type Router struct {
	channels *channel.Registry
	runner   Runner
	sessions agent.Resetter
	timeout  time.Duration
	log      *logging.Logger
}

// NewRouter creates a message router. sessions handles the reset command.
func NewRouter(channels *channel.Registry, runner Runner, sessions agent.Resetter, timeout time.Duration, log *logging.Logger) *Router {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Router{
		channels: channels,
		runner:   runner,
		sessions: sessions,
		timeout:  timeout,
		log:      log.Sub("router"),
	}
}

// HandleInbound answers msg and sends exactly one reply through the
// originating channel: the agent's answer, the reset confirmation, or a
// generic failure message.
func (r *Router) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	r.log.Info().
		Str("channel", msg.ChannelID).
		Str("user", msg.UserID).
		Str("msgId", msg.ID).
		Msg("routing inbound message")

	runCtx, cancelRun := context.WithTimeout(ctx, r.timeout)
	body := r.answer(runCtx, msg)
	cancelRun()

	ch, ok := r.channels.Get(msg.ChannelID)
	if !ok {
		r.log.Error().Str("channel", msg.ChannelID).Msg("channel not found for reply")
		return
	}
	reply := msg.ReplyTo(body)
	sendCtx, cancelSend := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancelSend()
	if err := ch.Send(sendCtx, reply); err != nil {
		r.log.Error().Err(err).
			Str("channel", msg.ChannelID).
			Str("to", reply.To).
			Msg("failed to send reply")
		return
	}
	r.log.Debug().Str("channel", msg.ChannelID).Str("to", reply.To).Msg("reply sent")
}

func (r *Router) answer(ctx context.Context, msg domain.InboundMessage) string {
	if IsReset(msg.Body) {
		if err := r.runner.Reset(ctx, msg.UserID, r.sessions); err != nil {
			r.log.Error().Err(err).Str("user", msg.UserID).Msg("reset failed")
			return agent.FailureMessage(err)
		}
		return ResetReply
	}

	result, err := r.runner.Run(ctx, msg)
	if err != nil {
		return agent.FailureMessage(err)
	}
	return result.Reply
}

// IsReset reports whether body is the reset command.
func IsReset(body string) bool {
	return strings.EqualFold(strings.TrimSpace(body), ResetCommand)
}

// Wire registers the router as the message handler on all channels. Each
// message is handled on its own goroutine so channels can ack at once.
func (r *Router) Wire(ctx context.Context) {
	for _, id := range r.channels.List() {
		ch, ok := r.channels.Get(id)
		if !ok {
			continue
		}
		ch.OnMessage(func(msg domain.InboundMessage) {
			go r.HandleInbound(context.WithoutCancel(ctx), msg)
		})
		r.log.Debug().Str("channel", id).Msg("wired message handler")
	}
}
