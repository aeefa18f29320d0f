// Package channel manages the messaging surfaces users talk to drivedesk
// through.
package channel

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
)

// HTTPChannel is a channel reached through the gateway's HTTP server.
type HTTPChannel interface {
	domain.Channel
	http.Handler

	// Path is the route the gateway mounts the channel at.
	Path() string
}

// SelfAuthenticating is implemented by HTTP channels that verify their
// own requests, such as signed webhooks. The gateway token is not applied
// to them.
type SelfAuthenticating interface {
	VerifiesRequests() bool
}

// Registry manages a set of messaging channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]domain.Channel
	log      *logging.Logger
}

// NewRegistry creates a channel registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		channels: make(map[string]domain.Channel),
		log:      log.Sub("channels"),
	}
}

// Register adds a channel, replacing any channel with the same ID.
func (r *Registry) Register(ch domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID()] = ch
	r.log.Info().Str("channel", ch.ID()).Msg("channel registered")
}

// Get returns a channel by ID.
func (r *Registry) Get(id string) (domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// List returns all channel IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HTTPChannels returns the channels the gateway must mount, sorted by ID.
func (r *Registry) HTTPChannels() []HTTPChannel {
	var out []HTTPChannel
	for _, id := range r.List() {
		ch, _ := r.Get(id)
		if hc, ok := ch.(HTTPChannel); ok {
			out = append(out, hc)
		}
	}
	return out
}

// Status returns the status of all registered channels, sorted by ID.
func (r *Registry) Status() []domain.ChannelStatus {
	ids := r.List()
	statuses := make([]domain.ChannelStatus, 0, len(ids))
	for _, id := range ids {
		if ch, ok := r.Get(id); ok {
			statuses = append(statuses, ch.Status())
		}
	}
	return statuses
}

// StartAll starts all registered channels in background goroutines, since
// a channel's Start may block for its lifetime.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, ch := range r.channels {
		r.log.Info().Str("channel", id).Msg("starting channel")
		go func(id string, ch domain.Channel) {
			if err := ch.Start(ctx); err != nil {
				r.log.Error().Err(err).Str("channel", id).Msg("channel exited with error")
			}
		}(id, ch)
	}
}

// StopAll stops all registered channels.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, ch := range r.channels {
		r.log.Info().Str("channel", id).Msg("stopping channel")
		if err := ch.Stop(ctx); err != nil {
			r.log.Error().Err(err).Str("channel", id).Msg("failed to stop channel")
		}
	}
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
