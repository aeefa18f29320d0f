package domain

import "time"

// InboundMessage is a user request received from a channel.
type InboundMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`

	// CallbackURL is where an asynchronous reply should be pushed, for
	// channels such as Slack slash commands.
	CallbackURL string `json:"callbackUrl,omitempty"`

	// ReplyTarget overrides where the reply is addressed, such as a socket
	// connection id. Empty means UserID.
	ReplyTarget string `json:"replyTarget,omitempty"`
}

// OutboundMessage is a reply to be delivered via a channel.
type OutboundMessage struct {
	ChannelID   string `json:"channelId"`
	To          string `json:"to"`
	Body        string `json:"body"`
	ReplyToID   string `json:"replyToId,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// ReplyTo builds the outbound message answering msg.
func (msg InboundMessage) ReplyTo(body string) OutboundMessage {
	to := msg.UserID
	if msg.ReplyTarget != "" {
		to = msg.ReplyTarget
	}
	return OutboundMessage{
		ChannelID:   msg.ChannelID,
		To:          to,
		Body:        body,
		ReplyToID:   msg.ID,
		CallbackURL: msg.CallbackURL,
	}
}
