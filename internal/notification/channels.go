package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
	ChannelInApp = "inapp"
)

// Channel is the outbound transport contract. Implementations must be safe
// for concurrent use; a failing channel never affects the others.
type Channel interface {
	Name() string
	Send(ctx context.Context, to Usuario, subject, body string) error
}

// logChannel stands in for the real transports: it validates the recipient,
// simulates delivery latency and logs the send.
type logChannel struct {
	name    string
	latency time.Duration
	log     *zap.SugaredLogger
	check   func(to Usuario) error
}

func (c *logChannel) Name() string {
	return c.name
}

func (c *logChannel) Send(ctx context.Context, to Usuario, subject, body string) error {
	if c.check != nil {
		if err := c.check(to); err != nil {
			return err
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.latency):
	}
	c.log.Infow("notification sent",
		"channel", c.name,
		"user_id", to.ID,
		"subject", subject,
	)
	return nil
}

func NewEmailChannel(log *zap.SugaredLogger) Channel {
	return &logChannel{
		name:    ChannelEmail,
		latency: 30 * time.Millisecond,
		log:     log,
		check: func(to Usuario) error {
			if to.Email == "" {
				return fmt.Errorf("recipient %d has no email", to.ID)
			}
			return nil
		},
	}
}

func NewSMSChannel(log *zap.SugaredLogger) Channel {
	return &logChannel{
		name:    ChannelSMS,
		latency: 50 * time.Millisecond,
		log:     log,
		check: func(to Usuario) error {
			if to.Celular == "" {
				return fmt.Errorf("recipient %d has no phone number", to.ID)
			}
			return nil
		},
	}
}

func NewPushChannel(log *zap.SugaredLogger) Channel {
	return &logChannel{name: ChannelPush, latency: 10 * time.Millisecond, log: log}
}

func NewInAppChannel(log *zap.SugaredLogger) Channel {
	return &logChannel{name: ChannelInApp, latency: 5 * time.Millisecond, log: log}
}
