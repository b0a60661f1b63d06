// Package notification renders templated messages and fans them out across
// the configured channels, best-effort and independently per channel.
package notification

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
)

type Dispatcher interface {
	// Dispatch reports true when at least one channel delivered.
	Dispatch(ctx context.Context, notificationType string, nctx *Context) bool
}

type dispatcher struct {
	channels map[string]Channel
	log      *zap.SugaredLogger
}

func NewDispatcher(log *zap.SugaredLogger, channels ...Channel) Dispatcher {
	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &dispatcher{channels: byName, log: log}
}

func (d *dispatcher) Dispatch(ctx context.Context, notificationType string, nctx *Context) bool {
	tpl, ok := templates[notificationType]
	if !ok {
		// fail closed: no template means nothing is sent
		d.log.Errorw("no template for notification type", "type", notificationType)
		return false
	}

	vars := nctx.vars()
	subject := fasttemplate.ExecuteString(tpl.Subject, "{{", "}}", vars)
	body := fasttemplate.ExecuteString(tpl.Body, "{{", "}}", vars)

	var delivered atomic.Int32
	var wg sync.WaitGroup
	for _, name := range tpl.Channels {
		ch, found := d.channels[name]
		if !found {
			d.log.Warnw("notification channel not configured", "channel", name)
			continue
		}
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, nctx.Usuario, subject, body); err != nil {
				d.log.Warnw("notification channel failed",
					"channel", ch.Name(),
					"type", notificationType,
					"user_id", nctx.Usuario.ID,
					"error", err,
				)
				return
			}
			delivered.Add(1)
		}(ch)
	}
	wg.Wait()

	return delivered.Load() > 0
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
