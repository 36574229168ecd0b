// Package notify delivers best-effort text notifications. Delivery errors are
// logged and never returned to the caller of Dispatch.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Second

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Dispatcher struct {
	n       Notifier
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{n: n, timeout: timeout, log: log}
}

// Dispatch sends text in the background and returns immediately.
func (d *Dispatcher) Dispatch(text string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Send(context.Background(), text)
	}()
}

// Send delivers text within the dispatcher timeout and reports whether it went out.
func (d *Dispatcher) Send(ctx context.Context, text string) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.n.Notify(ctx, text); err != nil {
		d.log.Warn("notification failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return false
	}
	d.log.Debug("notification sent", zap.Duration("elapsed", time.Since(start)))
	return true
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// LogNotifier writes notifications to the log. It stands in when no chat is configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, text string) error {
	l.Log.Info("notification", zap.String("text", text))
	return nil
}
