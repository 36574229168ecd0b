package borrowingsvc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"libraryapi/model"
)

const NothingOverdue = "No borrowings overdue today!"

type OverdueReader interface {
	ListOverdue(ctx context.Context, today time.Time) ([]model.OverdueBorrowing, error)
}

// Sender delivers one message and reports whether it went out.
type Sender interface {
	Send(ctx context.Context, text string) bool
}

type Report struct {
	Found  int
	Sent   int
	Failed int
}

// Sweep reports open borrowings that are due. It never writes to the store.
type Sweep struct {
	r   OverdueReader
	s   Sender
	now func() time.Time
	log *zap.Logger
}

func NewSweep(r OverdueReader, s Sender, log *zap.Logger) *Sweep {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweep{r: r, s: s, now: time.Now, log: log}
}

func (sw *Sweep) WithClock(now func() time.Time) *Sweep {
	sw.now = now
	return sw
}

func (sw *Sweep) Run(ctx context.Context) (Report, error) {
	today := model.DateOf(sw.now())
	items, err := sw.r.ListOverdue(ctx, today)
	if err != nil {
		return Report{}, fmt.Errorf("list overdue: %w", err)
	}

	rep := Report{Found: len(items)}
	sw.log.Info("overdue sweep started", zap.String("today", today.Format(model.DateLayout)), zap.Int("found", len(items)))

	msgs := make([]string, 0, len(items))
	for _, o := range items {
		msgs = append(msgs, OverdueMessage(o, today))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, NothingOverdue)
	}

	for _, m := range msgs {
		if sw.s.Send(ctx, m) {
			rep.Sent++
		} else {
			rep.Failed++
		}
	}
	return rep, nil
}

// RunEvery runs the sweep on a ticker until ctx is cancelled.
func (sw *Sweep) RunEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rep, err := sw.Run(ctx)
			if err != nil {
				sw.log.Error("overdue sweep failed", zap.Error(err))
				continue
			}
			sw.log.Info("overdue sweep done", zap.Int("found", rep.Found), zap.Int("sent", rep.Sent), zap.Int("failed", rep.Failed))
		}
	}
}

func OverdueMessage(o model.OverdueBorrowing, today time.Time) string {
	return fmt.Sprintf("Overdue borrowing #%d: %s borrowed by %s on %s, expected back %s, %d day(s) overdue",
		o.ID, o.BookTitle, o.UserEmail,
		o.BorrowDate.Format(model.DateLayout),
		o.ExpectedReturnDate.Format(model.DateLayout),
		model.DaysBetween(o.ExpectedReturnDate, today))
}
