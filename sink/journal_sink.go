package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"huddle/contract"
	"huddle/domain/event"
)

// JournalSink records message lifecycle events. Everything else is ignored.
type JournalSink struct {
	journal contract.IJournal
	log     *slog.Logger
	clock   func() time.Time
}

func NewJournalSink(journal contract.IJournal, log *slog.Logger, clock func() time.Time) JournalSink {
	return JournalSink{journal: journal, log: log, clock: clock}
}

func (j JournalSink) Consume(ctx context.Context, e event.Event) error {
	switch e.Name {
	case event.NewMessage, event.MessageEdited, event.MessageDeleted, event.ReactionAdded:
		return j.journal.Record(ctx, e, j.clock())
	default:
		j.log.Debug(fmt.Sprintf("Not journaled event : %s", e.Name))
		return nil
	}
}
