package worker

import (
	"context"
	"log/slog"

	"diarias/internal/amqp"
)

// DirectNotifier exports in process instead of going through a broker.
// Notifications arriving while an export is pending are coalesced: the
// pending export reads the latest stored state anyway.
type DirectNotifier struct {
	worker  *ExportWorker
	pending chan *amqp.LedgerChangedMessage
}

func NewDirectNotifier(w *ExportWorker) *DirectNotifier {
	return &DirectNotifier{
		worker:  w,
		pending: make(chan *amqp.LedgerChangedMessage, 1),
	}
}

// PublishLedgerChanged queues an export and never blocks.
func (n *DirectNotifier) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	select {
	case n.pending <- msg:
	default:
	}
	return nil
}

// Run performs queued exports until ctx is done.
func (n *DirectNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-n.pending:
			if err := n.worker.HandleLedgerChanged(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "In-process export failed", "error", err, "revision", msg.Revision)
			}
		}
	}
}
