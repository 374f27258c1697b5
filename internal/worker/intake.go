package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/domain"
)

// Sink is where the intake pushes consumed applications. Implemented by
// Pool; tests substitute a recording sink.
type Sink interface {
	Enqueue(ctx context.Context, app domain.Application) error
}

// Intake is the single reader bridging the message bus and the worker
// pool's internal channel. A delivery is acknowledged only after the push
// into the sink succeeds: crash between push and ack means redelivery, so
// the pipeline is at-least-once and downstream persistence deduplicates by
// application id.
type Intake struct {
	consumer  bus.Consumer
	sink      Sink
	batchSize int
	logger    *zap.Logger
}

func NewIntake(consumer bus.Consumer, sink Sink, batchSize int, logger *zap.Logger) *Intake {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Intake{consumer: consumer, sink: sink, batchSize: batchSize, logger: logger}
}

// Run consumes until ctx is cancelled.
func (in *Intake) Run(ctx context.Context) {
	in.logger.Info("intake consumer started")

	for {
		if ctx.Err() != nil {
			in.logger.Info("intake consumer stopping")
			return
		}

		messages, err := in.consumer.Fetch(ctx, in.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				in.logger.Info("intake consumer stopping")
				return
			}
			in.logger.Error("bus fetch failed", zap.Error(err))
			continue
		}

		for _, msg := range messages {
			if !in.handle(ctx, msg) {
				return
			}
		}
	}
}

// handle pushes one delivery downstream and acks it. Returns false when the
// intake should stop (cancelled mid-push; the unacked delivery will be
// redelivered to the next consumer incarnation).
func (in *Intake) handle(ctx context.Context, msg bus.Message) bool {
	if msg.Application.ID == "" {
		// Poison pill: the payload did not decode. Ack it away or the
		// group will redeliver it forever.
		in.logger.Error("malformed delivery, skipping", zap.String("delivery_id", msg.ID))
		if err := in.consumer.Ack(ctx, msg.ID); err != nil {
			in.logger.Error("ack of malformed delivery failed", zap.Error(err))
		}
		return true
	}

	if err := in.sink.Enqueue(ctx, msg.Application); err != nil {
		in.logger.Warn("hand-off interrupted, delivery left unacked",
			zap.String("delivery_id", msg.ID),
			zap.String("application_id", msg.Application.ID),
		)
		return false
	}

	if err := in.consumer.Ack(ctx, msg.ID); err != nil {
		// The item is already in flight downstream; a failed ack only
		// risks a duplicate, which the repository tolerates.
		in.logger.Error("ack failed", zap.String("delivery_id", msg.ID), zap.Error(err))
	}

	in.logger.Info("application consumed",
		zap.String("application_id", msg.Application.ID),
		zap.String("tier", string(msg.Application.Tier)),
	)
	return true
}
