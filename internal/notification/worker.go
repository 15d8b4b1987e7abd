package notification

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type MessageConsumer interface {
	Run(ctx context.Context, handler func(ctx context.Context, msg kafka.Message) error) error
}

// Worker consumes the notifications topic and delivers each event.
type Worker struct {
	Consumer MessageConsumer
	Service  *Service
}

func NewWorker(c MessageConsumer, s *Service) *Worker {
	return &Worker{Consumer: c, Service: s}
}

func (w *Worker) Run(ctx context.Context) error {
	return w.Consumer.Run(ctx, w.Handle)
}

func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	ev, err := DecodeMessage(msg)
	if err != nil {
		return err
	}
	_, err = w.Service.Deliver(ctx, ev)
	return err
}
