package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"puja-service/internal/consumers"
	"puja-service/internal/tasks"
)

type Worker struct {
	Processor *consumers.NotificationProcessor
}

func NewWorker(processor *consumers.NotificationProcessor) *Worker {
	return &Worker{
		Processor: processor,
	}
}

func (w *Worker) HandleWithdrawalNotify(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseWithdrawalNotify(t)
	if err != nil {
		return err
	}
	if err := w.Processor.ProcessWithdrawalNotify(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, consumers.ErrBadPayload) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (w *Worker) HandlePanchangamSync(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParsePanchangamSync(t)
	if err != nil {
		return err
	}
	report, err := w.Processor.ProcessPanchangamSync(ctx, p)
	if err != nil {
		if errors.Is(err, consumers.ErrBadPayload) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if len(report.Errors) > 0 {
		log.WithField("errors", len(report.Errors)).Warn("Panchangam sync finished with errors")
	}
	return nil
}
