package worker

import (
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/consumers"
	"puja-service/internal/tasks"
)

func NewServeMux(processor *consumers.NotificationProcessor) *asynq.ServeMux {
	worker := NewWorker(processor)
	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeWithdrawalNotify, worker.HandleWithdrawalNotify)
	mux.HandleFunc(tasks.TypePanchangamSync, worker.HandlePanchangamSync)
	return mux
}

func StartWorker(redisOpt asynq.RedisClientOpt, processor *consumers.NotificationProcessor) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
				tasks.QueueLow:      1,
			},
			Logger: log.StandardLogger(),
		},
	)

	if err := srv.Run(NewServeMux(processor)); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
