package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/pipeline"
	"ytresearch-backend/internal/websocket"
)

// QueueName is the Redis list async ingestion jobs are pushed onto.
const QueueName = "queue:video-ingestion"

// Enqueue pushes one ingestion job onto the queue.
func Enqueue(ctx context.Context, client *redis.Client, job models.IngestJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return client.LPush(ctx, QueueName, string(data)).Err()
}

// Worker drains the ingestion queue one job at a time. Sequential on
// purpose: the remote caption and generation APIs are quota-sensitive, so
// there is no parallel fan-out.
type Worker struct {
	redis    *redis.Client
	pipeline *pipeline.Pipeline
	stopChan chan struct{}
}

func New(redisClient *redis.Client, p *pipeline.Pipeline) *Worker {
	return &Worker{
		redis:    redisClient,
		pipeline: p,
		stopChan: make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.run()
	log.Printf("Started ingestion worker")
}

func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) run() {
	for {
		select {
		case <-w.stopChan:
			log.Printf("Ingestion worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := w.redis.BLPop(ctx, 30*time.Second, QueueName).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job models.IngestJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker: failed to parse job: %v", err)
			continue
		}

		// Lock so a restarted instance never double-processes a job
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := w.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		log.Printf("Worker: processing job %s (%s)", job.ID, job.URL)
		w.process(ctx, job)

		w.redis.Del(ctx, lockKey)
	}
}

func (w *Worker) process(ctx context.Context, job models.IngestJob) {
	outcome := w.pipeline.ProcessVideo(ctx, job.URL, func(stage, detail string) {
		w.publish(ctx, job.ID, models.WSMessage{
			Type: "stage_update",
			Payload: models.StageUpdate{
				JobID:  job.ID,
				Stage:  stage,
				Detail: detail,
			},
		})
	})

	w.publish(ctx, job.ID, models.WSMessage{
		Type: "done",
		Payload: models.JobDone{
			JobID:   job.ID,
			Outcome: outcome,
		},
	})

	log.Printf("Worker: job %s finished with state %s", job.ID, outcome.State)
}

func (w *Worker) publish(ctx context.Context, jobID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := w.redis.Publish(ctx, websocket.JobChannel(jobID), string(data)).Err(); err != nil {
		log.Printf("Worker: failed to publish update for job %s: %v", jobID, err)
	}
}
