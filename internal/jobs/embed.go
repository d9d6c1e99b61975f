package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/pkg/metrics"
)

const (
	embedStreamName   = "EMBED_JOBS"
	embedSubject      = "embed.document"
	embedConsumerName = "embed-worker"
)

// EmbedJob asks the worker to embed one document's chunks. Force re-embeds
// every chunk instead of only the missing ones.
type EmbedJob struct {
	DocumentID int64  `json:"document_id"`
	UserID     string `json:"user_id"`
	Force      bool   `json:"force"`
}

// EmbedHandler processes one embed job. A returned error requeues the job.
type EmbedHandler func(ctx context.Context, job EmbedJob) error

// EnsureEmbedStream creates the embedding work queue stream if missing.
func (c *Client) EnsureEmbedStream() error {
	_, err := c.js.StreamInfo(embedStreamName)
	if err == nil {
		return nil
	}

	_, err = c.js.AddStream(&nats.StreamConfig{
		Name:      embedStreamName,
		Subjects:  []string{"embed.>"},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("create embed stream: %w", err)
	}
	return nil
}

// SubmitEmbedJob enqueues a job for the worker.
func (c *Client) SubmitEmbedJob(ctx context.Context, job EmbedJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	_, err = c.js.Publish(embedSubject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish embed job: %w", err)
	}

	c.logger.Info("embed job submitted",
		zap.Int64("document_id", job.DocumentID),
		zap.Bool("force", job.Force))
	return nil
}

// StartEmbedWorker subscribes a durable consumer and runs handler on each
// job until ctx is cancelled. Failed jobs are negatively acknowledged with a
// delay so transient backend outages retry instead of dropping work.
func (c *Client) StartEmbedWorker(ctx context.Context, handler EmbedHandler) (*nats.Subscription, error) {
	sub, err := c.js.Subscribe(embedSubject, func(msg *nats.Msg) {
		var job EmbedJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			c.logger.Error("invalid embed job payload, dropping", zap.Error(err))
			metrics.EmbedJobsTotal.WithLabelValues("invalid").Inc()
			_ = msg.Term()
			return
		}

		if err := handler(ctx, job); err != nil {
			c.logger.Warn("embed job failed, requeueing",
				zap.Int64("document_id", job.DocumentID),
				zap.Error(err))
			metrics.EmbedJobsTotal.WithLabelValues("failed").Inc()
			_ = msg.NakWithDelay(30 * time.Second)
			return
		}

		metrics.EmbedJobsTotal.WithLabelValues("ok").Inc()
		_ = msg.Ack()
	},
		nats.Durable(embedConsumerName),
		nats.ManualAck(),
		nats.AckWait(5*time.Minute),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe embed worker: %w", err)
	}

	c.logger.Info("embed worker started")
	return sub, nil
}
