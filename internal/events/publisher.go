// Package events provides optional publishing of job lifecycle events to
// Redis Streams. Dashboards that prefer push over 3-second polling can
// consume the stream; the job data model is unchanged either way.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// StreamName is the Redis stream job events are appended to.
const StreamName = "tool-ingestor:job-events"

// asyncPublishTimeout bounds async publish operations.
const asyncPublishTimeout = 5 * time.Second

// EventType identifies a job lifecycle event.
type EventType string

const (
	EventJobStarted  EventType = "job.started"
	EventJobFinished EventType = "job.finished"
)

// JobEvent is the payload appended to the stream.
type JobEvent struct {
	EventType EventType       `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	JobID     string          `json:"job_id"`
	Spider    string          `json:"spider_name"`
	State     models.JobState `json:"state"`
	Stats     models.JobStats `json:"stats"`
	Error     string          `json:"error,omitempty"`
}

// Publisher publishes job events to Redis. A nil Publisher is a no-op,
// which is how the feature flag is implemented.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher creates a publisher. Returns nil when client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		log:    log,
	}
}

// Publish appends an event to the job event stream.
func (p *Publisher) Publish(ctx context.Context, event JobEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]any{
			"event": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	return nil
}

// Ping verifies the Redis connection. Used by the service test
// endpoint.
func (p *Publisher) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}

// PublishAsync publishes an event in the background. Errors are logged,
// never surfaced; event delivery must not perturb the pipeline.
func (p *Publisher) PublishAsync(event JobEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil && p.log != nil {
			p.log.Error("Async event publish failed",
				logger.String("event_type", string(event.EventType)),
				logger.String("job_id", event.JobID),
				logger.Error(err),
			)
		}
	}()
}

// ForJob builds a JobEvent from a job snapshot.
func ForJob(eventType EventType, job models.Job) JobEvent {
	return JobEvent{
		EventType: eventType,
		JobID:     job.ID,
		Spider:    job.SpiderName,
		State:     job.State,
		Stats:     job.Stats,
		Error:     job.Error,
	}
}
