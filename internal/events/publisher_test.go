package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/tool-ingestor/internal/models"
	"github.com/jonesrussell/tool-ingestor/internal/testhelpers"
)

func TestPublisher_NilIsNoOp(t *testing.T) {
	var p *Publisher

	assert.NoError(t, p.Publish(context.Background(), JobEvent{EventType: EventJobStarted}))
	assert.NoError(t, p.Ping(context.Background()))
	p.PublishAsync(JobEvent{EventType: EventJobFinished})
}

func TestNewPublisher_NilClient(t *testing.T) {
	assert.Nil(t, NewPublisher(nil, testhelpers.NewTestLogger()))
}

func TestForJob(t *testing.T) {
	job := models.Job{
		ID:         "job-1",
		SpiderName: "toolify",
		State:      models.JobCompleted,
		Stats:      models.JobStats{TotalProcessed: 5, SuccessfulSubmissions: 5},
	}

	event := ForJob(EventJobFinished, job)
	assert.Equal(t, EventJobFinished, event.EventType)
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, "toolify", event.Spider)
	assert.Equal(t, models.JobCompleted, event.State)
	assert.Equal(t, 5, event.Stats.TotalProcessed)
	assert.Empty(t, event.Error)
}
