package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acmefin/policyscan/internal/pipeline"
)

// Job is the smallest useful unit of background work.
type Job struct {
	DocumentID  uuid.UUID
	Correct     bool // run the repair search
	Force       bool // reprocess even if already decoded
	SubmittedAt time.Time
}

// Queue accepts document jobs for background decoding.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

func (j Job) options() pipeline.Options {
	return pipeline.Options{Correct: j.Correct, Force: j.Force}
}
