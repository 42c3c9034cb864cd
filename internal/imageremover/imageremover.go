// Package imageremover deletes stored image files in the background.
// Deletion is best-effort: failures are reported through an error channel
// and never surfaced to the request that scheduled them.
package imageremover

import (
	"context"
	"os"
	"time"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
)

type task struct {
	imagePath string
}

// ImageRemover accumulates file deletion jobs in a buffered queue and
// processes them in batches on a ticker.
type ImageRemover struct {
	queue                    chan *task
	delayBetweenQueueFetches time.Duration
	errorChannel             chan error
}

func New(
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *ImageRemover {
	return &ImageRemover{
		queue:                    make(chan *task, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		errorChannel:             make(chan error, channelCapacity),
	}
}

// ListenErrors invokes the callback for every error produced while removing files.
func (r *ImageRemover) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

// Run starts the background processing loop. It stops when the given context
// is canceled, draining nothing: pending tasks are abandoned on shutdown.
func (r *ImageRemover) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-r.queue:
				tasks = append(tasks, *t)
			case <-ticker.C:
				if len(tasks) == 0 {
					continue
				}
				for _, t := range tasks {
					if err := os.Remove(t.imagePath); err != nil && !os.IsNotExist(err) {
						r.errorChannel <- err
					}
				}
				logger.Log.Infof("processed removing of %d image files", len(tasks))
				tasks = nil
			}
		}
	}()
}

// EnqueueJob schedules an image file for removal. It never blocks the caller
// beyond the queue capacity.
func (r *ImageRemover) EnqueueJob(job *models.ImageDeleteJob) {
	r.queue <- &task{
		imagePath: job.ImagePath,
	}
}
