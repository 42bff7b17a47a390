package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Worker runs queued build jobs against one Builder.
type Worker struct {
	builder *Builder
	opts    Options
	log     *slog.Logger
}

func NewWorker(builder *Builder, opts Options, log *slog.Logger) *Worker {
	return &Worker{builder: builder, opts: opts, log: log}
}

// Process runs a full build for a job and records its outcome.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	opts := w.opts
	if len(job.Formats) > 0 {
		opts.Formats = job.Formats
	}
	opts.Force = job.Force
	opts.OnPhase = job.SetStatus
	opts.OnCollected = job.SetCollected

	log.Info("build started", "formats", opts.Formats, "force", opts.Force)
	res, err := w.builder.Build(ctx, opts)
	if err != nil {
		log.Error("build failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "failed")
		w.builder.metrics.Builds.WithLabelValues(string(StatusFailed)).Inc()
		return
	}
	job.Finish(res)

	status := StatusCompleted
	if res.Err != nil {
		var merr *multierror.Error
		if errors.As(res.Err, &merr) {
			for _, e := range merr.Errors {
				job.AddError(e.Error())
			}
		} else {
			job.AddError(res.Err.Error())
		}
		status = StatusPartial
		if res.Rendered == 0 && res.Reused == 0 {
			status = StatusFailed
		}
	}
	job.SetStatus(status, "done")
	w.builder.metrics.Builds.WithLabelValues(string(status)).Inc()
	log.Info("build job finished", "status", status, "rendered", res.Rendered)
}
