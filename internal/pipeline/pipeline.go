package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobscout/internal/export"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
	"github.com/amishk599/jobscout/internal/refine"
)

// RawFetcher returns the concatenated raw postings for one run.
type RawFetcher interface {
	Fetch(ctx context.Context) ([]model.RawPosting, error)
}

// BatchRefiner turns a normalized batch into a refined, persisted document.
type BatchRefiner interface {
	Refine(ctx context.Context, batch []model.Posting) (refine.Result, error)
}

// StageError records the stage a run failed in.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful run.
type Result struct {
	Run      model.Run
	Postings []model.Posting
	Refined  refine.Result
}

// notifyTimeout bounds the notifier call so it cannot hold up the response.
const notifyTimeout = 10 * time.Second

// Pipeline owns one request: fetch → normalize → debug write → refine.
type Pipeline struct {
	fetcher   RawFetcher
	refiner   BatchRefiner
	debugPath string
	runs      model.RunStore
	logger    *slog.Logger
	notifier  model.Notifier
	notifyFor time.Duration
	now       func() time.Time
	observe   func(model.Stage)
}

// New creates a pipeline wired with all its dependencies.
func New(fetcher RawFetcher, refiner BatchRefiner, debugPath string, runs model.RunStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		refiner:   refiner,
		debugPath: debugPath,
		runs:      runs,
		logger:    logger,
		notifyFor: notifyTimeout,
		now:       time.Now,
	}
}

// OnStage registers fn to be called on every stage transition of later runs.
// It must not be called while a run is in progress.
func (p *Pipeline) OnStage(fn func(model.Stage)) {
	p.observe = fn
}

// NotifyWith registers n to be told about every finished run. Like OnStage it
// must not be called while a run is in progress.
func (p *Pipeline) NotifyWith(n model.Notifier) {
	p.notifier = n
}

// Run executes the stages in order and stops at the first failure. The debug
// file is left in place when a later stage fails; the result file is only
// written on success.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	run := model.Run{
		ID:        uuid.NewString(),
		StartedAt: p.now(),
		Stage:     model.StageIdle,
	}
	logger := p.logger.With("run_id", run.ID)

	res, err := p.run(ctx, &run, logger)

	run.FinishedAt = p.now()
	if err != nil {
		run.Err = err.Error()
		logger.Error("run failed",
			"stage", run.Stage.String(),
			"error", err,
			"duration", run.FinishedAt.Sub(run.StartedAt),
		)
		p.enter(&run, model.StageFailed, logger)
		// keep the stage that failed for the history record
		var se *StageError
		if errors.As(err, &se) {
			run.Stage = se.Stage
		}
	} else {
		p.enter(&run, model.StageDone, logger)
		logger.Info("run complete",
			"fetched", run.Fetched,
			"normalized", run.Normalized,
			"duration", run.FinishedAt.Sub(run.StartedAt),
		)
	}

	// history must not depend on the request context surviving
	if recErr := p.runs.RecordRun(context.WithoutCancel(ctx), run); recErr != nil {
		logger.Warn("failed to record run", "error", recErr)
	}

	res.Run = run
	if p.notifier != nil {
		p.notify(ctx, run, notifiedPostings(res, err, logger), logger)
	}
	return res, err
}

// notify runs the notifier detached from the request's cancellation but
// bounded by notifyFor.
func (p *Pipeline) notify(ctx context.Context, run model.Run, postings []model.Posting, logger *slog.Logger) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.notifyFor)
	defer cancel()
	if err := p.notifier.Notify(nctx, run, postings); err != nil {
		logger.Warn("failed to notify", "error", err)
	}
}

// notifiedPostings prefers the refined postings and falls back to the
// normalized batch when the refined document does not have the expected shape.
func notifiedPostings(res Result, runErr error, logger *slog.Logger) []model.Posting {
	if runErr != nil {
		return nil
	}
	postings, err := res.Refined.Postings()
	if err != nil {
		logger.Debug("refined document has no posting list, notifying normalized batch", "error", err)
		return res.Postings
	}
	return postings
}

func (p *Pipeline) run(ctx context.Context, run *model.Run, logger *slog.Logger) (Result, error) {
	p.enter(run, model.StageFetching, logger)
	raws, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, &StageError{Stage: model.StageFetching, Err: err}
	}
	run.Fetched = len(raws)

	p.enter(run, model.StageNormalizing, logger)
	batch := normalize.Batch(raws)
	run.Normalized = len(batch)

	p.enter(run, model.StageDebugWriting, logger)
	if err := export.WriteCSV(p.debugPath, batch); err != nil {
		return Result{}, &StageError{Stage: model.StageDebugWriting, Err: err}
	}

	p.enter(run, model.StageRefining, logger)
	refined, err := p.refiner.Refine(ctx, batch)
	if err != nil {
		return Result{}, &StageError{Stage: model.StageRefining, Err: err}
	}

	return Result{Postings: batch, Refined: refined}, nil
}

func (p *Pipeline) enter(run *model.Run, stage model.Stage, logger *slog.Logger) {
	run.Stage = stage
	logger.Debug("stage", "stage", stage.String())
	if p.observe != nil {
		p.observe(stage)
	}
}
