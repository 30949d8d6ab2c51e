package dmarc_report

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/metrics"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/internal/utils"
	"github.com/customeros/dmarc-summaries/services/planner"
)

type job struct {
	log      logger.Logger
	manifest interfaces.ManifestSource
	planner  *planner.Planner
	engine   *Engine
	running  sync.Mutex
	active   atomic.Bool
	last     atomic.Pointer[dto.RunResult]
}

func NewJob(log logger.Logger, manifest interfaces.ManifestSource, planner *planner.Planner, engine *Engine) interfaces.DmarcSummaryJob {
	return &job{
		log:      log,
		manifest: manifest,
		planner:  planner,
		engine:   engine,
	}
}

// Execute loads the manifest, plans the period and runs the engine. Only one
// execution runs at a time; a concurrent call fails with ErrRunInProgress.
func (j *job) Execute(ctx context.Context) (*dto.RunResult, error) {
	if !j.acquire() {
		return nil, er.ErrRunInProgress
	}
	defer j.release()

	return j.run(ctx)
}

// Start claims the run before returning and executes it in the background,
// so a second caller is rejected with ErrRunInProgress right away.
func (j *job) Start(ctx context.Context) error {
	if !j.acquire() {
		return er.ErrRunInProgress
	}

	go func() {
		defer j.release()
		defer tracing.RecoverAndLogToJaeger(j.log)

		result, err := j.run(ctx)
		if err != nil {
			j.log.Errorf("Background reconciliation failed: %v", err)
			return
		}
		j.log.Infof("Background reconciliation %s completed", result.RunID)
	}()
	return nil
}

func (j *job) acquire() bool {
	if !j.running.TryLock() {
		return false
	}
	j.active.Store(true)
	return true
}

func (j *job) release() {
	j.active.Store(false)
	j.running.Unlock()
}

func (j *job) run(ctx context.Context) (*dto.RunResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DmarcSummaryJob.Execute")
	defer span.Finish()
	tracing.TagComponentService(span)

	runID := utils.GenerateNanoIDWithPrefix("run", 12)
	tracing.TagRunId(span, runID)
	started := utils.Now()
	defer metrics.ObserveRun(started)

	manifest, err := j.manifest.Load(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "load manifest")
	}
	span.LogFields(tracingLog.Int("manifest.domains", manifest.DomainCount()))

	period, err := j.planner.Plan()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	j.log.Infof("Run %s: reconciling %d domains of %d organizations, period %s to %s",
		runID, manifest.DomainCount(), len(manifest), period.StartDates[0], period.CurrentDate)

	result, err := j.engine.Run(ctx, runID, manifest, period)
	if result != nil {
		recordMetrics(result)
		j.last.Store(result)
	}
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return result, err
}

func recordMetrics(result *dto.RunResult) {
	metrics.CountOperation(metrics.OperationOwnershipCreated, result.OwnershipsCreated)
	metrics.CountOperation(metrics.OperationOwnershipTransferred, result.OwnershipsTransferred)
	metrics.CountOperation(metrics.OperationSummaryCreated, result.SummariesCreated)
	metrics.CountOperation(metrics.OperationSummaryUpserted, result.SummariesUpserted)
	metrics.CountOperation(metrics.OperationSummaryRemoved, result.SummariesRemoved)
	metrics.CountOperation(metrics.OperationEventPublished, result.EventsPublished)
	metrics.CountDomains(metrics.ResultProcessed, result.DomainsProcessed)
	metrics.CountDomains(metrics.ResultSkipped, result.DomainsSkipped)
	metrics.CountDomains(metrics.ResultFailed, result.DomainsFailed())
}

func (j *job) Running() bool {
	return j.active.Load()
}

func (j *job) LastResult() *dto.RunResult {
	return j.last.Load()
}
