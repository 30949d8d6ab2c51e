package dmarc_report

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/enum"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/repository"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/internal/utils"
)

// Engine reconciles domain ownership and DMARC summaries in the graph store
// against a manifest and the report store.
type Engine struct {
	log          logger.Logger
	repositories *repository.Repositories
	builder      interfaces.SummaryBuilder
	events       interfaces.EventPublisher
}

func NewEngine(log logger.Logger, repositories *repository.Repositories, builder interfaces.SummaryBuilder, events interfaces.EventPublisher) *Engine {
	return &Engine{
		log:          log,
		repositories: repositories,
		builder:      builder,
		events:       events,
	}
}

// Run processes organizations and domains one at a time in manifest order.
// A domain that fails is recorded and the run moves on; the returned error
// then lists how many failed. Cancelling ctx stops the run at once.
func (e *Engine) Run(ctx context.Context, runID string, manifest dto.Manifest, period dto.Period) (*dto.RunResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Engine.Run")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagRunId(span, runID)
	span.LogKV("organizations", len(manifest), "currentDate", period.CurrentDate)

	log := e.log.With(zap.String("runId", runID))
	result := &dto.RunResult{
		RunID:     runID,
		StartedAt: utils.Now(),
	}

	for _, entry := range manifest {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = utils.Now()
			return result, err
		}
		result.OrganizationsSeen++

		organization, err := e.repositories.OrganizationRepository.GetByAcronym(ctx, entry.Acronym)
		if err != nil {
			log.Errorf("Failed to load organization %s: %v", entry.Acronym, err)
			for _, domain := range entry.Domains {
				result.Failed = append(result.Failed, dto.DomainFailure{Organization: entry.Acronym, Domain: domain, Error: err.Error()})
			}
			continue
		}
		if organization == nil {
			log.Warnf("Organization %s not found, skipping %d domains", entry.Acronym, len(entry.Domains))
			result.OrganizationsSkipped++
			result.DomainsSkipped += len(entry.Domains)
			continue
		}

		for _, domain := range entry.Domains {
			domainLog := log.With(zap.String("organization", entry.Acronym), zap.String("domain", domain))

			change, skipped, err := e.reconcileDomain(ctx, domainLog, runID, entry.Acronym, domain, period, result)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					result.FinishedAt = utils.Now()
					return result, ctxErr
				}
				domainLog.Errorf("Failed to reconcile domain: %v", err)
				result.Failed = append(result.Failed, dto.DomainFailure{Organization: entry.Acronym, Domain: domain, Error: err.Error()})
				continue
			}
			if skipped {
				result.DomainsSkipped++
				continue
			}
			result.DomainsProcessed++

			if change.Changed() {
				if err = e.events.PublishSummariesReconciled(ctx, change); err != nil {
					domainLog.Warnf("Failed to publish summaries event: %v", err)
				} else {
					result.EventsPublished++
				}
			}
		}
	}

	result.FinishedAt = utils.Now()
	log.Infof("Reconciliation finished: %d domains processed, %d skipped, %d failed",
		result.DomainsProcessed, result.DomainsSkipped, len(result.Failed))
	span.LogFields(
		tracingLog.Int("result.processed", result.DomainsProcessed),
		tracingLog.Int("result.skipped", result.DomainsSkipped),
		tracingLog.Int("result.failed", len(result.Failed)),
	)

	if len(result.Failed) > 0 {
		err := fmt.Errorf("%d of %d domains failed to reconcile", len(result.Failed), manifest.DomainCount())
		tracing.TraceErr(span, err)
		return result, err
	}
	return result, nil
}

// reconcileDomain brings one domain in line: ownership, monthly buckets, then
// the thirty day bucket and the mail status derived from it.
func (e *Engine) reconcileDomain(ctx context.Context, log logger.Logger, runID, acronym, domain string, period dto.Period, result *dto.RunResult) (dto.SummariesReconciled, bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Engine.reconcileDomain")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagDomain(span, domain)
	span.LogKV("organization", acronym)

	change := dto.SummariesReconciled{
		RunID:        runID,
		Organization: acronym,
		Domain:       domain,
	}

	entity, err := e.repositories.DomainRepository.GetByName(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		return change, false, err
	}
	if entity == nil {
		log.Warn("Domain not found, skipping")
		span.LogFields(tracingLog.Bool("result.skipped", true))
		return change, true, nil
	}

	if err = e.reconcileOwnership(ctx, log, acronym, domain, &change, result); err != nil {
		tracing.TraceErr(span, err)
		return change, false, err
	}
	if err = e.reconcileMonthly(ctx, log, domain, period, &change, result); err != nil {
		tracing.TraceErr(span, err)
		return change, false, err
	}
	if err = e.reconcileThirtyDays(ctx, log, domain, &change, result); err != nil {
		tracing.TraceErr(span, err)
		return change, false, err
	}

	return change, false, nil
}

func (e *Engine) reconcileOwnership(ctx context.Context, log logger.Logger, acronym, domain string, change *dto.SummariesReconciled, result *dto.RunResult) error {
	owners := e.repositories.OwnershipRepository

	owner, err := owners.GetOwner(ctx, domain)
	if err != nil {
		return err
	}

	switch owner {
	case "":
		if err = owners.Create(ctx, domain, acronym); err != nil {
			return err
		}
		log.Info("Ownership created")
		result.OwnershipsCreated++
		change.OwnershipChanged = true
	case acronym:
		log.Debug("Ownership unchanged")
	default:
		if err = owners.Transfer(ctx, domain, owner, acronym); err != nil {
			return err
		}
		log.Infof("Ownership transferred from %s", owner)
		result.OwnershipsTransferred++
		change.OwnershipChanged = true
	}
	return nil
}

func (e *Engine) reconcileMonthly(ctx context.Context, log logger.Logger, domain string, period dto.Period, change *dto.SummariesReconciled, result *dto.RunResult) error {
	summaries := e.repositories.SummaryRepository

	stored, err := summaries.ListStartDates(ctx, domain)
	if err != nil {
		return err
	}

	if !utils.ArraysEqual(stored, period.StartDates) {
		for _, startDate := range utils.Difference(stored, period.StartDates) {
			if err = summaries.Remove(ctx, domain, startDate); err != nil {
				return errors.Wrapf(err, "remove %s", startDate)
			}
			log.Infof("Summary %s removed", startDate)
			result.SummariesRemoved++
			change.Removed = append(change.Removed, startDate)
		}

		for _, startDate := range utils.Difference(period.StartDates, stored) {
			data, err := e.builder.Build(ctx, domain, startDate)
			if err != nil {
				return errors.Wrapf(err, "build %s", startDate)
			}
			if err = summaries.Create(ctx, domain, startDate, *data); err != nil {
				return errors.Wrapf(err, "create %s", startDate)
			}
			log.Infof("Summary %s created", startDate)
			result.SummariesCreated++
			change.Created = append(change.Created, startDate)
		}
	}

	// the current month keeps accumulating reports, refresh it if it predates this run
	if utils.IsStringInSlice(period.CurrentDate, stored) && utils.IsStringInSlice(period.CurrentDate, period.StartDates) {
		return e.upsert(ctx, log, domain, period.CurrentDate, change, result)
	}
	return nil
}

func (e *Engine) reconcileThirtyDays(ctx context.Context, log logger.Logger, domain string, change *dto.SummariesReconciled, result *dto.RunResult) error {
	count, err := e.repositories.SummaryRepository.CountStartDate(ctx, domain, enum.ThirtyDays)
	if err != nil {
		return err
	}

	data, err := e.builder.Build(ctx, domain, enum.ThirtyDays)
	if err != nil {
		return errors.Wrapf(err, "build %s", enum.ThirtyDays)
	}

	if count == 0 {
		if err = e.repositories.SummaryRepository.Create(ctx, domain, enum.ThirtyDays, *data); err != nil {
			return errors.Wrapf(err, "create %s", enum.ThirtyDays)
		}
		log.Infof("Summary %s created", enum.ThirtyDays)
		result.SummariesCreated++
		change.Created = append(change.Created, enum.ThirtyDays)
	} else {
		updated, err := e.repositories.SummaryRepository.Upsert(ctx, domain, enum.ThirtyDays, *data)
		if err != nil {
			return errors.Wrapf(err, "upsert %s", enum.ThirtyDays)
		}
		if updated {
			result.SummariesUpserted++
			change.Upserted = append(change.Upserted, enum.ThirtyDays)
		}
	}

	sendsEmail := enum.SendsEmailFalse
	if data.CategoryTotals.AnyPass() {
		sendsEmail = enum.SendsEmailTrue
	}
	if err = e.repositories.DomainRepository.UpdateMailStatus(ctx, domain, sendsEmail); err != nil {
		return err
	}
	change.SendsEmail = sendsEmail.String()
	return nil
}

func (e *Engine) upsert(ctx context.Context, log logger.Logger, domain, startDate string, change *dto.SummariesReconciled, result *dto.RunResult) error {
	data, err := e.builder.Build(ctx, domain, startDate)
	if err != nil {
		return errors.Wrapf(err, "build %s", startDate)
	}

	updated, err := e.repositories.SummaryRepository.Upsert(ctx, domain, startDate, *data)
	if err != nil {
		return errors.Wrapf(err, "upsert %s", startDate)
	}
	if !updated {
		log.Warnf("No summary stored for %s, nothing to upsert", startDate)
		return nil
	}
	log.Debugf("Summary %s refreshed", startDate)
	result.SummariesUpserted++
	change.Upserted = append(change.Upserted, startDate)
	return nil
}
