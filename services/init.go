package services

import (
	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/repository"
	"github.com/customeros/dmarc-summaries/internal/utils"
	"github.com/customeros/dmarc-summaries/services/dmarc_report"
	"github.com/customeros/dmarc-summaries/services/events"
	"github.com/customeros/dmarc-summaries/services/manifest"
	"github.com/customeros/dmarc-summaries/services/planner"
	"github.com/customeros/dmarc-summaries/services/reports"
	"github.com/customeros/dmarc-summaries/services/summary"
)

type Services struct {
	Repositories   *repository.Repositories
	ReportSource   interfaces.ReportSource
	SummaryBuilder interfaces.SummaryBuilder
	ManifestSource interfaces.ManifestSource
	EventPublisher interfaces.EventPublisher
	Planner        *planner.Planner
	Engine         *dmarc_report.Engine
	Job            interfaces.DmarcSummaryJob
}

func InitServices(cfg *config.Config, db *gorm.DB, log logger.Logger) (*Services, error) {
	repos := repository.InitRepositories(db)

	container, err := reports.NewCosmosContainer(cfg.CosmosConfig)
	if err != nil {
		return nil, err
	}
	reportSource := reports.NewReportSource(container)
	builder := summary.NewBuilder(reportSource)

	manifestSource, err := manifest.NewManifestSource(cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := events.NewEventPublisher(cfg.RabbitMQConfig, log)
	if err != nil {
		return nil, err
	}

	periodPlanner := planner.NewPlanner(cfg.AppConfig.PeriodMonths, utils.Now)
	engine := dmarc_report.NewEngine(log, repos, builder, publisher)

	return &Services{
		Repositories:   repos,
		ReportSource:   reportSource,
		SummaryBuilder: builder,
		ManifestSource: manifestSource,
		EventPublisher: publisher,
		Planner:        periodPlanner,
		Engine:         engine,
		Job:            dmarc_report.NewJob(log, manifestSource, periodPlanner, engine),
	}, nil
}

// Close releases connections held by the services.
func (s *Services) Close() error {
	return s.EventPublisher.Close()
}
