package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/internal/database"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/repository"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/server"
	"github.com/customeros/dmarc-summaries/services"
)

func main() {
	app := &cli.App{
		Name:  "dmarc-summaries",
		Usage: "Reconcile DMARC summaries between the report store and the graph",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: migrate,
			},
			{
				Name:   "run",
				Usage:  "Reconcile every manifest domain once and exit",
				Action: runOnce,
			},
			{
				Name:   "serve",
				Usage:  "Start the scheduler and HTTP server",
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	return cfg, appLogger, nil
}

func migrate(*cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	if err := config.Validate(cfg.DatabaseConfig); err != nil {
		return err
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig, appLogger)
	if err != nil {
		return err
	}
	if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	appLogger.Info("Database migration completed successfully")
	return nil
}

func runOnce(c *cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	if err := config.Validate(cfg.ReconcileSections()...); err != nil {
		return err
	}

	closer, err := tracing.InitGlobalTracer(cfg.Tracing, appLogger)
	if err != nil {
		return errors.Wrap(err, "could not initialize jaeger tracer")
	}
	defer closer.Close()

	db, err := database.InitDatabase(cfg.DatabaseConfig, appLogger)
	if err != nil {
		return err
	}

	svcs, err := services.InitServices(cfg, db, appLogger)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	result, err := svcs.Job.Execute(ctx)
	if result != nil {
		appLogger.Infof("Run %s: %d processed, %d skipped, %d failed",
			result.RunID, result.DomainsProcessed, result.DomainsSkipped, result.DomainsFailed())
	}
	return err
}

func serve(*cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	if err := config.Validate(cfg.ReconcileSections()...); err != nil {
		return err
	}

	closer, err := tracing.InitGlobalTracer(cfg.Tracing, appLogger)
	if err != nil {
		return errors.Wrap(err, "could not initialize jaeger tracer")
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig, appLogger)
	if err != nil {
		closer.Close()
		return err
	}

	srv, err := server.NewServer(cfg, db, appLogger, kubernetesClient(appLogger), closer)
	if err != nil {
		closer.Close()
		return errors.Wrap(err, "server setup failed")
	}
	return srv.Run()
}

// kubernetesClient returns nil outside a cluster, which puts the cron
// manager in local mode.
func kubernetesClient(log logger.Logger) kubernetes.Interface {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		log.Infof("Not running in a cluster: %v", err)
		return nil
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		log.Warnf("Could not create kubernetes client: %v", err)
		return nil
	}
	return clientset
}
