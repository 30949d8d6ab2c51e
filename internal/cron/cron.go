package cron

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/customeros/dmarc-summaries/interfaces"
	cron_config "github.com/customeros/dmarc-summaries/internal/cron/config"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

const (
	GroupDmarcSummaries = "dmarc_summaries"

	JobHeartbeat      = "heartbeat"
	JobDmarcSummaries = "dmarc_summaries"

	LeaseName = "dmarc-summaries-cron-leader"
	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupDmarcSummaries: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *cron_config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	cronLock sync.Mutex
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	stopOnce sync.Once
	jobIDs   map[string]cronv3.EntryID
	job      interfaces.DmarcSummaryJob
}

func NewCronManager(cfg *cron_config.Config, log logger.Logger, k8s kubernetes.Interface, job interfaces.DmarcSummaryJob) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		k8s:    k8s,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		job:    job,
	}
}

// Start runs the scheduler on the elected leader pod only. Without a
// kubernetes client, or in local mode, it schedules right away.
func (cm *CronManager) Start(ctx context.Context) error {
	if cm.k8s == nil || cm.cfg.LocalMode {
		cm.log.Info("Starting cron manager in local mode")
		return cm.StartCron()
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      LeaseName,
			Namespace: cm.cfg.Namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: cm.cfg.PodName,
		},
	}

	le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
		Lock:            lock,
		ReleaseOnCancel: true,
		LeaseDuration:   LeaseDuration,
		RenewDeadline:   RenewDeadline,
		RetryPeriod:     RetryPeriod,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(ctx context.Context) {
				if err := cm.StartCron(); err != nil {
					cm.log.Errorf("Failed to start crons: %v", err)
				}
			},
			OnStoppedLeading: func() {
				cm.log.Info("Leader lost - stopping crons")
				cm.StopCron()
			},
			OnNewLeader: func(identity string) {
				cm.log.Infof("New leader elected: %s", identity)
			},
		},
	})
	if err != nil {
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		return cm.StartCron()
	}

	leCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-cm.stopCh:
		case <-leCtx.Done():
		}
		cancel()
	}()
	go le.Run(leCtx)
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
	cm.cronLock.Lock()
	defer cm.cronLock.Unlock()
	if cm.cron != nil {
		return nil
	}

	cm.log.Info("Starting cron manager")
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	)
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

// StopCron stops scheduling and waits for running jobs to finish.
func (cm *CronManager) StopCron() {
	cm.cronLock.Lock()
	defer cm.cronLock.Unlock()
	if cm.cron == nil {
		return
	}

	cm.log.Info("Stopping cron manager")
	ctx := cm.cron.Stop()
	<-ctx.Done()
	cm.cron = nil
}

// Stop gracefully stops the cron manager. It is safe to call more than once.
func (cm *CronManager) Stop() {
	cm.StopCron()
	cm.stopOnce.Do(func() {
		close(cm.stopCh)
	})
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cfg.CronScheduleHeartbeat != "" {
		podName := cm.cfg.PodName
		id, err := c.AddFunc(cm.cfg.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return err
		}
		cm.jobIDs[JobHeartbeat] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cm.cfg.CronScheduleHeartbeat)
	}

	if cm.cfg.CronScheduleDmarcSummaries != "" {
		id, err := c.AddFunc(cm.cfg.CronScheduleDmarcSummaries, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupDmarcSummaries].Lock()
			defer jobLocks.locks[GroupDmarcSummaries].Unlock()
			cm.reconcileDmarcSummaries()
		})
		if err != nil {
			return err
		}
		cm.jobIDs[JobDmarcSummaries] = id
		cm.log.Infof("Registered dmarc summaries job with schedule: %s", cm.cfg.CronScheduleDmarcSummaries)
	}
	return nil
}

func (cm *CronManager) reconcileDmarcSummaries() {
	cm.log.Info("Running dmarc summaries reconciliation")

	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.reconcileDmarcSummaries")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	result, err := cm.job.Execute(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		if errors.Is(err, er.ErrRunInProgress) {
			cm.log.Warn("Skipping scheduled reconciliation, a run is already in progress")
			return
		}
		cm.log.Errorf("Dmarc summaries reconciliation failed: %v", err)
		return
	}

	cm.log.Infof("Dmarc summaries reconciliation %s completed: %d domains processed, %d skipped",
		result.RunID, result.DomainsProcessed, result.DomainsSkipped)
}
