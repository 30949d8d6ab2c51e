package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// DMARC summaries reconciliation, daily at 02:00
	CronScheduleDmarcSummaries string `env:"CRON_SCHEDULE_DMARC_SUMMARIES" envDefault:"0 0 2 * * *"`
	// Without a cluster the manager skips leader election
	LocalMode bool   `env:"LOCAL_DEV" envDefault:"false"`
	PodName   string `env:"POD_NAME" envDefault:"local"`
	Namespace string `env:"POD_NAMESPACE" envDefault:"default"`
}
