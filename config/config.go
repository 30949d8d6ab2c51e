package config

const (
	ManifestSourceGitHub = "github"
	ManifestSourceS3     = "s3"
	ManifestSourceFile   = "file"
)

type AppConfig struct {
	APIPort          string `env:"PORT" envDefault:"12222"`
	ManifestSource   string `env:"MANIFEST_SOURCE" envDefault:"github" validate:"oneof=github s3 file"`
	ManifestFilePath string `env:"MANIFEST_FILE_PATH" validate:"required_if=ManifestSource file"`
	PeriodMonths     int    `env:"DMARC_PERIOD_MONTHS" envDefault:"13" validate:"min=1"`
	RunOnStart       bool   `env:"RUN_ON_START" envDefault:"false"`
	APIKey           string `env:"API_KEY"`
}

type DatabaseConfig struct {
	Host            string `env:"DB_HOST" validate:"required"`
	Port            string `env:"DB_PORT" envDefault:"5432" validate:"required,numeric"`
	User            string `env:"DB_USER" validate:"required"`
	DBName          string `env:"DB_NAME" validate:"required"`
	Password        string `env:"DB_PASSWORD" validate:"required"`
	MaxConn         int    `env:"DB_MAX_CONN" envDefault:"10"`
	MaxIdleConn     int    `env:"DB_MAX_IDLE_CONN" envDefault:"5"`
	ConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"DB_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"DB_SSL_MODE" envDefault:"require"`
}

type CosmosConfig struct {
	ConnectionString   string `env:"COSMOS_CONNECTION_STRING" validate:"required"`
	Database           string `env:"COSMOS_DATABASE" envDefault:"tracker" validate:"required"`
	SummariesContainer string `env:"COSMOS_SUMMARIES_CONTAINER" envDefault:"dmarc_summaries" validate:"required"`
}

type GitHubConfig struct {
	APIURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	Owner  string `env:"GITHUB_OWNER" validate:"required"`
	Repo   string `env:"GITHUB_REPO" validate:"required"`
	Path   string `env:"GITHUB_FILE_PATH" envDefault:"domains.json" validate:"required"`
	Branch string `env:"GITHUB_BRANCH" envDefault:"main"`
	Token  string `env:"GITHUB_TOKEN"`
}

type S3Config struct {
	Region          string `env:"MANIFEST_S3_REGION" envDefault:"ca-central-1"`
	Endpoint        string `env:"MANIFEST_S3_ENDPOINT"`
	Bucket          string `env:"MANIFEST_S3_BUCKET" validate:"required"`
	Key             string `env:"MANIFEST_S3_KEY" envDefault:"domains.json" validate:"required"`
	AccessKeyID     string `env:"MANIFEST_S3_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"MANIFEST_S3_ACCESS_KEY_SECRET"`
}

type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"dmarc-summaries"`
}
