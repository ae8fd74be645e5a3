package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Log           LogConfig
	MongoDB       MongoDBConfig
	Collections   CollectionsConfig
	Kafka         KafkaConfig
	Ingest        IngestConfig
	Elasticsearch ElasticsearchConfig
	Snapshot      SnapshotConfig
	FileState     FileStateConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level      string
	Pretty     bool
	File       string // Empty disables file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type MongoDBConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

type CollectionsConfig struct {
	SortField          string
	DashboardSortField string
	// ApiLimits caps the raw data endpoints per collection. 0 means no limit.
	ApiLimits map[string]int64
	// LogsPageLimit and DashboardPageLimit cap the server-rendered page queries.
	LogsPageLimit      int64
	DashboardPageLimit int64
}

type KafkaConfig struct {
	Brokers       []string
	IngestTopic   string
	ConsumerGroup string
}

type IngestConfig struct {
	Enabled      bool
	LogDirectory string // Directory scanned for *.log activity files
	Schedule     string
	BatchSize    int
	MaxBatchWait time.Duration
}

type ElasticsearchConfig struct {
	Addresses     []string
	LogIndex      string
	BulkWorkers   int           // Number of concurrent goroutines for bulk indexing
	FlushBytes    int           // Flush threshold for bulk indexer
	FlushInterval time.Duration // Flush interval for bulk indexer
}

type SnapshotConfig struct {
	Enabled  bool
	Schedule string
}

type FileStateConfig struct {
	FilePath string
}

// Collection names used across the service.
const (
	CollectionAlerts    = "alerts"
	CollectionLogs      = "logs"
	CollectionReports   = "reports"
	CollectionThreats   = "threats"
	CollectionDashboard = "dashboard"
)

// Collections lists every collection the dashboard reads.
var Collections = []string{
	CollectionAlerts,
	CollectionLogs,
	CollectionReports,
	CollectionThreats,
	CollectionDashboard,
}

func NewConfig() (*Config, error) {
	// Configure Viper to read .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Enable automatic environment variable loading
	viper.AutomaticEnv()

	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	cfg := load()

	log.Info().Interface("config", redacted(cfg)).Msg("Config loaded")
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", true)
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 100)
	viper.SetDefault("LOG_MAX_BACKUPS", 7)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 7)
	viper.SetDefault("LOG_COMPRESS", true)

	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DATABASE", "vulnerability")
	viper.SetDefault("MONGODB_CONNECT_TIMEOUT", "5s")
	viper.SetDefault("MONGODB_MAX_POOL_SIZE", 50)

	// "metacritic" reproduces the legacy ordering of the data endpoints and the logs page.
	viper.SetDefault("COLLECTION_SORT_FIELD", "timestamp")
	viper.SetDefault("DASHBOARD_SORT_FIELD", "timestamp")
	viper.SetDefault("API_LIMIT_ALERTS", 0)
	viper.SetDefault("API_LIMIT_REPORTS", 0)
	viper.SetDefault("API_LIMIT_THREATS", 10)
	viper.SetDefault("API_LIMIT_LOGS", 10)
	viper.SetDefault("LOGS_PAGE_LIMIT", 20)
	viper.SetDefault("DASHBOARD_PAGE_LIMIT", 20)

	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_INGEST_TOPIC", "security_documents")
	viper.SetDefault("KAFKA_CONSUMER_GROUP", "dashboard_ingest_group")

	viper.SetDefault("INGEST_ENABLED", false)
	viper.SetDefault("INGEST_LOG_DIRECTORY", "./activity")
	viper.SetDefault("INGEST_SCHEDULE", "*/300 * * * * *") // Every 300 seconds
	viper.SetDefault("INGEST_BATCH_SIZE", 100)
	viper.SetDefault("INGEST_MAX_BATCH_WAIT", "5s")

	viper.SetDefault("ELASTICSEARCH_ADDRESSES", "http://localhost:9200")
	viper.SetDefault("ELASTICSEARCH_LOG_INDEX", "activitylogs")
	viper.SetDefault("ELASTICSEARCH_BULK_WORKERS", 2)
	viper.SetDefault("ELASTICSEARCH_FLUSH_BYTES", 1048576) // 1MB
	viper.SetDefault("ELASTICSEARCH_FLUSH_INTERVAL", "5s")

	viper.SetDefault("SNAPSHOT_ENABLED", false)
	viper.SetDefault("SNAPSHOT_SCHEDULE", "0 */15 * * * *")

	viper.SetDefault("FILE_STATE_PATH", "./ingest_state.json")
}

func load() *Config {
	var config Config
	config.Server.Port = viper.GetString("SERVER_PORT")

	// --- Logging ---
	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")
	config.Log.File = viper.GetString("LOG_FILE")
	config.Log.MaxSizeMB = viper.GetInt("LOG_MAX_SIZE_MB")
	config.Log.MaxBackups = viper.GetInt("LOG_MAX_BACKUPS")
	config.Log.MaxAgeDays = viper.GetInt("LOG_MAX_AGE_DAYS")
	config.Log.Compress = viper.GetBool("LOG_COMPRESS")

	// --- MongoDB ---
	config.MongoDB.URI = viper.GetString("MONGODB_URI")
	config.MongoDB.Database = viper.GetString("MONGODB_DATABASE")
	config.MongoDB.ConnectTimeout = viper.GetDuration("MONGODB_CONNECT_TIMEOUT")
	config.MongoDB.MaxPoolSize = viper.GetUint64("MONGODB_MAX_POOL_SIZE")

	// --- Collections ---
	config.Collections.SortField = viper.GetString("COLLECTION_SORT_FIELD")
	config.Collections.DashboardSortField = viper.GetString("DASHBOARD_SORT_FIELD")
	config.Collections.ApiLimits = map[string]int64{
		CollectionAlerts:  viper.GetInt64("API_LIMIT_ALERTS"),
		CollectionReports: viper.GetInt64("API_LIMIT_REPORTS"),
		CollectionThreats: viper.GetInt64("API_LIMIT_THREATS"),
		CollectionLogs:    viper.GetInt64("API_LIMIT_LOGS"),
	}
	config.Collections.LogsPageLimit = viper.GetInt64("LOGS_PAGE_LIMIT")
	config.Collections.DashboardPageLimit = viper.GetInt64("DASHBOARD_PAGE_LIMIT")

	// --- Kafka ---
	config.Kafka.Brokers = splitList(viper.GetString("KAFKA_BROKERS"))
	config.Kafka.IngestTopic = viper.GetString("KAFKA_INGEST_TOPIC")
	config.Kafka.ConsumerGroup = viper.GetString("KAFKA_CONSUMER_GROUP")

	// --- Ingest ---
	config.Ingest.Enabled = viper.GetBool("INGEST_ENABLED")
	config.Ingest.LogDirectory = viper.GetString("INGEST_LOG_DIRECTORY")
	config.Ingest.Schedule = viper.GetString("INGEST_SCHEDULE")
	config.Ingest.BatchSize = viper.GetInt("INGEST_BATCH_SIZE")
	config.Ingest.MaxBatchWait = viper.GetDuration("INGEST_MAX_BATCH_WAIT")

	// --- Elasticsearch ---
	config.Elasticsearch.Addresses = splitList(viper.GetString("ELASTICSEARCH_ADDRESSES"))
	config.Elasticsearch.LogIndex = viper.GetString("ELASTICSEARCH_LOG_INDEX")
	config.Elasticsearch.BulkWorkers = viper.GetInt("ELASTICSEARCH_BULK_WORKERS")
	config.Elasticsearch.FlushBytes = viper.GetInt("ELASTICSEARCH_FLUSH_BYTES")
	config.Elasticsearch.FlushInterval = viper.GetDuration("ELASTICSEARCH_FLUSH_INTERVAL")

	// --- Snapshot ---
	config.Snapshot.Enabled = viper.GetBool("SNAPSHOT_ENABLED")
	config.Snapshot.Schedule = viper.GetString("SNAPSHOT_SCHEDULE")

	// --- File State ---
	config.FileState.FilePath = viper.GetString("FILE_STATE_PATH")

	return &config
}

// APILimit returns the configured limit for a raw data endpoint. 0 means unlimited.
func (c *Config) APILimit(collection string) int64 {
	return c.Collections.ApiLimits[collection]
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redacted hides credentials embedded in the Mongo URI before the config is logged.
func redacted(cfg *Config) Config {
	c := *cfg
	if at := strings.LastIndex(c.MongoDB.URI, "@"); at > 0 {
		if scheme := strings.Index(c.MongoDB.URI, "://"); scheme >= 0 && scheme+3 < at {
			c.MongoDB.URI = c.MongoDB.URI[:scheme+3] + "***" + c.MongoDB.URI[at:]
		}
	}
	return c
}
