package config

import (
	"fmt"
	"time"

	goflags "github.com/jessevdk/go-flags"
)

const (
	BACKEND_SQLITE   = "sqlite"
	BACKEND_POSTGRES = "postgres"
	BACKEND_DYNAMODB = "dynamodb"
)

type NaverConfig struct {
	ClientID     string        `long:"naver-client-id" env:"NAVER_CLIENT_ID" description:"Naver Open API client ID"`
	ClientSecret string        `long:"naver-client-secret" env:"NAVER_CLIENT_SECRET" description:"Naver Open API client secret"`
	Endpoint     string        `long:"naver-endpoint" env:"NAVER_ENDPOINT" default:"https://openapi.naver.com/v1/search/blog" description:"Blog search endpoint"`
	Timeout      time.Duration `long:"naver-timeout" env:"NAVER_TIMEOUT" default:"10s" description:"Search request timeout"`
}

type OpenAIConfig struct {
	APIKey   string        `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	BaseURL  string        `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"Override the OpenAI API base URL"`
	Model    string        `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo" description:"Chat model used for analysis"`
	Timeout  time.Duration `long:"openai-timeout" env:"OPENAI_TIMEOUT" default:"60s" description:"Analysis request timeout"`
	MaxChars int           `long:"openai-max-chars" env:"OPENAI_MAX_CHARS" default:"8000" description:"Corpus length sent to the model, in characters"`
}

type StoreConfig struct {
	Backend       string `long:"store" env:"STORE_BACKEND" default:"sqlite" choice:"sqlite" choice:"postgres" choice:"dynamodb" description:"Where posts and analyses are kept"`
	SQLitePath    string `long:"sqlite-path" env:"SQLITE_PATH" default:"data/reviews.db" description:"SQLite database file"`
	PostgresDSN   string `long:"postgres-dsn" env:"POSTGRES_DSN" description:"Postgres connection string"`
	AWSRegion     string `long:"aws-region" env:"AWS_REGION" default:"us-west-2" description:"DynamoDB region"`
	AWSEndpoint   string `long:"dynamodb-endpoint" env:"DYNAMODB_ENDPOINT" description:"DynamoDB endpoint override, e.g. DynamoDB Local"`
	PostsTable    string `long:"dynamodb-posts-table" env:"DYNAMODB_POSTS_TABLE" default:"BlogPosts" description:"DynamoDB table for posts"`
	AnalysesTable string `long:"dynamodb-analyses-table" env:"DYNAMODB_ANALYSES_TABLE" default:"BlogAnalyses" description:"DynamoDB table for analyses"`
}

type ValkeyConfig struct {
	Address  string        `long:"valkey-addr" env:"VALKEY_ADDR" description:"Valkey address; empty disables the analysis cache"`
	Password string        `long:"valkey-password" env:"VALKEY_PASSWORD" description:"Valkey password"`
	TLS      bool          `long:"valkey-tls" env:"VALKEY_TLS" description:"Connect to Valkey over TLS"`
	TTL      time.Duration `long:"valkey-ttl" env:"VALKEY_TTL" default:"24h" description:"Cached analysis lifetime; 0 keeps entries forever"`
}

type KafkaConfig struct {
	Broker  string `long:"kafka-broker" env:"KAFKA_BROKER" description:"Kafka bootstrap servers; empty disables pipeline events"`
	Topic   string `long:"kafka-topic" env:"KAFKA_TOPIC" default:"reviewflow-pipeline-events" description:"Topic for pipeline events"`
	GroupID string `long:"kafka-group-id" env:"KAFKA_GROUP_ID" default:"reviewflow-events-tail" description:"Consumer group used by the events command"`
}

type HTTPConfig struct {
	Addr string `long:"addr" env:"HTTP_ADDR" default:":8080" description:"Web UI listen address"`
}

// Config is every setting the binary reads. Each field can come from a flag
// or an environment variable; flags win.
type Config struct {
	Env          string `long:"env" env:"APP_ENV" default:"dev" description:"Environment name, selects config/envs/.env.<env>"`
	LogLevel     string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	DefaultCount int    `long:"count" env:"DEFAULT_COUNT" default:"50" description:"Default number of posts to fetch (10-100)"`
	DefaultSort  string `long:"sort" env:"DEFAULT_SORT" default:"date" choice:"date" choice:"sim" description:"Default search order"`

	Naver  NaverConfig  `group:"Naver search"`
	OpenAI OpenAIConfig `group:"OpenAI"`
	Store  StoreConfig  `group:"Storage"`
	Valkey ValkeyConfig `group:"Valkey cache"`
	Kafka  KafkaConfig  `group:"Kafka events"`
	HTTP   HTTPConfig   `group:"Web UI"`
}

// Validate checks combinations go-flags cannot express.
func (c *Config) Validate() error {
	if c.Store.Backend == BACKEND_POSTGRES && c.Store.PostgresDSN == "" {
		return fmt.Errorf("[Config] --postgres-dsn is required with --store=postgres")
	}
	if c.Valkey.TTL < 0 {
		return fmt.Errorf("[Config] --valkey-ttl cannot be negative, got %s", c.Valkey.TTL)
	}
	if c.OpenAI.MaxChars <= 0 {
		return fmt.Errorf("[Config] --openai-max-chars must be positive, got %d", c.OpenAI.MaxChars)
	}
	return nil
}

// Parse fills a Config from args and the environment without subcommands.
func Parse(args []string) (*Config, error) {
	var cfg Config
	parser := goflags.NewParser(&cfg, goflags.HelpFlag|goflags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
