package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"brincafacil/entity"
	"brincafacil/lib/validate"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverMySql    = "mysql"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
}

// WebhookConfig holds the shared secrets of the purchase webhook; none of them have defaults.
type WebhookConfig struct {
	Token              string        `yaml:"token" env:"KIRVANO_TOKEN" env-description:"shared webhook token"`
	SignatureSecret    string        `yaml:"signature_secret" env:"KIRVANO_SIGNATURE_SECRET" env-description:"HMAC secret, signature check is off when empty"`
	SignatureHeader    string        `yaml:"signature_header" env:"KIRVANO_SIGNATURE_HEADER" env-default:"X-Kirvano-Signature"`
	SignatureTolerance time.Duration `yaml:"signature_tolerance" env:"KIRVANO_SIGNATURE_TOLERANCE" env-default:"5m"`
	Audit              bool          `yaml:"audit" env:"WEBHOOK_AUDIT" env-default:"true"`
}

type StripeConfig struct {
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory" validate:"oneof=memory mongo mysql postgres supabase"`
}

type MongoConfig struct {
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"brincafacil"`
}

type MySqlConfig struct {
	HostName string `yaml:"hostname" env:"MYSQL_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MYSQL_PORT" env-default:"3306"`
	UserName string `yaml:"username" env:"MYSQL_USER"`
	Password string `yaml:"password" env:"MYSQL_PASSWORD"`
	Database string `yaml:"database" env:"MYSQL_DATABASE" env-default:"brincafacil"`
	Prefix   string `yaml:"prefix" env:"MYSQL_PREFIX"`
}

type SupabaseConfig struct {
	URL            string        `yaml:"url" env:"SUPABASE_URL"`
	ServiceRoleKey string        `yaml:"service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	DatabaseURL    string        `yaml:"database_url" env:"SUPABASE_DB_URL"`
	UsersTable     string        `yaml:"users_table" env:"SUPABASE_USERS_TABLE" env-default:"users"`
	PaymentsTable  string        `yaml:"payments_table" env:"SUPABASE_PAYMENTS_TABLE" env-default:"payments"`
	Timeout        time.Duration `yaml:"timeout" env:"SUPABASE_TIMEOUT" env-default:"10s"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY"`
	ChatIds  []int64 `yaml:"chat_ids" env:"TELEGRAM_CHAT_IDS" env-separator:","`
	MinLevel string  `yaml:"min_level" env:"TELEGRAM_MIN_LEVEL" env-default:"warn" validate:"oneof=debug info warn error"`
}

type ApiConfig struct {
	Token string        `yaml:"token" env:"API_TOKEN"`
	Users []entity.User `yaml:"users"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	Listen   Listen         `yaml:"listen"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Telegram TelegramConfig `yaml:"telegram"`
	Api      ApiConfig      `yaml:"api"`
}

var instance *Config
var once sync.Once

// Load reads the YAML file at path overlaid by the environment; an empty path reads the environment only.
func Load(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(conf)
	} else {
		err = cleanenv.ReadConfig(path, conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err = validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if conf.Api.Token != "" {
		conf.Api.Users = append(conf.Api.Users, entity.User{Username: "api", Token: conf.Api.Token})
	}
	return conf, nil
}

func MustLoad(path string) *Config {
	once.Do(func() {
		var err error
		instance, err = Load(path)
		if err != nil {
			log.Fatal(err)
		}
	})
	return instance
}
