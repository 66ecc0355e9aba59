// Package config loads the YAML configuration shared by the pipeline binaries.
// Every key can be overridden by an environment variable of the same name.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/db"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where binaries look for the config file when CONFIG_PATH
// is unset.
const DefaultPath = "internal/pipeline/config/config.yaml"

type Config struct {
	GRPCPort int `yaml:"GRPC_PORT"`
	HTTPPort int `yaml:"HTTP_PORT"`
	AuthPort int `yaml:"AUTH_PORT"`

	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`

	// KafkaBrokers may be empty, events are then only logged.
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	AuditGroupID string   `yaml:"AUDIT_GROUP_ID"`

	JWTSecret string        `yaml:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"TOKEN_TTL"`

	AdminEmail              string `yaml:"ADMIN_EMAIL"`
	AdminPassword           string `yaml:"ADMIN_PASSWORD"`
	DefaultEmployeePassword string `yaml:"DEFAULT_EMPLOYEE_PASSWORD"`

	OfferExpiryInterval time.Duration `yaml:"OFFER_EXPIRY_INTERVAL"`
	OfferExpiryBatch    int           `yaml:"OFFER_EXPIRY_BATCH"`
	HealthInterval      time.Duration `yaml:"HEALTH_INTERVAL"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error when
// the environment supplies the required keys.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Database returns the repository connection settings.
func (c *Config) Database() *db.Config {
	return &db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_HOST":                   &c.DBHost,
		"DB_USER":                   &c.DBUser,
		"DB_PASSWORD":               &c.DBPassword,
		"DB_NAME":                   &c.DBName,
		"DB_SSLMODE":                &c.DBSSLMode,
		"TOPIC":                     &c.Topic,
		"AUDIT_GROUP_ID":            &c.AuditGroupID,
		"JWT_SECRET":                &c.JWTSecret,
		"ADMIN_EMAIL":               &c.AdminEmail,
		"ADMIN_PASSWORD":            &c.AdminPassword,
		"DEFAULT_EMPLOYEE_PASSWORD": &c.DefaultEmployeePassword,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GRPC_PORT":          &c.GRPCPort,
		"HTTP_PORT":          &c.HTTPPort,
		"AUTH_PORT":          &c.AuthPort,
		"DB_PORT":            &c.DBPort,
		"OFFER_EXPIRY_BATCH": &c.OfferExpiryBatch,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":             &c.TokenTTL,
		"OFFER_EXPIRY_INTERVAL": &c.OfferExpiryInterval,
		"HEALTH_INTERVAL":       &c.HealthInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = nil
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, broker)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.GRPCPort, 50051)
	setDefault(&c.HTTPPort, 8080)
	setDefault(&c.AuthPort, 8081)
	setDefault(&c.DBPort, 5432)
	setDefault(&c.DBSSLMode, "disable")
	setDefault(&c.Topic, "pipeline-events")
	setDefault(&c.AuditGroupID, "pipeline-audit")
	setDefault(&c.TokenTTL, 24*time.Hour)
	setDefault(&c.OfferExpiryInterval, 10*time.Minute)
	setDefault(&c.OfferExpiryBatch, 100)
	setDefault(&c.HealthInterval, 10*time.Second)
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DBHost == "" || c.DBName == "" {
		return fmt.Errorf("DB_HOST and DB_NAME are required")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func setDefault[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}
