package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sourcingbee/challan/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Supabase   SupabaseConfig
	DynamoDB   DynamoDBConfig
	Sequence   SequenceConfig `validate:"required"`
	Sentry     SentryConfig
	Companies  map[string]string         `validate:"required,dive,len=2"`
	Facilities map[string]FacilityConfig `validate:"required,dive"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SupabaseConfig points at the PostgREST RPC surface that owns the production
// counters. NextFn and PeekFn are the names of the SQL functions that increment
// and read a sequence respectively.
type SupabaseConfig struct {
	BaseURL    string
	ServiceKey string
	NextFn     string
	PeekFn     string
}

type DynamoDBConfig struct {
	InUse  bool
	Region string
	Table  string
}

// SequenceConfig drives the counter fallback chain and document splitting.
type SequenceConfig struct {
	// Backends is the ordered fallback chain; the first backend whose health
	// check passes at startup becomes the active one.
	Backends []types.SequenceBackendType `validate:"required,min=1"`
	// Seed is the floor value for previously-unseen counters.
	Seed int64 `validate:"gte=0"`
	// MaxRetries bounds optimistic-concurrency retries on a single Next call.
	MaxRetries int `validate:"gte=1"`
	// MaxItemsPerDocument is the line-item ceiling before a group is split.
	MaxItemsPerDocument int `validate:"gte=1"`
	// PartSuffixFormat renders the continuation-part suffix, e.g. "_%02d".
	PartSuffixFormat string `validate:"required"`
	// StateFile is the JSON state path for the local-file fallback backend.
	StateFile string
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// FacilityConfig describes one origin fulfillment center. All hub- and
// seller-dependent values are resolved from this table per request, never
// cached as process-wide constants.
type FacilityConfig struct {
	// Code is the 2-3 letter facility code embedded in document numbers.
	Code string `validate:"required,min=2,max=3"`
	// MultiHub marks facilities whose destination hubs carry independent
	// counters (hub code becomes part of the sequence key).
	MultiHub bool
	// HubCodes lists the recognized 3-letter destination hub codes.
	HubCodes []string `validate:"dive,len=3"`
	// DefaultHubCode is used when a raw hub value cannot be parsed into a
	// recognized hub code. The fallback is logged, never silent.
	DefaultHubCode string
	// ActiveSellers lists selling entities allowed to issue documents from
	// this facility. Groups for other sellers are skipped with a reason.
	ActiveSellers []string
}

// SellerActive reports whether a selling entity may issue documents from
// this facility.
func (fc FacilityConfig) SellerActive(sellerID string) bool {
	for _, s := range fc.ActiveSellers {
		if strings.EqualFold(s, sellerID) {
			return true
		}
	}
	return false
}

func NewConfig() (*Configuration, error) {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/challan")

	v.SetEnvPrefix("CHALLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeAPI))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))

	v.SetDefault("sequence.backends", []string{
		string(types.SequenceBackendSupabase),
		string(types.SequenceBackendPostgres),
		string(types.SequenceBackendFile),
	})
	v.SetDefault("sequence.seed", types.DefaultSequenceSeed)
	v.SetDefault("sequence.maxretries", 5)
	v.SetDefault("sequence.maxitemsperdocument", types.MaxItemsPerDocument)
	v.SetDefault("sequence.partsuffixformat", types.DefaultPartSuffixFormat)
	v.SetDefault("sequence.statefile", "dc_sequence_state.json")

	v.SetDefault("supabase.nextfn", "get_next_seq")
	v.SetDefault("supabase.peekfn", "get_current_seq")

	v.SetDefault("postgres.sslmode", "disable")

	// Company and facility tables ship with the production defaults so local
	// runs work without a config file. Deployments override via config.yaml.
	v.SetDefault("companies", map[string]string{
		"AMOLAKCHAND": "AK",
		"BODEGA":      "BD",
		"SOURCINGBEE": "SB",
	})
	v.SetDefault("facilities", map[string]any{
		"arihant": map[string]any{
			"code":          "AH",
			"activesellers": []string{"AMOLAKCHAND", "BODEGA", "SOURCINGBEE"},
		},
		"sutlej": map[string]any{
			"code":          "SG",
			"activesellers": []string{"AMOLAKCHAND", "BODEGA", "SOURCINGBEE"},
		},
		"hyderabad": map[string]any{
			"code":           "HYD",
			"multihub":       true,
			"hubcodes":       []string{"BVG", "SGR", "BAL", "KMP", "NCH", "SAN"},
			"defaulthubcode": "NCH",
			"activesellers":  []string{"AMOLAKCHAND"},
		},
	})
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Facility resolves a facility by its config key (case-insensitive). The bool
// reports whether the facility is configured at all.
func (c Configuration) Facility(id string) (FacilityConfig, bool) {
	fc, ok := c.Facilities[strings.ToLower(id)]
	return fc, ok
}

// CompanyCode resolves a selling entity to its 2-letter company code. The
// scan is case-insensitive because viper lowercases map keys read from
// config files, so the loaded table's casing is not under our control.
func (c Configuration) CompanyCode(seller string) (string, bool) {
	for name, code := range c.Companies {
		if strings.EqualFold(name, seller) {
			return code, true
		}
	}
	return "", false
}

// GetDefaultConfig returns a default configuration for local development and
// tests. The file backend keeps it usable without any remote credentials.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Sequence: SequenceConfig{
			Backends:            []types.SequenceBackendType{types.SequenceBackendFile},
			Seed:                types.DefaultSequenceSeed,
			MaxRetries:          5,
			MaxItemsPerDocument: types.MaxItemsPerDocument,
			PartSuffixFormat:    types.DefaultPartSuffixFormat,
			StateFile:           "dc_sequence_state.json",
		},
		Companies: map[string]string{
			"AMOLAKCHAND": "AK",
			"BODEGA":      "BD",
			"SOURCINGBEE": "SB",
		},
		Facilities: map[string]FacilityConfig{
			"arihant": {
				Code:          "AH",
				ActiveSellers: []string{"AMOLAKCHAND", "BODEGA", "SOURCINGBEE"},
			},
			"sutlej": {
				Code:          "SG",
				ActiveSellers: []string{"AMOLAKCHAND", "BODEGA", "SOURCINGBEE"},
			},
			"hyderabad": {
				Code:           "HYD",
				MultiHub:       true,
				HubCodes:       []string{"BVG", "SGR", "BAL", "KMP", "NCH", "SAN"},
				DefaultHubCode: "NCH",
				ActiveSellers:  []string{"AMOLAKCHAND"},
			},
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
