package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "terrainforge"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Pricing      PricingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TERRAINFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"TERRAINFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TERRAINFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TERRAINFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TERRAINFORGE_DB_DSN"`
	Driver string `envconfig:"TERRAINFORGE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TERRAINFORGE_DB_HOST"`
	Port     int    `envconfig:"TERRAINFORGE_DB_PORT" default:"5432"`
	User     string `envconfig:"TERRAINFORGE_DB_USER"`
	Password string `envconfig:"TERRAINFORGE_DB_PASSWORD"`
	Name     string `envconfig:"TERRAINFORGE_DB_NAME"`
	SSLMode  string `envconfig:"TERRAINFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TERRAINFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TERRAINFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TERRAINFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TERRAINFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either TERRAINFORGE_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TERRAINFORGE_REDIS_URL"`
	Address      string        `envconfig:"TERRAINFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"TERRAINFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TERRAINFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TERRAINFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TERRAINFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TERRAINFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TERRAINFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TERRAINFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	ManifestPath string        `envconfig:"TERRAINFORGE_CATALOG_MANIFEST_PATH"`
	CacheTTL     time.Duration `envconfig:"TERRAINFORGE_CATALOG_CACHE_TTL" default:"5m"`
}

// PricingConfig carries the tunable print-cost and commission constants.
// Geometry-side values are floats; money-side rates are parsed into decimals
// by the pricing engine.
type PricingConfig struct {
	MaterialCostPerGram    float64 `envconfig:"TERRAINFORGE_PRICING_MATERIAL_COST_PER_GRAM" default:"0.04"`
	MachineCostPerHour     float64 `envconfig:"TERRAINFORGE_PRICING_MACHINE_COST_PER_HOUR" default:"1.25"`
	LaborCostPerPrint      float64 `envconfig:"TERRAINFORGE_PRICING_LABOR_COST_PER_PRINT" default:"2.50"`
	PrintSpeedGramsPerHour float64 `envconfig:"TERRAINFORGE_PRICING_PRINT_SPEED_GRAMS_PER_HOUR" default:"28"`
	OverheadMultiplier     float64 `envconfig:"TERRAINFORGE_PRICING_OVERHEAD_MULTIPLIER" default:"1.15"`
	CommissionRate         float64 `envconfig:"TERRAINFORGE_PRICING_COMMISSION_RATE" default:"0.30"`
	RepeatMarginRate       float64 `envconfig:"TERRAINFORGE_PRICING_REPEAT_MARGIN_RATE" default:"0.25"`

	WallThicknessCm    float64 `envconfig:"TERRAINFORGE_PRICING_WALL_THICKNESS_CM" default:"0.2"`
	InfillFraction     float64 `envconfig:"TERRAINFORGE_PRICING_INFILL_FRACTION" default:"0.08"`
	WasteFactor        float64 `envconfig:"TERRAINFORGE_PRICING_WASTE_FACTOR" default:"1.05"`
	DensityGramsPerCm3 float64 `envconfig:"TERRAINFORGE_PRICING_DENSITY_G_PER_CM3" default:"1.24"`
	MinWeightGrams     float64 `envconfig:"TERRAINFORGE_PRICING_MIN_WEIGHT_GRAMS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TERRAINFORGE_FEATURE_AUTO_MIGRATE" default:"false"`
}
