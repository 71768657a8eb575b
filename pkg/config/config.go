package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Ledger   LedgerConfig
	Registry RegistryConfig
	Monitor  MonitorConfig
	Forecast ForecastConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	StorageDriver string // postgres | memory
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT. Los tokens se emiten fuera de este servicio.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	SwaggerFile string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché de pronósticos. Addr vacío = sin caché.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RabbitMQConfig publicación de eventos de alertas. URL vacía = eventos deshabilitados.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// LedgerConfig tiempos y reintentos del ledger.
type LedgerConfig struct {
	OpTimeout    time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LockTimeout  time.Duration
	WeightedCost bool // recalcular costo promedio ponderado en entradas
}

// RegistryConfig unicidad configurable del catálogo.
type RegistryConfig struct {
	UniqueName       bool
	UniquePartNumber bool
}

// MonitorConfig política de alertas.
type MonitorConfig struct {
	AutoResolve bool // resolver automáticamente al superar el umbral
}

// ForecastConfig parámetros por defecto del motor de pronóstico.
type ForecastConfig struct {
	WindowPeriods      int
	Period             string // day | week | month
	SMAPeriods         int
	TrendThreshold     float64
	ServiceLevelFactor float64
	LeadTimePeriods    float64
	OrderingCost       float64
	HoldingCost        float64 // por unidad y año
	HoldingRate        float64 // fracción del costo unitario por año, si HoldingCost es 0
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, LEDGER_OP_TIMEOUT, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper construye la configuración desde una instancia de Viper ya cargada.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "stock-ledger"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			StorageDriver: getString(v, "STORAGE_DRIVER", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "stock-ledger"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			SwaggerFile: getString(v, "HTTP_SWAGGER_FILE", "./docs/swagger.json"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			TTL:      getDuration(v, "FORECAST_CACHE_TTL", 6*time.Hour),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getString(v, "RABBITMQ_URL", ""),
			Exchange: getString(v, "RABBITMQ_EXCHANGE", "inventory_alerts"),
		},
		Ledger: LedgerConfig{
			OpTimeout:    getDuration(v, "LEDGER_OP_TIMEOUT", 5*time.Second),
			MaxRetries:   getInt(v, "LEDGER_MAX_RETRIES", 3),
			RetryBackoff: getDuration(v, "LEDGER_RETRY_BACKOFF", 50*time.Millisecond),
			LockTimeout:  getDuration(v, "LEDGER_LOCK_TIMEOUT", 2*time.Second),
			WeightedCost: getBool(v, "LEDGER_WEIGHTED_COST", true),
		},
		Registry: RegistryConfig{
			UniqueName:       getBool(v, "REGISTRY_UNIQUE_NAME", true),
			UniquePartNumber: getBool(v, "REGISTRY_UNIQUE_PART_NUMBER", true),
		},
		Monitor: MonitorConfig{
			AutoResolve: getBool(v, "ALERT_AUTO_RESOLVE", false),
		},
		Forecast: ForecastConfig{
			WindowPeriods:      getInt(v, "FORECAST_WINDOW_PERIODS", 12),
			Period:             getString(v, "FORECAST_PERIOD", "month"),
			SMAPeriods:         getInt(v, "FORECAST_SMA_PERIODS", 3),
			TrendThreshold:     getFloat(v, "FORECAST_TREND_THRESHOLD", 0.10),
			ServiceLevelFactor: getFloat(v, "FORECAST_SERVICE_LEVEL", 1.65),
			LeadTimePeriods:    getFloat(v, "FORECAST_LEAD_TIME_PERIODS", 1),
			OrderingCost:       getFloat(v, "FORECAST_ORDERING_COST", 0),
			HoldingCost:        getFloat(v, "FORECAST_HOLDING_COST", 0),
			HoldingRate:        getFloat(v, "FORECAST_HOLDING_RATE", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.App.StorageDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORAGE_DRIVER desconocido %q", c.App.StorageDriver)
	}
	switch c.Forecast.Period {
	case "day", "week", "month":
	default:
		return fmt.Errorf("config: FORECAST_PERIOD inválido %q", c.Forecast.Period)
	}
	if c.Forecast.WindowPeriods < 1 || c.Forecast.SMAPeriods < 1 {
		return fmt.Errorf("config: FORECAST_WINDOW_PERIODS y FORECAST_SMA_PERIODS deben ser >= 1")
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("config: LEDGER_MAX_RETRIES no puede ser negativo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getDuration acepta "5s", "250ms" o un entero en milisegundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		raw := strings.TrimSpace(v.GetString(key))
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(raw); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
