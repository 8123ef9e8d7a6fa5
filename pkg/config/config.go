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
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Dashboard DashboardConfig
	Backend   BackendConfig
	Redis     RedisConfig
	Jobs      JobsConfig
	Log       LogConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	Timezone string // calendario local usado para "ontem" y las ventanas por defecto
}

// Location devuelve la zona horaria configurada; UTC si el nombre no es válido.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
	MaxConns    int32
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

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DashboardConfig credenciales del operador del panel (password guardada como hash bcrypt).
type DashboardConfig struct {
	User     string
	PassHash string
}

// BackendConfig fachada RPC del backend (método + token + data vía POST).
type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// RedisConfig conexión opcional para el lock distribuido de jobs. Addr vacío = lock en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// JobsConfig parámetros de los jobs de conciliación.
type JobsConfig struct {
	Parallelism       int    // productos en vuelo por tienda
	FlowLookbackDays  int    // tamaño de la ventana por defecto del flujo
	DefaultGroupID    int64  // grupo usado cuando la petición no trae uno
	StoreDirectory    string // "backend" | "postgres"
	FlowAdvanceMaster bool   // el flujo multi-día también actualiza products.saldo
	CronEnabled       bool
}

// LogConfig nivel y tamaño del buffer circular de logs.
type LogConfig struct {
	Level      string
	BufferSize int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JOBS_PARALLELISM, etc.
func Load() (*Config, error) {
	v := viper.New()

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

// FromViper construye la configuración a partir de una instancia de Viper ya cargada.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "fluxo-estoque"),
			Timezone: getString(v, "APP_TIMEZONE", "America/Sao_Paulo"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "estoque"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 25)),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "fluxo-estoque"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 3005),
		},
		Dashboard: DashboardConfig{
			User:     getString(v, "DASH_USER", ""),
			PassHash: getString(v, "DASH_PASS_HASH", ""),
		},
		Backend: BackendConfig{
			URL:     getString(v, "BACKEND_URL", ""),
			Token:   getString(v, "MRK_TOKEN", ""),
			Timeout: time.Duration(getInt(v, "BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  time.Duration(getInt(v, "JOB_LOCK_TTL_MINUTES", 180)) * time.Minute,
		},
		Jobs: JobsConfig{
			Parallelism:       getInt(v, "JOBS_PARALLELISM", 100),
			FlowLookbackDays:  getInt(v, "JOBS_FLOW_LOOKBACK_DAYS", 7),
			DefaultGroupID:    int64(getInt(v, "GROUP_ID", 0)),
			StoreDirectory:    getString(v, "STORE_DIRECTORY", "backend"),
			FlowAdvanceMaster: getBool(v, "FLOW_ADVANCE_MASTER", false),
			CronEnabled:       getBool(v, "CRON_ENABLED", true),
		},
		Log: LogConfig{
			Level:      getString(v, "LOG_LEVEL", "info"),
			BufferSize: getInt(v, "LOG_BUFFER_SIZE", 2000),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// El pool debe admitir al menos una conexión por producto en vuelo.
	if int(cfg.DB.MaxConns) < cfg.Jobs.Parallelism {
		cfg.DB.MaxConns = int32(cfg.Jobs.Parallelism)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Jobs.Parallelism < 1 {
		return fmt.Errorf("config: JOBS_PARALLELISM debe ser >= 1 (recibido %d)", c.Jobs.Parallelism)
	}
	if c.Jobs.FlowLookbackDays < 1 {
		return fmt.Errorf("config: JOBS_FLOW_LOOKBACK_DAYS debe ser >= 1 (recibido %d)", c.Jobs.FlowLookbackDays)
	}
	switch c.Jobs.StoreDirectory {
	case "backend", "postgres":
	default:
		return fmt.Errorf("config: STORE_DIRECTORY inválido %q (backend|postgres)", c.Jobs.StoreDirectory)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("config: APP_TIMEZONE inválido %q: %w", c.App.Timezone, err)
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

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
