package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa todo lo que el proceso lee del entorno.
type Config struct {
	Port   string
	AppEnv string
	App    string

	LogLevel  string
	LogFormat string

	// DBDSN vacío => storage en memoria.
	DBDSN string

	UploadDir string

	// AMQPURL vacío => eventos sólo al log.
	AMQPURL   string
	AMQPQueue string

	// JWTSecret vacío => sin verificación de bearer (modo dev, header X-Debug-User-ID).
	JWTSecret string

	CORSAllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxy => la IP del cliente sale de X-Forwarded-For/X-Real-IP.
	TrustProxy bool

	MemoryLatency time.Duration
	SeedDemo      bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "vet-clinic-api")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_QUEUE", "clinic_events")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("MEMORY_LATENCY", "0s")
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "30s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")
}

// Load lee .env (si existe) y luego el entorno. Las variables del entorno ganan sobre .env.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:               strings.TrimPrefix(strings.TrimSpace(v.GetString("PORT")), ":"),
		AppEnv:             v.GetString("APP_ENV"),
		App:                v.GetString("APP_NAME"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		DBDSN:              strings.TrimSpace(v.GetString("DB_DSN")),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		AMQPURL:            strings.TrimSpace(v.GetString("AMQP_URL")),
		AMQPQueue:          v.GetString("AMQP_QUEUE"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		TrustProxy:         v.GetBool("TRUST_PROXY"),
		MemoryLatency:      v.GetDuration("MEMORY_LATENCY"),
		SeedDemo:           v.GetBool("SEED_DEMO"),
		ReadTimeout:        v.GetDuration("HTTP_READ_TIMEOUT"),
		WriteTimeout:       v.GetDuration("HTTP_WRITE_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
