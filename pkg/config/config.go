package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	NodeID     int64  `mapstructure:"NODE_ID"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr     string `mapstructure:"ADDR"`
		Protocol string `mapstructure:"PROTOCOL"`
		Insecure bool   `mapstructure:"INSECURE"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	AccessControl struct {
		Model  string `mapstructure:"MODEL"`
		Policy string `mapstructure:"POLICY"`
	} `mapstructure:"ACCESS_CONTROL"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
	Vault struct {
		Path      string `mapstructure:"PATH"`
		MountPath string `mapstructure:"MOUNT_PATH"`
	} `mapstructure:"VAULT"`
	AI struct {
		APIKey string `mapstructure:"API_KEY"`
		Model  string `mapstructure:"MODEL"`
	} `mapstructure:"AI"`
	Provisioning struct {
		SlugAttempts int    `mapstructure:"SLUG_ATTEMPTS"`
		PasswordHash string `mapstructure:"PASSWORD_HASH"`
	} `mapstructure:"PROVISIONING"`
	TenantURLs struct {
		AdminBaseURL string `mapstructure:"ADMIN_BASE_URL"`
		StoreBaseURL string `mapstructure:"STORE_BASE_URL"`
	} `mapstructure:"TENANT_URLS"`
	Billing struct {
		GraceDays       int    `mapstructure:"GRACE_DAYS"`
		PeriodDays      int    `mapstructure:"PERIOD_DAYS"`
		CheckoutBaseURL string `mapstructure:"CHECKOUT_BASE_URL"`
		PortalURL       string `mapstructure:"PORTAL_URL"`
		MonitorHour     int    `mapstructure:"MONITOR_HOUR"`
	} `mapstructure:"BILLING"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "farmavida-master")
	v.SetDefault("NODE_ID", 1)
	v.SetDefault("HTTP_SERVER.ADDR", ":8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.PORT", "5432")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_IDLE_TIME", 10*time.Minute)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 5*time.Second)
	v.SetDefault("OTEL.PROTOCOL", "http")
	v.SetDefault("OTEL.INSECURE", true)
	v.SetDefault("ACCESS_CONTROL.MODEL", "rbac_model.conf")
	v.SetDefault("ACCESS_CONTROL.POLICY", "rbac_policy.csv")
	v.SetDefault("VAULT.MOUNT_PATH", "secret")
	v.SetDefault("AI.MODEL", "gemini-2.5-flash")
	v.SetDefault("PROVISIONING.SLUG_ATTEMPTS", 5)
	v.SetDefault("PROVISIONING.PASSWORD_HASH", "sha256")
	v.SetDefault("TENANT_URLS.ADMIN_BASE_URL", "https://klyver-admin.vercel.app")
	v.SetDefault("TENANT_URLS.STORE_BASE_URL", "http://localhost:5173")
	v.SetDefault("BILLING.GRACE_DAYS", 5)
	v.SetDefault("BILLING.PERIOD_DAYS", 30)
	v.SetDefault("BILLING.CHECKOUT_BASE_URL", "/billing/checkout")
	v.SetDefault("BILLING.PORTAL_URL", "https://billing.stripe.com/p/login/test")
	v.SetDefault("BILLING.MONITOR_HOUR", 3)
}

// Load reads config.yaml (optional) and the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("failed to load .env", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		zap.L().Info("config.yaml not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func LoadConfig(p Params) *Config {
	cfg, err := Load()
	if err != nil {
		zap.L().Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}

	if p.Vault != nil {
		if err := applyVault(context.Background(), p.Vault, cfg); err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			os.Exit(1)
		}
	}

	return cfg
}

func applyVault(ctx context.Context, client *vault.Client, cfg *Config) error {
	path := cfg.Vault.Path
	if path == "" {
		path = cfg.AppEnv
	}

	zap.L().Info("Starting Get Secrets", zap.String("path", path))
	secret, err := client.Secrets.KvV2Read(ctx, path, vault.WithMountPath(cfg.Vault.MountPath))
	if err != nil {
		return err
	}
	zap.L().Info("Success Get Secret")

	overlay := func(dst *string, key string) {
		if val, ok := secret.Data.Data[key].(string); ok && val != "" {
			*dst = val
		}
	}

	overlay(&cfg.Database.User, "postgres_user")
	overlay(&cfg.Database.Password, "postgres_password")
	overlay(&cfg.Redis.Password, "redis_password")
	overlay(&cfg.Minio.AccessKey, "minio_access_key")
	overlay(&cfg.Minio.SecretKey, "minio_secret_key")
	overlay(&cfg.AI.APIKey, "gemini_api_key")

	return nil
}
