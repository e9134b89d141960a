package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	AllowOrigins    []string
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
	// TrustedProxies are the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the client IP is always the TCP peer.
	TrustedProxies []string
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret   string
	Issuer   string
	TTLHours int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.TTLHours) * time.Hour }

type Cookie struct {
	Secure bool
	Domain string
}

type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlsec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Media struct {
	Driver        string
	CloudinaryURL string
	LocalDir      string
	PublicBaseURL string
	DefaultFolder string
	MaxUploadMB   int
}

type Limits struct {
	RPS         float64
	Burst       int
	SubmitRPS   float64
	SubmitBurst int
	Concurrency int64
	MaxBodyMB   int64
	TimeoutSec  int
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	Cookie Cookie
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Media  Media
	Limits Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quartz-storefront")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 10)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)
	v.SetDefault("jwt.issuer", "quartz-storefront")
	v.SetDefault("jwt.ttlhours", 7*24)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("redis.ttlsec", 300)
	v.SetDefault("media.driver", "local")
	v.SetDefault("media.localdir", "./uploads")
	v.SetDefault("media.publicbaseurl", "/uploads")
	v.SetDefault("media.defaultfolder", "alfa_ventura")
	v.SetDefault("media.maxuploadmb", 10)
	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.submitrps", 0.2)
	v.SetDefault("limits.submitburst", 5)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.maxbodymb", 16)
	v.SetDefault("limits.timeoutsec", 10)
}

// Load reads the YAML file at path (or CONFIG_PATH, or the local default)
// and applies APP_* environment overrides, e.g. APP_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	var problems []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		problems = append(problems, errors.New("jwt.secret is required"))
	}
	if c.JWT.TTLHours <= 0 {
		problems = append(problems, errors.New("jwt.ttlhours must be positive"))
	}
	switch c.DB.Driver {
	case "mysql", "postgres":
	default:
		problems = append(problems, fmt.Errorf("db.driver %q not supported", c.DB.Driver))
	}
	for _, p := range c.App.TrustedProxies {
		if !validProxy(p) {
			problems = append(problems, fmt.Errorf("app.trustedproxies: %q is not an IP or CIDR", p))
		}
	}
	switch c.Media.Driver {
	case "cloudinary":
		if c.Media.CloudinaryURL == "" {
			problems = append(problems, errors.New("media.cloudinaryurl is required for the cloudinary driver"))
		}
	case "local":
	default:
		problems = append(problems, fmt.Errorf("media.driver %q not supported", c.Media.Driver))
	}
	return errors.Join(problems...)
}

func validProxy(p string) bool {
	if strings.Contains(p, "/") {
		_, _, err := net.ParseCIDR(p)
		return err == nil
	}
	return net.ParseIP(p) != nil
}
