package config

import (
	"time"
)

type DB struct {
	Url             string        `envconfig:"URL"`
	Migrate         bool          `envconfig:"MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"topup:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// EventBus selects the transport for domain events.
type EventBus struct {
	Driver       string   `envconfig:"DRIVER" default:"memory"`
	Stream       string   `envconfig:"STREAM" default:"topup.events"`
	Group        string   `envconfig:"GROUP" default:"topup-api"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

// PhonePe configures the hosted checkout gateway.
type PhonePe struct {
	BaseURL          string        `envconfig:"BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	AuthURL          string        `envconfig:"AUTH_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	ClientID         string        `envconfig:"CLIENT_ID"`
	ClientSecret     string        `envconfig:"CLIENT_SECRET"`
	ClientVersion    string        `envconfig:"CLIENT_VERSION" default:"1"`
	CallbackUsername string        `envconfig:"CALLBACK_USERNAME"`
	CallbackPassword string        `envconfig:"CALLBACK_PASSWORD"`
	RedirectURL      string        `envconfig:"REDIRECT_URL" default:"http://localhost:3000/payment/return"`
	ExpireAfter      int           `envconfig:"EXPIRE_AFTER" default:"1200"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

// ProviderAPI holds credentials of one top-up provider.
type ProviderAPI struct {
	BaseURL string        `envconfig:"BASE_URL"`
	Key     string        `envconfig:"KEY"`
	UID     string        `envconfig:"UID"`
	Email   string        `envconfig:"EMAIL"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

type Providers struct {
	SmileOne  *ProviderAPI `envconfig:"SMILEONE"`
	Yokcash   *ProviderAPI `envconfig:"YOKCASH"`
	Hopestore *ProviderAPI `envconfig:"HOPESTORE"`
}

type Order struct {
	ContactPrefixes []string `envconfig:"CONTACT_PREFIXES" default:"62,60,65,91"`
}

type Wallet struct {
	MinDepositPaise   int64 `envconfig:"MIN_DEPOSIT_PAISE" default:"100"`
	AllowStubDeposits bool  `envconfig:"ALLOW_STUB_DEPOSITS" default:"false"`
}

type Reconcile struct {
	Enabled    bool          `envconfig:"ENABLED" default:"true"`
	Spec       string        `envconfig:"SPEC" default:"@every 1m"`
	PendingAge time.Duration `envconfig:"PENDING_AGE" default:"2m"`
	BatchSize  int           `envconfig:"BATCH_SIZE" default:"50"`
}

type Leaderboard struct {
	Size     int           `envconfig:"SIZE" default:"50"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	Timezone string        `envconfig:"TIMEZONE" default:"UTC"`
}

type SendGrid struct {
	APIKey   string `envconfig:"API_KEY"`
	From     string `envconfig:"FROM" default:"no-reply@topup.local"`
	FromName string `envconfig:"FROM_NAME" default:"Topup"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[topup]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env         string       `envconfig:"APP_ENV" default:"development"`
	Server      *Server      `envconfig:"SERVER"`
	Log         *Log         `envconfig:"LOG"`
	DB          *DB          `envconfig:"DATABASE"`
	Auth        *Auth        `envconfig:"AUTH"`
	Redis       *Redis       `envconfig:"REDIS"`
	RateLimit   *RateLimit   `envconfig:"RATE_LIMIT"`
	EventBus    *EventBus    `envconfig:"EVENT_BUS"`
	PhonePe     *PhonePe     `envconfig:"PHONEPE"`
	Providers   *Providers   `envconfig:"PROVIDER"`
	Order       *Order       `envconfig:"ORDER"`
	Wallet      *Wallet      `envconfig:"WALLET"`
	Reconcile   *Reconcile   `envconfig:"RECONCILE"`
	Leaderboard *Leaderboard `envconfig:"LEADERBOARD"`
	SendGrid    *SendGrid    `envconfig:"SENDGRID"`
}
