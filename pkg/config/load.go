package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load applies the first env file it can find among paths, searching
// upward from the working directory, then reads App from the environment.
// Variables already set in the process win over the file.
func Load(paths ...string) (*App, error) {
	logger := slog.Default()
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	loaded := ""
	for _, p := range paths {
		found, err := FindEnvFile(p)
		if err != nil {
			logger.Debug("env file not found", "path", p)
			continue
		}
		if err := godotenv.Load(found); err != nil {
			logger.Warn("⚠️ [WARN] env file unreadable", "path", found, "error", err)
			continue
		}
		loaded = found
		break
	}
	if loaded == "" {
		logger.Info("No env file loaded, using process environment")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	logger.Info("✅ [SUCCESS] Configuration loaded",
		"env", cfg.Env,
		"env_file", loaded,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"event_bus", cfg.EventBus.Driver,
		"rate_limit", cfg.RateLimit.MaxRequests,
		"jwt_expiry", cfg.Auth.Jwt.Expiry,
		"phonepe", cfg.PhonePe.BaseURL,
		"phonepe_client_id", maskValue(cfg.PhonePe.ClientID),
		"phonepe_client_secret", maskValue(cfg.PhonePe.ClientSecret),
		"smileone_key", maskValue(cfg.Providers.SmileOne.Key),
		"yokcash_key", maskValue(cfg.Providers.Yokcash.Key),
		"hopestore_key", maskValue(cfg.Providers.Hopestore.Key),
		"sendgrid_api_key", maskValue(cfg.SendGrid.APIKey),
		"contact_prefixes", cfg.Order.ContactPrefixes,
		"reconcile", cfg.Reconcile.Spec,
	)
	return &cfg, nil
}

// maskValue keeps enough of a secret to tell two apart in logs.
func maskValue(secret string) string {
	if len(secret) <= 6 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-4:]
}
