// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devJWTSecret         = "dev-only-change-me-please-0123456789ABCDEF"
	defaultWelcomeTmplID = "d-716eb488afa0459e88a34c6d6473a79c"
	defaultProfilePic    = "https://res.cloudinary.com/orderly/image/upload/v1/defaults/profile.png"
	defaultTeamLogo      = "https://res.cloudinary.com/orderly/image/upload/v1/defaults/team.png"
)

// appConfigKeys are loaded from config files (mongo_uri), environment
// variables (ORDERLY_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "orderly", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Token signing secret (must be set in production)"},
	{Name: "jwt_ttl", Default: "168h", Desc: "Token lifetime (e.g., 24h, 168h)"},

	{Name: "mail_api_key", Default: "", Desc: "SendGrid API key (blank logs emails instead of sending)"},
	{Name: "mail_from", Default: "info@orderly_sales.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Orderly", Desc: "From display name"},
	{Name: "mail_welcome_template_id", Default: defaultWelcomeTmplID, Desc: "SendGrid dynamic template for the welcome email"},

	{Name: "default_profile_picture", Default: defaultProfilePic, Desc: "Profile picture for new users"},
	{Name: "default_team_logo", Default: defaultTeamLogo, Desc: "Logo for new teams"},

	{Name: "reconcile_schedule", Default: "", Desc: "Cron spec for membership reconciliation (blank disables)"},
	{Name: "login_rate_limit", Default: ratelimit.DefaultPerIPPerMinute, Desc: "Login attempts per client IP per minute"},
	{Name: "bcrypt_cost", Default: 0, Desc: "bcrypt cost for password hashes (0 uses the library default)"},

	// Audit trail
	{Name: "audit_log_auth", Default: "all", Desc: "Login/registration events: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_membership", Default: "all", Desc: "Team and member change events: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and Orderly's app config.
// Precedence is flags > env (ORDERLY_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ORDERLY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 168*time.Hour),

		MailAPIKey:            strings.TrimSpace(appValues.String("mail_api_key")),
		MailFrom:              appValues.String("mail_from"),
		MailFromName:          appValues.String("mail_from_name"),
		MailWelcomeTemplateID: appValues.String("mail_welcome_template_id"),

		DefaultProfilePicture: appValues.String("default_profile_picture"),
		DefaultTeamLogo:       appValues.String("default_team_logo"),

		ReconcileSchedule: strings.TrimSpace(appValues.String("reconcile_schedule")),
		LoginRateLimit:    appValues.Int("login_rate_limit"),
		BcryptCost:        appValues.Int("bcrypt_cost"),

		AuditLogAuth:       strings.ToLower(strings.TrimSpace(appValues.String("audit_log_auth"))),
		AuditLogMembership: strings.ToLower(strings.TrimSpace(appValues.String("audit_log_membership"))),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configs that cannot start. Production requires the
// signing secret and the mail key to come from the environment.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database must not be empty")
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", appCfg.JWTTTL)
	}
	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative, got %d", appCfg.LoginRateLimit)
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth must be all, db, log or off, got %q", appCfg.AuditLogAuth)
	}
	if !auditlog.ValidSetting(appCfg.AuditLogMembership) {
		return fmt.Errorf("audit_log_membership must be all, db, log or off, got %q", appCfg.AuditLogMembership)
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		secret := strings.TrimSpace(appCfg.JWTSecret)
		if secret == "" || secret == devJWTSecret {
			return errors.New("jwt_secret must be set in production")
		}
		if appCfg.MailAPIKey == "" {
			return errors.New("mail_api_key must be set in production")
		}
	}
	return nil
}
