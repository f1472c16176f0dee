// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds Orderly's configuration. WAFFLE's CoreConfig carries the
// framework settings (ports, TLS, logging, env); everything here is specific
// to the sales-team API.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token signing
	JWTSecret string
	JWTTTL    time.Duration

	// Outbound email. A blank MailAPIKey logs messages instead of sending them.
	MailAPIKey            string
	MailFrom              string
	MailFromName          string
	MailWelcomeTemplateID string

	// Defaults applied to new records
	DefaultProfilePicture string
	DefaultTeamLogo       string

	// ReconcileSchedule is a cron spec; blank disables the job.
	ReconcileSchedule string

	// LoginRateLimit is login attempts allowed per client IP per minute.
	LoginRateLimit int

	// BcryptCost for password hashes. Zero means bcrypt.DefaultCost.
	BcryptCost int

	// Audit trail destinations per category: all, db, log or off.
	AuditLogAuth       string
	AuditLogMembership string
}
