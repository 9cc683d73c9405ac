package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Path to a YAML rules file overriding the built-in rank table and
	// violation catalog. Empty means built-in defaults.
	RulesFile string

	// Scheduler cadence. Each tick runs the inactivity decay sweep; the
	// monthly reset fires on the first tick of a new calendar month.
	ScheduleInterval time.Duration
	ScheduleEnabled  bool

	// Actor ids granted the manage_points capability outside the top ranks.
	ManagePointsIDs []string

	// Live feed settings.
	FeedQueueSize  int
	WSOrigins      []string
	WSWriteTimeout time.Duration

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("CREWDECK_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("CREWDECK_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("CREWDECK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("CREWDECK_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("CREWDECK_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("CREWDECK_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("CREWDECK_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("CREWDECK_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("CREWDECK_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("CREWDECK_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("CREWDECK_READINESS_REQUIRE_DB", false),

		RulesFile: EnvString("CREWDECK_RULES_FILE", ""),

		ScheduleInterval: EnvDuration("CREWDECK_SCHEDULE_INTERVAL", 24*time.Hour),
		ScheduleEnabled:  EnvBool("CREWDECK_SCHEDULE_ENABLED", true),

		ManagePointsIDs: EnvStrings("CREWDECK_MANAGE_POINTS", nil),

		FeedQueueSize:  EnvInt("CREWDECK_FEED_QUEUE", 64),
		WSOrigins:      EnvStrings("CREWDECK_WS_ORIGINS", nil),
		WSWriteTimeout: EnvDuration("CREWDECK_WS_WRITE_TIMEOUT", 5*time.Second),

		CORSAllowedOrigins:   EnvStrings("CREWDECK_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("CREWDECK_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("CREWDECK_CORS_MAX_AGE_SECONDS", 600),
	}
}
