package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt builds the aggregated configuration error
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings joins the names of missing variables

	"github.com/joho/godotenv" // godotenv loads an optional .env file into the environment
)

// Config holds the server-wide runtime configuration.  Each field
// corresponds to an environment variable.  Domain settings (turnaround,
// layout file, answerers, queue) live in their own loaders so the CLI can
// pick only what it needs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign staff access tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AdminEmail     string // bootstrap admin account, created when no staff exist
	AdminPassword  string // bootstrap admin password
}

// IsProduction reports whether the process runs in a production environment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// LoadDotEnv reads .env from the working directory when present.  Values
// already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads configuration values from the environment and returns a
// Config.  Every missing required variable is reported in one error so an
// operator can fix them all at once.
func Load() (Config, error) {
	LoadDotEnv()
	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),                                            // environment (dev/test/prod)
		Port:           r.must("APP_PORT"),                                           // port to bind the HTTP server
		DBUser:         r.must("DB_USER"),                                            // database user
		DBPass:         os.Getenv("DB_PASS"),                                         // database password (empty allowed)
		DBHost:         r.must("DB_HOST"),                                            // database host
		DBPort:         r.must("DB_PORT"),                                            // database port
		DBName:         r.must("DB_NAME"),                                            // database name
		JWTSecret:      r.must("JWT_SECRET"),                                         // secret used for signing JWTs
		AccessTTLMin:   r.intOr("ACCESS_TOKEN_TTL_MIN", 15),                          // TTL for access tokens in minutes
		RefreshTTLDays: r.intOr("REFRESH_TOKEN_TTL_DAYS", 7),                         // TTL for refresh tokens in days
		BcryptCost:     r.intOr("BCRYPT_COST", 10),                                   // bcrypt cost factor
		AdminEmail:     strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))), // optional bootstrap admin
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings.  The admin CLI uses it
// so it can run without the HTTP and JWT variables.
func LoadDatabase() (Config, error) {
	LoadDotEnv()
	var r reader
	cfg := Config{
		Env:    envStr("APP_ENV", "dev"),
		DBUser: r.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: r.must("DB_HOST"),
		DBPort: r.must("DB_PORT"),
		DBName: r.must("DB_NAME"),
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// reader collects problems while variables are read.
type reader struct {
	missing []string
	invalid []string
}

// must retrieves the value of a required environment variable and
// records it as missing when unset or empty.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

// intOr parses an optional integer, recording malformed values.
func (r *reader) intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
		return def
	}
	return n
}

func (r *reader) err() error {
	var parts []string
	if len(r.missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		parts = append(parts, "invalid int values: "+strings.Join(r.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}
