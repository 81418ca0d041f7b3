package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses interval values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// polling and timeout knobs of the reconciliation loop.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	DBMaxOpen         int           // connection pool: max open connections
	DBMaxIdle         int           // connection pool: max idle connections
	DBConnLifetime    time.Duration // connection pool: max connection age
	JWTSecret         string        // secret used to verify tenant JWTs
	ReconcileInterval time.Duration // fixed polling interval for device reconciliation
	ClientTimeout     time.Duration // per-request timeout for device API calls
	TaxRate           float64       // tax rate applied to split bills (fixed, default 0.10)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Tunables that have
// safe defaults (polling interval, client timeout, tax rate) fall back to
// those defaults when unset.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),      // environment (dev/test/prod)
		Port:              must("APP_PORT"),     // port to bind the HTTP server
		DBUser:            must("DB_USER"),      // database user
		DBPass:            os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:            must("DB_HOST"),      // database host
		DBPort:            must("DB_PORT"),      // database port
		DBName:            must("DB_NAME"),      // database name
		DBMaxOpen:         atoi(getenv("DB_MAX_OPEN_CONNS", "25")),
		DBMaxIdle:         atoi(getenv("DB_MAX_IDLE_CONNS", "25")),
		DBConnLifetime:    parseDur(getenv("DB_CONN_LIFETIME", "30m")),
		JWTSecret:         must("JWT_SECRET"),   // secret used for verifying tenant tokens
		ReconcileInterval: parseDur(getenv("RECONCILE_INTERVAL", "5s")),
		ClientTimeout:     parseDur(getenv("CLIENT_TIMEOUT", "10s")),
		TaxRate:           parseFloat(getenv("SPLIT_TAX_RATE", "0.10")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// parseFloat converts a string to a float64 and exits on malformed input so
// a bad tax rate is caught at startup rather than on the first checkout.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("invalid float value: %q", s)
	}
	return f
}
