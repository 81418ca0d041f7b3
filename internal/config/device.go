package config // device-side configuration, separate from the server Config

import (
	"log"     // log reports bad values and halts startup
	"strconv" // strconv parses the tenant id
	"time"    // time for the polling knobs
)

// DeviceConfig holds everything a staff terminal agent needs to run against
// a comandero server.  It deliberately shares nothing with the server Config:
// a device has no database and its required variables differ.
type DeviceConfig struct {
	Env               string        // application environment (e.g. "dev", "prod")
	APIURL            string        // base URL of the comandero server
	Token             string        // staff JWT carrying the business_id claim
	TenantID          int64         // business id, must match the token claim
	ReconcileInterval time.Duration // fixed polling interval of the reconcile loop
	ClientTimeout     time.Duration // per-request timeout for API calls
	AutoDispatch      bool          // send merged self-service items to the kitchen unattended
}

// LoadDeviceConfig reads the device configuration from the environment.
// API_URL, STAFF_TOKEN and BUSINESS_ID are required; the rest defaults.
func LoadDeviceConfig() DeviceConfig {
	raw := must("BUSINESS_ID")
	tenant, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tenant <= 0 {
		log.Fatalf("invalid BUSINESS_ID: %q", raw)
	}
	return DeviceConfig{
		Env:               getenv("APP_ENV", "dev"),
		APIURL:            must("API_URL"),
		Token:             must("STAFF_TOKEN"),
		TenantID:          tenant,
		ReconcileInterval: parseDur(getenv("RECONCILE_INTERVAL", "5s")),
		ClientTimeout:     parseDur(getenv("CLIENT_TIMEOUT", "10s")),
		AutoDispatch:      getenv("DEVICE_AUTO_DISPATCH", "false") == "true",
	}
}
