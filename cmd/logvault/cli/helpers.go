package cli

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/logvaultdb/logvault/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag,
// LOGVAULT_DATA_DIR env var, or ~/.logvault as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("LOGVAULT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.logvault"
}

// openStore opens the configured storage backend: postgres when
// storage.driver says so, the file-backed SQLite database otherwise.
func openStore() (*store.Store, error) {
	driver := viper.GetString("storage.driver")
	if driver == "" {
		driver = "sqlite"
	}
	return store.Open(driver, viper.GetString("storage.dsn"), resolveDataDir())
}

// jwtSecret returns the configured admin JWT secret with a development
// fallback.
func jwtSecret() string {
	if s := viper.GetString("auth.jwt_secret"); s != "" {
		return s
	}
	return "logvault-dev-secret-change-me"
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
