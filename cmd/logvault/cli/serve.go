package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/logvaultdb/logvault/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LogVault API server",
		Long:  "Start the HTTP server that ingests and serves schema-governed log records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	logLevel := slog.LevelInfo
	if dev || viper.GetString("logging.level") == "debug" {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if viper.GetString("logging.format") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("store initialized", "dialect", st.Dialect())

	shutdownTimeout := 30 * time.Second
	if raw := viper.GetString("server.shutdown_timeout"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			shutdownTimeout = d
		}
	}

	corsOrigins := viper.GetStringSlice("server.cors.origins")
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	ipRPM := viper.GetInt("rate_limit.ip_requests_per_minute")
	if ipRPM == 0 {
		ipRPM = 300
	}

	srvCfg := server.Config{
		Host:                host,
		Port:                port,
		ShutdownTimeout:     shutdownTimeout,
		CORSOrigins:         corsOrigins,
		JWTSecret:           jwtSecret(),
		Version:             versionString(),
		IPRequestsPerMinute: ipRPM,
	}

	srv := server.New(srvCfg, st, logger)

	fmt.Printf("→ LogVault %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
