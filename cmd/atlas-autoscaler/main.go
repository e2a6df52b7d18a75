package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/atlasclient"
	"github.com/atlasfleet/autoscaler/pkg/autoscaler"
	"github.com/atlasfleet/autoscaler/pkg/config"
	"github.com/atlasfleet/autoscaler/pkg/log"
	"github.com/atlasfleet/autoscaler/pkg/metrics"
	"github.com/atlasfleet/autoscaler/pkg/metricstore"
	"github.com/oklog/run"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "atlas-autoscaler",
	Short:   "Autoscaler daemon for MongoDB Atlas cluster fleets",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"atlas-autoscaler version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a .properties or .yaml configuration file")
	rootCmd.PersistentFlags().String("listen-addr", "127.0.0.1:9090", "Address for /status, /health, /metrics")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Log intended scale actions without committing them")

	rootCmd.AddCommand(runCmd)
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// misconfigError causes an exit code of 1; any other error is treated as
// unexpected and exits 2.
type misconfigError struct{ err error }

func (e misconfigError) Error() string { return e.err.Error() }
func (e misconfigError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var m misconfigError
	if ok := asMisconfig(err, &m); ok {
		return 1
	}
	return 2
}

func asMisconfig(err error, target *misconfigError) bool {
	for err != nil {
		if m, ok := err.(misconfigError); ok {
			*target = m
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the autoscaler control loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		listenAddr, _ := cmd.Flags().GetString("listen-addr")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if configPath == "" {
			return misconfigError{fmt.Errorf("--config is required")}
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return misconfigError{fmt.Errorf("load config: %w", err)}
		}
		if dryRun {
			cfg.DryRun = true
		}
		if err := cfg.Validate(); err != nil {
			return misconfigError{err}
		}

		client := atlasclient.New(atlasclient.Config{
			BaseURLV2:  "https://cloud.mongodb.com/api/atlas/v2",
			BaseURLV1:  "https://cloud.mongodb.com/api/atlas/v1.0",
			PublicKey:  cfg.APIPublicKey,
			PrivateKey: cfg.APIPrivateKey,
		})
		store := metricstore.New()
		sched := autoscaler.NewScheduler(client, store, cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(sched.Status())
		})
		httpServer := &http.Server{Addr: listenAddr, Handler: mux}

		var g run.Group

		g.Add(func() error {
			return sched.Run(ctx)
		}, func(error) {
			cancel()
		})

		g.Add(func() error {
			return sched.RunCleanup(ctx)
		}, func(error) {
			cancel()
		})

		g.Add(func() error {
			log.WithComponent("http").Info().Str("addr", listenAddr).Msg("status/health/metrics server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}, func(error) {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		})

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			<-sigCh
			return nil
		}, func(error) {
			signal.Stop(sigCh)
			close(sigCh)
		})

		return g.Run()
	},
}

func loadConfig(path string) (config.AutoscalerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.AutoscalerConfig{}, err
	}
	defer f.Close()

	var opts config.RawOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		opts, err = config.LoadYAML(f)
	default:
		opts, err = config.LoadProperties(f)
	}
	if err != nil {
		return config.AutoscalerConfig{}, err
	}
	return config.Build(opts), nil
}
