// pieza-web serves the furniture search page and its JSON session API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pieza-web/internal/config"
	"pieza-web/internal/logging"
	"pieza-web/internal/searchapi"
	"pieza-web/internal/searchlog"
)

const shutdownTimeout = 15 * time.Second

var cfgFile string

func main() {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:   "pieza-web",
		Short: "Furniture search front end",
		Long: `pieza-web serves the search page: describe a piece of furniture, then refine
the results in plain words.

Without --search-url the built-in demo catalog answers searches.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("search-url", "", "Base URL of the search API (empty: demo catalog)")
	flags.String("data-dir", "./data", "Directory for search and rejection logs")
	_ = v.BindPFlag("http.addr", flags.Lookup("addr"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("search.url", flags.Lookup("search-url"))
	_ = v.BindPFlag("data.dir", flags.Lookup("data-dir"))

	rootCmd.AddCommand(checkCmd(v))
	rootCmd.AddCommand(statsCmd(v))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("pieza-web listening", "addr", cfg.HTTPAddr, "demo", cfg.DemoMode(), "redis", cfg.RedisAddr != "", "kafka", cfg.KafkaBroker != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func checkCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the search API health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if cfg.DemoMode() {
				fmt.Fprintln(cmd.OutOrStdout(), "demo catalog: ok")
				return nil
			}
			client := searchapi.NewClient(cfg.SearchURL, cfg.SearchTimeout, nil)
			if err := client.HealthCheck(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.SearchURL)
			return nil
		},
	}
}

func statsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the local search log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			stats, err := searchlog.NewQueryService(cfg.DataDir).GetStats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
