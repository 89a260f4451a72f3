package commands

import (
	"context"
	"fmt"
	"os"

	"clubreport-backend/lib/configutil"
	"clubreport-backend/lib/telemetry"
	"clubreport-backend/services/report"

	"github.com/spf13/cobra"
)

type CredentialsConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClubName string `json:"club_name"`
}

type PlatformConfig struct {
	BaseUrl      string `json:"base_url"`
	LoginUrl     string `json:"login_url"`
	DashboardUrl string `json:"dashboard_url"`
	CatalogUrl   string `json:"catalog_url"`
	Headless     *bool  `json:"headless"`

	MaxAttempts       int     `json:"max_attempts"`
	BackoffInitialMs  int     `json:"backoff_initial_ms"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Concurrency       int     `json:"concurrency"`
}

type ReportsConfig struct {
	OutputDir string             `json:"output_dir"`
	Formats   []string           `json:"formats"`
	Smtp      *report.SmtpConfig `json:"smtp"`
}

type Config struct {
	Credentials CredentialsConfig `json:"credentials"`
	Platform    PlatformConfig    `json:"platform"`
	SessionDb   string            `json:"session_db"`
	ProgressDb  string            `json:"progress_db"`
	Reports     ReportsConfig     `json:"reports"`
}

var (
	config  Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clubreport",
	Short: "clubreport collects club rosters and pathway progress and renders progress reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		config, err = configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			return fmt.Errorf("read config.json5: %w", err)
		}
		applyDefaults(&config)
		return nil
	},
}

func applyDefaults(config *Config) {
	if config.Platform.BaseUrl == "" {
		config.Platform.BaseUrl = "https://basecamp.toastmasters.org"
	}
	if config.Platform.LoginUrl == "" {
		config.Platform.LoginUrl = config.Platform.BaseUrl + "/login"
	}
	if config.Platform.DashboardUrl == "" {
		config.Platform.DashboardUrl = config.Platform.BaseUrl + "/dashboard/"
	}
	if config.SessionDb == "" {
		config.SessionDb = "data/session.db"
	}
	if config.ProgressDb == "" {
		config.ProgressDb = "data/progress.db"
	}
	if config.Reports.OutputDir == "" {
		config.Reports.OutputDir = "reports"
	}
	if len(config.Reports.Formats) == 0 {
		config.Reports.Formats = []string{"markdown", "excel", "pdf", "dashboard"}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
