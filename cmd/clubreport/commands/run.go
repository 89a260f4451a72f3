package commands

import (
	"context"
	"os"
	"time"

	"clubreport-backend/lib/progresstore"
	"clubreport-backend/lib/scrapers/basecamp"
	"clubreport-backend/lib/scrapers/basecamp/catalog"
	"clubreport-backend/lib/scrapers/basecamp/login"
	"clubreport-backend/lib/serviceutil"
	"clubreport-backend/lib/sqliteutil"
	"clubreport-backend/lib/telemetry"
	"clubreport-backend/services/auth"
	"clubreport-backend/services/clubdata"
	"clubreport-backend/services/report"
	"clubreport-backend/services/session"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	forceAuth  bool
	formats    []string
	reportsDir string
)

// flags win over whatever the config files say
func applyReportOverrides(config *Config, formats []string, outputDir string) {
	if len(formats) > 0 {
		config.Reports.Formats = formats
	}
	if outputDir != "" {
		config.Reports.OutputDir = outputDir
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect the club's data and render the enabled report formats.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		applyReportOverrides(&config, formats, reportsDir)

		t, err := telemetry.SetupFromEnv(ctx, "clubreport")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		sessionDb, err := sqliteutil.OpenDB(session.Schema, config.SessionDb)
		if err != nil {
			serviceutil.Fatal("failed to open session database", err)
		}
		defer sessionDb.Close()

		progressDb, err := sqliteutil.OpenDB(progresstore.Schema, config.ProgressDb)
		if err != nil {
			serviceutil.Fatal("failed to open progress database", err)
		}
		defer progressDb.Close()

		err = login.EnsureBrowsers()
		if err != nil {
			serviceutil.Fatal("failed to install browser", err)
		}

		headless := true
		if config.Platform.Headless != nil {
			headless = *config.Platform.Headless
		}
		authenticator := login.NewAuthenticator(login.Options{
			LoginUrl:     config.Platform.LoginUrl,
			DashboardUrl: config.Platform.DashboardUrl,
			BaseUrl:      config.Platform.BaseUrl,
			Headless:     headless,
		})
		manager := auth.NewManager(
			session.NewStore(sessionDb),
			authenticator,
			login.Credentials{
				Email:    config.Credentials.Email,
				Password: config.Credentials.Password,
				ClubName: config.Credentials.ClubName,
			},
		)

		client := basecamp.NewClient(basecamp.ClientOptions{
			BaseUrl:           config.Platform.BaseUrl,
			MaxAttempts:       config.Platform.MaxAttempts,
			BackoffInitial:    time.Duration(config.Platform.BackoffInitialMs) * time.Millisecond,
			RequestsPerSecond: config.Platform.RequestsPerSecond,
		}, manager)

		var catalogClient *catalog.Client
		if config.Platform.CatalogUrl != "" {
			catalogClient = catalog.NewClient(config.Platform.CatalogUrl)
		}
		progressStore := progresstore.NewStore(progressDb)

		collector := clubdata.NewService(client, catalogClient, &progressStore, clubdata.Options{
			Concurrency: config.Platform.Concurrency,
		})

		if forceAuth {
			err = manager.Invalidate(ctx)
			if err != nil {
				serviceutil.Fatal("failed to discard stored session", err)
			}
		}

		sess, err := manager.GetSession(ctx)
		if err != nil {
			serviceutil.Fatal("failed to authenticate", err)
		}

		club, summary, err := collector.Aggregate(ctx, sess.Token.ClubID, config.Credentials.ClubName)
		if err != nil {
			serviceutil.Fatal("failed to collect club data", err)
		}

		reports := report.NewService(config.Reports.OutputDir, renderers()...)
		if config.Reports.Smtp != nil {
			reports = reports.WithMailer(report.NewMailer(*config.Reports.Smtp))
		}
		outputs, err := reports.Generate(ctx, club, summary)
		if err != nil && len(outputs) == 0 {
			serviceutil.Fatal("failed to generate reports", err)
		}

		out := table.NewWriter()
		out.SetStyle(table.StyleRounded)
		out.SetOutputMirror(os.Stdout)
		out.AppendHeader(table.Row{"Format", "File"})
		for _, output := range outputs {
			out.AppendRow(table.Row{output.Renderer, output.Path})
		}
		out.Render()
	},
}

func renderers() []report.Renderer {
	available := map[string]report.Renderer{
		"markdown":  report.MarkdownRenderer{},
		"excel":     report.ExcelRenderer{},
		"pdf":       report.PdfRenderer{},
		"dashboard": report.DashboardRenderer{},
	}

	var enabled []report.Renderer
	for _, format := range config.Reports.Formats {
		renderer, ok := available[format]
		if ok {
			enabled = append(enabled, renderer)
		}
	}
	return enabled
}

func init() {
	runCmd.Flags().BoolVar(&forceAuth, "force-auth", false, "discard the stored session and log in again")
	runCmd.Flags().StringSliceVar(&formats, "formats", nil, "report formats to render, overrides the config")
	runCmd.Flags().StringVar(&reportsDir, "reports-dir", "", "directory to write reports into, overrides the config")
	rootCmd.AddCommand(runCmd)
}
