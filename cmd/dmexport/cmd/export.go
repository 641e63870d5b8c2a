package cmd

import (
	"context"
	"log/slog"
	"os"

	"dmexport-backend/lib/pagesource"
	"dmexport-backend/lib/pagesource/static"
	"dmexport-backend/lib/serviceutil"
	"dmexport-backend/lib/telemetry"
	"dmexport-backend/services/dmexport"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Runs one incremental export pass and writes snapshots, state and the pass summary.",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		ctx := serviceutil.SignalContext()

		tel, err := telemetry.SetupFromEnv(ctx, "dmexport")
		if err == nil {
			defer tel.Shutdown(context.Background())
		} else if verbose {
			slog.Warn("telemetry disabled", "err", err)
		}

		cfg := readConfig()

		var page pagesource.Page
		if cfg.SnapshotFile != "" {
			contents, err := os.ReadFile(cfg.SnapshotFile)
			if err != nil {
				serviceutil.Fatal("read dom snapshot", err)
			}
			page, err = static.NewPageFromHTML(string(contents))
			if err != nil {
				serviceutil.Fatal("parse dom snapshot", err)
			}
		} else {
			page = static.NewPage()
		}

		exporter := dmexport.NewExporter(
			page,
			dmexport.NewStateStore(cfg.StateFile),
			dmexport.Options{
				MessagesURL: cfg.MessagesURL,
				OutputDir:   cfg.OutputDir,
			},
		)
		summary, err := exporter.Run(ctx)
		if err != nil {
			serviceutil.Fatal("export pass", err)
		}

		if store, ok := openPasslog(cfg); ok {
			id, err := store.Record(context.Background(), summary)
			if err != nil {
				slog.Error("failed to record pass history", "err", err)
			} else {
				slog.Info("recorded pass history", "pass_id", id)
			}
		}

		if cfg.Smtp != nil {
			err := dmexport.SendSummaryEmail(context.Background(), *cfg.Smtp, summary)
			if err != nil {
				slog.Error("failed to send summary email", "err", err)
			}
		}

		renderSummary(summary)
	},
}
