package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"

	"dmexport-backend/lib/configutil"
	"dmexport-backend/lib/serviceutil"
	"dmexport-backend/lib/telemetry"
	"dmexport-backend/services/relay"
)

type Config struct {
	Port  int          `json:"port"`
	Relay relay.Config `json:"relay"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	telemetry.InitSlog(*verbose)
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "relay")
	if err == nil {
		defer tel.Shutdown(context.Background())
		if *verbose {
			telemetry.InstrumentPerfStats(ctx)
		}
	} else {
		slog.Warn("telemetry disabled", "err", err)
	}

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	service := relay.NewService(
		relay.NewNotionStore(cfg.Relay.Notion),
		relay.NewTelegramReplier(cfg.Relay.Telegram),
		cfg.Relay.StatusFrom,
		cfg.Relay.StatusTo,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", service.HandleWebhook)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
