package cmd

import (
	"fmt"
	"os"

	"dmexport-backend/lib/configutil"
	"dmexport-backend/lib/serviceutil"
	"dmexport-backend/services/dmexport"
	"dmexport-backend/services/dmexport/passlog"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "dmexport",
	Short: "dmexport runs incremental DM export passes and inspects their results.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging/instrumentation.")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json5", "Path to the config file.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	// MessagesURL overrides the default messages page location.
	MessagesURL string `json:"messages_url"`
	// SnapshotFile points at a saved DOM capture to export from
	// instead of fetching the messages page.
	SnapshotFile string `json:"snapshot_file"`
	OutputDir    string `json:"output_dir"`
	StateFile    string `json:"state_file"`
	Passlog      *passlog.Config      `json:"passlog"`
	Smtp         *dmexport.SmtpConfig `json:"smtp"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](configFile)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "exported_messages"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "export_state.json"
	}
	return cfg
}

func openPasslog(cfg Config) (passlog.Store, bool) {
	if cfg.Passlog == nil {
		return passlog.Store{}, false
	}
	db, err := cfg.Passlog.OpenDB()
	if err != nil {
		serviceutil.Fatal("open passlog database", err)
	}
	store, err := passlog.NewStore(db)
	if err != nil {
		serviceutil.Fatal("init passlog schema", err)
	}
	return store, true
}
