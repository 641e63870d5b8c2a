package cmd

import (
	"fmt"
	"os"

	"dmexport-backend/lib/serviceutil"
	"dmexport-backend/services/dmexport"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prints the most recent pass summary.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		summary, err := dmexport.ReadSummary(cfg.OutputDir)
		if err != nil {
			serviceutil.Fatal("read pass summary", err)
		}
		renderSummary(summary)
	},
}

func renderSummary(summary dmexport.Summary) {
	fmt.Printf(
		"Pass at %s: %d chats, %d skipped unread, %d with new messages, %d new messages.\n",
		summary.ExportDate,
		summary.TotalChats,
		summary.SkippedUnreadChats,
		summary.ChatsWithNewMessages,
		summary.NewMessagesTotal,
	)
	if len(summary.Chats) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Chat", "Display Name", "New", "Total", "File"})
	for _, entry := range summary.Chats {
		t.AppendRow(table.Row{
			entry.ChatName,
			entry.DisplayName,
			entry.NewMessages,
			entry.TotalMessages,
			entry.FileName,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
