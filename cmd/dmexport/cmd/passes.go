package cmd

import (
	"fmt"
	"os"

	"dmexport-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var passesLimit int

func init() {
	passesCmd.Flags().IntVar(&passesLimit, "limit", 20, "Maximum number of passes to list.")
	rootCmd.AddCommand(passesCmd)
}

var passesCmd = &cobra.Command{
	Use:   "passes [pass-id]",
	Short: "Lists recorded export passes, or the per-chat deltas of one pass.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, ok := openPasslog(cfg)
		if !ok {
			fmt.Fprintln(os.Stderr, "no passlog configured, add a passlog section to the config")
			os.Exit(1)
		}

		if len(args) == 1 {
			chats, err := store.Chats(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("read pass chats", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Chat", "Display Name", "New", "Total", "File"})
			for _, entry := range chats {
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
			return
		}

		passes, err := store.History(cmd.Context(), passesLimit)
		if err != nil {
			serviceutil.Fatal("read pass history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Date", "Chats", "Skipped Unread", "With New", "New Messages"})
		for _, p := range passes {
			t.AppendRow(table.Row{
				p.Id,
				p.Summary.ExportDate,
				p.Summary.TotalChats,
				p.Summary.SkippedUnreadChats,
				p.Summary.ChatsWithNewMessages,
				p.Summary.NewMessagesTotal,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
