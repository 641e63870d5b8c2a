package dmexport

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// SendSummaryEmail mails the pass summary to the configured
// recipients. Optional, the exporter itself never depends on it.
func SendSummaryEmail(ctx context.Context, cfg SmtpConfig, summary Summary) error {
	_, span := tracer.Start(ctx, "SendSummaryEmail")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("DM Export <%s>", cfg.EmailAddress)
	mail.To = cfg.Recipients
	mail.Subject = fmt.Sprintf("DM export: %d new messages", summary.NewMessagesTotal)
	mail.Text = []byte(formatSummaryBody(summary))

	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	err := mail.Send(addr, smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send summary email")
		return err
	}
	return nil
}

func formatSummaryBody(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Export pass finished at %s\n\n", summary.ExportDate)
	fmt.Fprintf(&b, "Chats seen:          %d\n", summary.TotalChats)
	fmt.Fprintf(&b, "Skipped (unread):    %d\n", summary.SkippedUnreadChats)
	fmt.Fprintf(&b, "Chats with new msgs: %d\n", summary.ChatsWithNewMessages)
	fmt.Fprintf(&b, "New messages:        %d\n", summary.NewMessagesTotal)

	if len(summary.Chats) > 0 {
		b.WriteString("\nPer chat:\n")
		for _, entry := range summary.Chats {
			fmt.Fprintf(
				&b, "  %s: %d new (%d total) -> %s\n",
				entry.ChatName, entry.NewMessages, entry.TotalMessages, entry.FileName,
			)
		}
	}
	return b.String()
}
