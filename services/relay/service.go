// Package relay turns inbound chat-bot messages into guarded status
// transitions on an external record store. One message carries one
// profile reference, the service looks the account up and moves its
// status from the configured "from" value to the configured "to" value,
// replying with the outcome either way.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/relay")

type Config struct {
	Notion   NotionConfig   `json:"notion"`
	Telegram TelegramConfig `json:"telegram"`
	// StatusFrom is the only status a record may transition out of.
	StatusFrom string `json:"status_from"`
	// StatusTo is the status records transition into, and the status
	// newly created records start with.
	StatusTo string `json:"status_to"`
}

type Service struct {
	store   RecordStore
	replier Replier
	from    string
	to      string
}

func NewService(store RecordStore, replier Replier, from, to string) Service {
	return Service{
		store:   store,
		replier: replier,
		from:    from,
		to:      to,
	}
}

type telegramUpdate struct {
	Message struct {
		Chat struct {
			Id int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// HandleWebhook accepts one bot update. It always answers 200: the
// sender retries non-200 responses, and a retried transition is at best
// a duplicate reply and at worst a double create.
func (s Service) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer fmt.Fprint(w, "OK")

	if r.Method != http.MethodPost {
		return
	}

	var update telegramUpdate
	err := json.NewDecoder(r.Body).Decode(&update)
	if err != nil || update.Message.Text == "" {
		return
	}

	ctx, span := tracer.Start(r.Context(), "HandleWebhook")
	defer span.End()

	chatId := update.Message.Chat.Id
	reply := s.process(ctx, update.Message.Text)

	err = s.replier.Reply(ctx, chatId, reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send reply")
		slog.Error("failed to send reply", "chat_id", chatId, "err", err)
	}
}

// process resolves one message to its reply text. The status guard has
// four outcomes: no record exists (create), record sits at the expected
// source status (transition), record already sits at the target status
// (idempotent no-op), record sits anywhere else (reject).
func (s Service) process(ctx context.Context, text string) string {
	ctx, span := tracer.Start(ctx, "process")
	defer span.End()

	handle, ok := ExtractHandle(text)
	if !ok {
		return "Could not find an account handle in that message.\n\nSend a profile link like tiktok.com/@username, or just the handle itself."
	}
	span.SetAttributes(attribute.String("handle", handle))

	record, found, err := s.store.Find(ctx, handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record lookup failed")
		slog.Error("record lookup failed", "handle", handle, "err", err)
		return fmt.Sprintf("Something went wrong looking up %q, try again in a minute.", handle)
	}

	if !found {
		return s.handleAbsent(ctx, handle)
	}

	switch record.Status {
	case s.from:
		updated, err := s.store.SetStatus(ctx, record.Id, s.to)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "status update failed")
			slog.Error("status update failed", "handle", handle, "err", err)
			return fmt.Sprintf("Found %q but the status update failed, try again in a minute.", handle)
		}
		slog.Info("transitioned record", "handle", handle, "from", s.from, "to", s.to)
		return fmt.Sprintf("Status of %q updated to %q.\n\nRecord: %s", handle, s.to, updated.Url)
	case s.to:
		return fmt.Sprintf("%q is already %q, nothing to do.\n\nRecord: %s", handle, s.to, record.Url)
	default:
		slog.Warn(
			"rejected status transition",
			"handle", handle, "status", record.Status, "expected", s.from,
		)
		return fmt.Sprintf(
			"Cannot update %q: its status is %q but only %q records can move to %q. Nothing was changed.",
			handle, record.Status, s.from, s.to,
		)
	}
}

// handleAbsent decides between a typo and a genuinely new account. A
// near-match against the known handles reads as a typo, so nothing is
// created and the match is offered back instead.
func (s Service) handleAbsent(ctx context.Context, handle string) string {
	known, err := s.store.Handles(ctx)
	if err != nil {
		slog.Warn("could not list known handles for suggestions", "err", err)
	}
	if suggestion, ok := Suggest(handle, known); ok {
		return fmt.Sprintf("No record for %q. Did you mean %q? Nothing was created.", handle, suggestion)
	}

	record, err := s.store.Create(ctx, handle, s.to)
	if err != nil {
		slog.Error("record creation failed", "handle", handle, "err", err)
		return fmt.Sprintf("No record for %q and creating one failed, try again in a minute.", handle)
	}
	slog.Info("created record", "handle", handle, "status", s.to)
	return fmt.Sprintf("No record for %q existed, created one with status %q.\n\nRecord: %s", handle, s.to, record.Url)
}
