package dmexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"dmexport-backend/lib/convergence"
	"dmexport-backend/lib/htmlutil"
	"dmexport-backend/lib/pagesource"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dmexport")

// ErrListNotFound aborts a pass whose chat list never rendered, either
// because the session expired or the page structure changed. Prior
// state is left untouched.
var ErrListNotFound = fmt.Errorf("chat list did not render within the wait timeout")

const DefaultMessagesURL = "https://www.tiktok.com/messages?scene=business"

const (
	selChatListItem = `[data-e2e="chat-list-item"]`
	selHeaderHandle = `#main-content-messages > div:nth-child(2) > div:nth-child(1) > div > a`
)

var (
	chatListContainers = pagesource.Fallback{
		`[class*="ChatList"]`,
		`[class*="conversation-list"]`,
		`[data-e2e="chat-list"]`,
		`div[class*="list-container"]`,
	}
	historyContainers = pagesource.Fallback{
		`[class*="ChatBox"]`,
		`[class*="MessageList"]`,
		`[class*="message-list"]`,
		`[class*="message-container"]`,
		`div[class*="DM"]`,
	}
	nicknameLocators = pagesource.Fallback{
		`[class*="InfoNickname"]`,
		`[class*="PInfoNickname"]`,
		`[data-e2e*="username"]`,
		`[class*="username"]`,
	}
	unreadLocators = pagesource.Fallback{
		`[class*="SpanNewMessage"]`,
		`[class*="NewMessage"]`,
	}
	activityTimeLocators = pagesource.Fallback{
		`[class*="SpanInfoTime"]`,
	}
)

type Options struct {
	// MessagesURL defaults to DefaultMessagesURL.
	MessagesURL string
	// OutputDir holds per-chat snapshots and the pass summary,
	// defaults to "exported_messages".
	OutputDir string
	// Now defaults to time.Now, tests pin it.
	Now func() time.Time
	// Sleep defaults to a context-aware real sleep. Delays pace the
	// remote system and are not correctness-relevant, tests replace
	// this to run instantly.
	Sleep func(ctx context.Context, d time.Duration) error
	// ListWait bounds the wait for the first chat list item,
	// defaults to 60s.
	ListWait time.Duration
}

// Exporter drives one incremental export pass over a rendered
// messages page.
type Exporter struct {
	page  pagesource.Page
	store StateStore
	opts  Options
}

func NewExporter(page pagesource.Page, store StateStore, opts Options) *Exporter {
	if opts.MessagesURL == "" {
		opts.MessagesURL = DefaultMessagesURL
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "exported_messages"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if opts.ListWait <= 0 {
		opts.ListWait = time.Minute
	}
	return &Exporter{
		page:  page,
		store: store,
		opts:  opts,
	}
}

// pause waits a randomized duration inside [min,max] to avoid a
// mechanical request cadence.
func (e *Exporter) pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		jitter, err := random.IntRange(0, int(max-min))
		if err == nil {
			d += time.Duration(jitter)
		}
	}
	return e.opts.Sleep(ctx, d)
}

type entityInfo struct {
	displayName string
	activityAt  string
	unread      bool
	unreadCount string
}

func (e *Exporter) readEntity(item pagesource.Element) entityInfo {
	info := entityInfo{}

	nameEl, ok := nicknameLocators.Query(item)
	if ok {
		info.displayName = htmlutil.CleanText(nameEl.Text())
	}
	if info.displayName == "" {
		info.displayName = fmt.Sprintf("Chat_%d", e.opts.Now().UnixMilli())
	}

	timeEl, ok := activityTimeLocators.Query(item)
	if ok {
		info.activityAt = strings.TrimSpace(timeEl.Text())
	}

	unreadEl, ok := unreadLocators.Query(item)
	if ok {
		info.unread = true
		info.unreadCount = strings.TrimSpace(unreadEl.Text())
	}
	return info
}

// hasNewActivity compares a chat's last-activity label against the
// stored watermark. Unparseable labels count as new activity: a wasted
// open beats a missed update.
func (e *Exporter) hasNewActivity(info entityInfo, prior EntityState) bool {
	lastExport, err := time.Parse(time.RFC3339, prior.LastExport)
	if err != nil {
		return true
	}
	activity, err := ParseTimeLabel(info.activityAt, e.opts.Now())
	if err != nil {
		slog.Debug(
			"could not parse activity label, opening chat",
			"chat", info.displayName, "label", info.activityAt, "err", err,
		)
		return true
	}
	return activity.After(lastExport)
}

// resolveHandle reads the canonical account handle from the open
// chat's detail header. Handles survive display-name changes, so they
// take priority as the chat's identity when present.
func (e *Exporter) resolveHandle() string {
	link, ok := e.page.Query(selHeaderHandle)
	if !ok {
		return ""
	}
	href, ok := link.Attr("href")
	if !ok || !strings.HasPrefix(href, "/@") {
		return ""
	}
	return strings.TrimPrefix(href, "/@")
}

func (e *Exporter) convergeList(ctx context.Context) (int64, error) {
	return convergence.Converge(ctx, convergence.Options{
		Probe: func(ctx context.Context) (int64, error) {
			return int64(len(e.page.QueryAll(selChatListItem))), nil
		},
		Advance: func(ctx context.Context) error {
			selector, ok := chatListContainers.First(e.page)
			if ok {
				e.page.ScrollToBottom(selector)
			}
			return nil
		},
		Stable:   3,
		MinDelay: time.Millisecond * 1000,
		MaxDelay: time.Millisecond * 1500,
		Sleep:    e.opts.Sleep,
	})
}

func (e *Exporter) convergeHistory(ctx context.Context) error {
	selector, ok := historyContainers.First(e.page)
	if !ok {
		slog.Debug("no history container found, extracting what is visible")
		return nil
	}
	_, err := convergence.Converge(ctx, convergence.Options{
		Probe: func(ctx context.Context) (int64, error) {
			extent, _ := e.page.ScrollExtent(selector)
			return extent, nil
		},
		Advance: func(ctx context.Context) error {
			// older history loads by scrolling backwards
			e.page.ScrollToTop(selector)
			return nil
		},
		Stable:   2,
		MinDelay: time.Millisecond * 800,
		MaxDelay: time.Millisecond * 1200,
		Sleep:    e.opts.Sleep,
	})
	return err
}

// Run executes one full export pass: converge the chat list, walk it
// in rendered order, extract and diff each eligible chat, then flush
// state and the pass summary exactly once.
//
// Per-chat failures degrade or skip, they never abort the pass. Only a
// missing chat list, an unreadable state file, or a failed state flush
// are pass-fatal.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	state, err := e.store.Load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load state")
		return Summary{}, err
	}

	err = e.page.Navigate(ctx, e.opts.MessagesURL, e.opts.ListWait)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open messages page")
		return Summary{}, err
	}
	if err := e.pause(ctx, time.Second*3, time.Second*4); err != nil {
		return Summary{}, err
	}

	err = e.page.WaitFor(ctx, selChatListItem, e.opts.ListWait)
	if err != nil {
		e.logListDiagnostics()
		span.SetStatus(codes.Error, ErrListNotFound.Error())
		return Summary{}, ErrListNotFound
	}
	if err := e.pause(ctx, time.Millisecond*500, time.Millisecond*800); err != nil {
		return Summary{}, err
	}

	total64, err := e.convergeList(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat list never converged")
		return Summary{}, err
	}
	total := int(total64)
	slog.Info("chat list loaded", "chats", total)
	if total == 0 {
		slog.Warn("no chats found after convergence, nothing to export")
		return Summary{}, nil
	}

	err = os.MkdirAll(e.opts.OutputDir, 0755)
	if err != nil {
		return Summary{}, err
	}

	entries := []SummaryEntry{}
	newMessagesTotal := 0
	skippedUnread := 0
	dirty := false

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			slog.Warn("pass cancelled mid-loop", "processed", i, "total", total)
			break
		}
		slog.Info("processing chat", "index", i+1, "total", total)

		// re-query the live list each step, entries shift as the
		// list mutates under us
		items := e.page.QueryAll(selChatListItem)
		if i >= len(items) {
			slog.Warn("chat unavailable at expected index, skipping", "index", i)
			continue
		}
		item := items[i]

		info := e.readEntity(item)
		key := SanitizeKey(info.displayName)
		slog.Debug("chat info", "name", info.displayName, "activity", info.activityAt)

		if info.unread {
			// opening an unread chat would clear the unread badge
			// before a human has seen it
			slog.Info(
				"skipping unread chat to preserve its indicator",
				"chat", info.displayName, "unread", info.unreadCount,
			)
			skippedUnread++
			continue
		}

		if prior, ok := state.Chats[key]; ok && info.activityAt != "" {
			if !e.hasNewActivity(info, prior) {
				slog.Info(
					"skipping chat, no activity since last export",
					"chat", info.displayName, "activity", info.activityAt,
				)
				continue
			}
		}

		err := e.page.Click(ctx, item)
		if err != nil {
			slog.Warn("failed to open chat, skipping", "chat", info.displayName, "err", err)
			continue
		}
		if err := e.pause(ctx, time.Second, time.Millisecond*1500); err != nil {
			break
		}

		finalName := info.displayName
		if handle := e.resolveHandle(); handle != "" {
			finalName = handle
			slog.Debug("resolved canonical handle", "handle", handle)
		}
		finalKey := SanitizeKey(finalName)

		err = e.convergeHistory(ctx)
		if err != nil {
			slog.Warn("history never converged, extracting partial view", "chat", finalName, "err", err)
		}

		messages := ExtractMessages(ctx, e.page, e.opts.Now)
		seen := NewFingerprintSet(state.Chats[finalKey].MessageHashes)

		newCount := 0
		for _, msg := range messages {
			if seen.IsNew(msg) {
				newCount++
			}
		}

		if newCount == 0 {
			slog.Info("no new messages", "chat", finalName)
		} else {
			exportedAt := e.opts.Now().UTC().Format(time.RFC3339)
			hashes := make([]string, len(messages))
			for j, msg := range messages {
				hashes[j] = Fingerprint(msg)
			}

			fileName, err := WriteSnapshot(e.opts.OutputDir, finalKey, Snapshot{
				ChatName:       finalName,
				DisplayName:    info.displayName,
				LastExportDate: exportedAt,
				MessagesCount:  len(messages),
				Messages:       messages,
			})
			if err != nil {
				// state is only advanced once the snapshot is on
				// disk, so the messages count as new again next pass
				slog.Error("failed to write snapshot", "chat", finalName, "err", err)
				continue
			}

			state.Chats[finalKey] = EntityState{
				ChatName:      finalName,
				DisplayName:   info.displayName,
				LastExport:    exportedAt,
				MessageHashes: hashes,
				MessagesCount: len(messages),
			}
			dirty = true

			entries = append(entries, SummaryEntry{
				ChatName:      finalName,
				DisplayName:   info.displayName,
				FileName:      fileName,
				NewMessages:   newCount,
				TotalMessages: len(messages),
			})
			newMessagesTotal += newCount
			slog.Info("exported chat", "chat", finalName, "new", newCount, "total", len(messages))
		}

		if err := e.pause(ctx, time.Millisecond*500, time.Second); err != nil {
			break
		}
	}

	if ctx.Err() != nil && !dirty {
		// nothing accumulated, keep the prior state byte-identical
		return Summary{}, ctx.Err()
	}

	err = e.store.Save(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to flush state")
		return Summary{}, err
	}

	summary := Summary{
		ExportDate:           e.opts.Now().UTC().Format(time.RFC3339),
		TotalChats:           total,
		SkippedUnreadChats:   skippedUnread,
		ChatsWithNewMessages: len(entries),
		NewMessagesTotal:     newMessagesTotal,
		Chats:                entries,
	}
	err = WriteSummary(e.opts.OutputDir, summary)
	if err != nil {
		slog.Error("failed to write pass summary", "err", err)
	}

	span.SetAttributes(
		attribute.Int("chats", total),
		attribute.Int("new_messages", newMessagesTotal),
	)
	slog.Info(
		"export pass finished",
		"chats", total,
		"skipped_unread", skippedUnread,
		"chats_with_new", len(entries),
		"new_messages", newMessagesTotal,
	)
	return summary, ctx.Err()
}

// logListDiagnostics records page context when the chat list never
// appears: usually an expired session redirected to login, sometimes a
// markup change.
func (e *Exporter) logListDiagnostics() {
	_, hasLogin := e.page.Query(`[class*="login"]`)
	_, hasForm := e.page.Query("form")
	slog.Error(
		"chat list never rendered",
		"url", e.page.URL(),
		"login_markers", hasLogin,
		"has_form", hasForm,
	)
}
