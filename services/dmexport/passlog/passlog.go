// Package passlog keeps a durable history of export passes. The
// summary json file is overwritten every pass, this table is not.
package passlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dmexport-backend/services/dmexport"

	"github.com/oklog/ulid/v2"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Config struct {
	// File is a local sqlite database path, used when Url is empty.
	File string `json:"file"`
	// Url points at a remote libsql database.
	Url string `json:"url"`
}

func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url != "" {
		return sql.Open("libsql", c.Url)
	}
	if c.File == "" {
		return nil, fmt.Errorf("passlog config has neither file nor url")
	}
	db, err := sql.Open("sqlite", c.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) (Store, error) {
	_, err := database.Exec(Schema)
	if err != nil {
		return Store{}, err
	}
	return Store{db: database}, nil
}

type Pass struct {
	Id      string
	Summary dmexport.Summary
}

// Record appends one pass summary under a fresh ulid and returns the
// pass id.
func (s Store) Record(ctx context.Context, summary dmexport.Summary) (string, error) {
	exportDate, err := time.Parse(time.RFC3339, summary.ExportDate)
	if err != nil {
		return "", fmt.Errorf("summary export date: %w", err)
	}
	id := ulid.Make().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO export_pass
		 (id, export_date, total_chats, skipped_unread_chats, chats_with_new_messages, new_messages_total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		exportDate.Unix(),
		summary.TotalChats,
		summary.SkippedUnreadChats,
		summary.ChatsWithNewMessages,
		summary.NewMessagesTotal,
	)
	if err != nil {
		return "", err
	}

	for _, entry := range summary.Chats {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO export_pass_chat
			 (pass_id, chat_name, display_name, file_name, new_messages, total_messages)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			entry.ChatName,
			entry.DisplayName,
			entry.FileName,
			entry.NewMessages,
			entry.TotalMessages,
		)
		if err != nil {
			return "", err
		}
	}

	return id, tx.Commit()
}

// History returns the most recent passes, newest first.
func (s Store) History(ctx context.Context, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, export_date, total_chats, skipped_unread_chats, chats_with_new_messages, new_messages_total
		 FROM export_pass
		 ORDER BY export_date DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var p Pass
		var exportDate int64
		err = rows.Scan(
			&p.Id,
			&exportDate,
			&p.Summary.TotalChats,
			&p.Summary.SkippedUnreadChats,
			&p.Summary.ChatsWithNewMessages,
			&p.Summary.NewMessagesTotal,
		)
		if err != nil {
			return nil, err
		}
		p.Summary.ExportDate = time.Unix(exportDate, 0).UTC().Format(time.RFC3339)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Chats returns the per-chat deltas recorded for one pass.
func (s Store) Chats(ctx context.Context, passId string) ([]dmexport.SummaryEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT chat_name, display_name, file_name, new_messages, total_messages
		 FROM export_pass_chat
		 WHERE pass_id = ?`,
		passId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []dmexport.SummaryEntry
	for rows.Next() {
		var entry dmexport.SummaryEntry
		err = rows.Scan(
			&entry.ChatName,
			&entry.DisplayName,
			&entry.FileName,
			&entry.NewMessages,
			&entry.TotalMessages,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
