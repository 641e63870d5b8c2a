package dmexport

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Message is one extracted text message. Timestamp is the capture
// instant in epoch milliseconds, not the message's own time.
type Message struct {
	Text      string `json:"text"`
	Time      string `json:"time"`
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"`
}

// Snapshot is the per-chat output file: always the full current view
// of the chat, not a delta. It is rewritten whenever any new message
// is found and left untouched otherwise.
type Snapshot struct {
	ChatName       string    `json:"chatName"`
	DisplayName    string    `json:"displayName"`
	LastExportDate string    `json:"lastExportDate"`
	MessagesCount  int       `json:"messagesCount"`
	Messages       []Message `json:"messages"`
}

type SummaryEntry struct {
	ChatName      string `json:"chatName"`
	DisplayName   string `json:"displayName"`
	FileName      string `json:"fileName"`
	NewMessages   int    `json:"newMessages"`
	TotalMessages int    `json:"totalMessages"`
}

// Summary aggregates one export pass, written once per pass alongside
// the snapshots.
type Summary struct {
	ExportDate           string         `json:"exportDate"`
	TotalChats           int            `json:"totalChats"`
	SkippedUnreadChats   int            `json:"skippedUnreadChats"`
	ChatsWithNewMessages int            `json:"chatsWithNewMessages"`
	NewMessagesTotal     int            `json:"newMessagesTotal"`
	Chats                []SummaryEntry `json:"chats"`
}

const summaryFileName = "export_summary.json"

func writeJSONFile(path string, v any) error {
	contents, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}

// WriteSnapshot persists a chat snapshot under `<key>.json` in the
// output directory and returns the file name. A later chat whose name
// sanitizes to the same key overwrites an earlier one's file, which is
// accepted behavior.
func WriteSnapshot(dir, key string, snap Snapshot) (string, error) {
	fileName := key + ".json"
	err := writeJSONFile(filepath.Join(dir, fileName), snap)
	if err != nil {
		return "", err
	}
	return fileName, nil
}

func WriteSummary(dir string, summary Summary) error {
	return writeJSONFile(filepath.Join(dir, summaryFileName), summary)
}

// ReadSummary loads the most recently written pass summary from the
// output directory.
func ReadSummary(dir string) (Summary, error) {
	contents, err := os.ReadFile(filepath.Join(dir, summaryFileName))
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = json.Unmarshal(contents, &summary)
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
