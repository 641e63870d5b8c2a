package dmexport

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// EntityState is the durable per-chat export state: the watermark and
// the fingerprints of every message already persisted.
type EntityState struct {
	ChatName      string   `json:"chatName"`
	DisplayName   string   `json:"displayName"`
	LastExport    string   `json:"lastExport"`
	MessageHashes []string `json:"messageHashes"`
	MessagesCount int      `json:"messagesCount"`
}

type State struct {
	Chats map[string]EntityState `json:"chats"`
}

func NewState() State {
	return State{Chats: map[string]EntityState{}}
}

// StateLoadError marks a state file that exists but cannot be parsed.
// Failing the pass fast here beats silently resetting export history
// and re-exporting everything.
type StateLoadError struct {
	Path string
	Err  error
}

func (e *StateLoadError) Error() string {
	return fmt.Sprintf("state file %s is unreadable: %v", e.Path, e.Err)
}

func (e *StateLoadError) Unwrap() error {
	return e.Err
}

// StateStore persists the process-wide export state as a single json
// file. Load happens once at pass start, Save once at pass end, there
// is no partial flushing in between.
type StateStore struct {
	Path string
}

func NewStateStore(path string) StateStore {
	return StateStore{Path: path}
}

func (s StateStore) Load() (State, error) {
	contents, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), &StateLoadError{Path: s.Path, Err: err}
	}

	var state State
	err = json.Unmarshal(contents, &state)
	if err != nil {
		return NewState(), &StateLoadError{Path: s.Path, Err: err}
	}
	if state.Chats == nil {
		state.Chats = map[string]EntityState{}
	}
	return state, nil
}

func (s StateStore) Save(state State) error {
	contents, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, contents, 0644)
}

// keys must be filesystem-safe: anything outside latin, cyrillic,
// digits and underscore becomes an underscore. Applied identically to
// state map keys and snapshot filenames.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9а-яА-Я_]`)

func SanitizeKey(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}
