package models

// -----------------------------------------------------------------------------
// WebSocket view session messages
// -----------------------------------------------------------------------------

// Push message types
const (
	PushSession       = "session"
	PushTable         = "table"
	PushSearchResults = "search_results"
	PushTheme         = "theme"
	PushRefresh       = "refresh"
	PushError         = "error"
)

// MPushMessage is sent by the server to an open view.
type MPushMessage struct {
	Type    string      `json:"type"`
	Session string      `json:"session,omitempty"`
	Token   uint64      `json:"token,omitempty"` // debounce token of a search push
	Theme   string      `json:"theme,omitempty"`
	Table   *MTableView `json:"table,omitempty"`
	Error   *MErrorView `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------
// ViewCommand for client messages
// -----------------------------------------------------------------------------

type MViewCommand struct {
	Command   string `json:"command"` // "search", "sort", "page", "refresh" or "theme"
	Query     string `json:"query"`
	Key       string `json:"key"`
	Direction string `json:"dir"`
	Page      int    `json:"page"`
	Theme     string `json:"theme"`
}
