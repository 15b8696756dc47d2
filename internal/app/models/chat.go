package models

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// GroundingSource is a citation the provider attached after consulting search.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type ChatMessage struct {
	ID        string            `json:"id"`
	Role      ChatRole          `json:"role"`
	Text      string            `json:"text"`
	Timestamp int64             `json:"timestamp"`
	Sources   []GroundingSource `json:"sources,omitempty"`
}

// ChatTurn is one prior turn replayed to the provider as history.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatResponse is what the gateway hands back for a single chat turn.
type ChatResponse struct {
	Text      string            `json:"text"`
	ToolCalls []ToolCall        `json:"-"`
	Sources   []GroundingSource `json:"sources,omitempty"`
}

const ToolUpdateDayActivities = "update_day_activities"

// ToolCall is a closed set of model issued function calls. Adding a tool
// means adding a variant here and a case in the dispatcher.
type ToolCall interface {
	ToolName() string
	isToolCall()
}

// UpdateDayActivities replaces the activity list of one day. A nil Theme
// keeps the day's current theme.
type UpdateDayActivities struct {
	Day        int        `json:"day"`
	Activities []Activity `json:"activities"`
	Theme      *string    `json:"theme,omitempty"`
}

func (UpdateDayActivities) ToolName() string { return ToolUpdateDayActivities }
func (UpdateDayActivities) isToolCall()      {}
