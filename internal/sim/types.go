package sim

import "time"

type Action string

const (
	ActionIdle     Action = "idle"
	ActionWalking  Action = "walking"
	ActionChatting Action = "chatting"
	ActionQuesting Action = "questing"
)

type Rarity string

const (
	RarityCommon Rarity = "Common"
	RarityRare   Rarity = "Rare"
	RarityEpic   Rarity = "Epic"
)

type InteractionKind string

const (
	InteractPlay  InteractionKind = "play"
	InteractFeed  InteractionKind = "feed"
	InteractPet   InteractionKind = "pet"
	InteractTeach InteractionKind = "teach"
)

type LogType string

const (
	LogGrowth LogType = "growth"
	LogFun    LogType = "fun"
	LogReward LogType = "reward"
	LogInfo   LogType = "info"
)

type NodeType string

const (
	NodeTreasure NodeType = "treasure"
	NodeEnergy   NodeType = "energy"
)

type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
)

const (
	StatMin = 0.0
	StatMax = 100.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stats struct {
	Happiness  float64 `json:"happiness"`
	Energy     float64 `json:"energy"`
	Friendship float64 `json:"friendship"`
	Smarts     float64 `json:"smarts"`
}

type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Description string `json:"description"`
}

type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Price  int    `json:"price"`
	Icon   string `json:"icon,omitempty"`
	Energy int    `json:"energy,omitempty"`
}

type Thought struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Agent is a companion on the map. Stats are kept inside [StatMin, StatMax].
type Agent struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id"`
	DNA             string    `json:"dna"`
	Name            string    `json:"name"`
	Personality     string    `json:"personality"`
	Color           string    `json:"color"`
	Position        Point     `json:"position"`
	Target          Point     `json:"target"`
	CurrentAction   Action    `json:"current_action"`
	Stats           Stats     `json:"stats"`
	Skills          []Skill   `json:"skills"`
	Inventory       []Item    `json:"inventory"`
	Thoughts        []Thought `json:"thoughts"`
	IsUserOwned     bool      `json:"is_user_owned"`
	AutoLifeEnabled bool      `json:"auto_life_enabled"`
	Rarity          Rarity    `json:"rarity"`
	Price           *int      `json:"price"`
	BirthDate       time.Time `json:"birth_date"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (a *Agent) Clone() Agent {
	out := *a
	if a.UserID != nil {
		v := *a.UserID
		out.UserID = &v
	}
	if a.Price != nil {
		v := *a.Price
		out.Price = &v
	}
	out.Skills = cloneSlice(a.Skills)
	out.Inventory = cloneSlice(a.Inventory)
	out.Thoughts = cloneSlice(a.Thoughts)
	return out
}

type Quest struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Status     QuestStatus `json:"status"`
	Progress   float64     `json:"progress"`
	Reward     int         `json:"reward"`
	TotalNodes int         `json:"total_nodes"`
	StartedAt  time.Time   `json:"started_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

type MapNode struct {
	ID        string   `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Type      NodeType `json:"type"`
	Collected bool     `json:"collected"`
	QuestID   string   `json:"quest_id,omitempty"`
}

// GameState is the per-user economy and quest record.
type GameState struct {
	UserID          string    `json:"user_id"`
	Currency        int       `json:"currency"`
	SelectedAgentID string    `json:"selected_agent_id"`
	MyAgentID       string    `json:"my_agent_id"`
	HasOnboarded    bool      `json:"has_onboarded"`
	ActiveQuest     *Quest    `json:"active_quest"`
	MapNodes        []MapNode `json:"map_nodes"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (g *GameState) Clone() GameState {
	out := *g
	if g.ActiveQuest != nil {
		q := *g.ActiveQuest
		out.ActiveQuest = &q
	}
	out.MapNodes = cloneSlice(g.MapNodes)
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// NewGameState returns the record a user starts with.
func NewGameState(userID string, currency int, now time.Time) GameState {
	return GameState{
		UserID:    userID,
		Currency:  currency,
		MapNodes:  []MapNode{},
		UpdatedAt: now,
	}
}

type Transaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AgentID      *string   `json:"agent_id"`
	ItemName     string    `json:"item_name"`
	Cost         int       `json:"cost"`
	IsAutonomous bool      `json:"is_autonomous"`
	Timestamp    time.Time `json:"timestamp"`
}

type LogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Type      LogType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
