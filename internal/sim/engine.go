package sim

import "time"

// Changes is everything an engine mutated since the last Drain. The host
// persists and publishes it; the engine never does I/O itself.
type Changes struct {
	CreatedAgents []Agent
	UpdatedAgents []Agent
	DeletedAgents []string
	State         *GameState
	Transactions  []Transaction
	Logs          []LogEntry
}

func (c Changes) Empty() bool {
	return len(c.CreatedAgents) == 0 && len(c.UpdatedAgents) == 0 && len(c.DeletedAgents) == 0 &&
		c.State == nil && len(c.Transactions) == 0 && len(c.Logs) == 0
}

type outbox struct {
	created      map[string]bool
	dirty        map[string]bool
	order        []string
	deleted      []string
	stateDirty   bool
	transactions []Transaction
	logs         []LogEntry
}

func newOutbox() outbox {
	return outbox{created: map[string]bool{}, dirty: map[string]bool{}}
}

func (o *outbox) touch(agentID string, created bool) {
	if created {
		o.created[agentID] = true
	}
	if !o.dirty[agentID] {
		o.dirty[agentID] = true
		o.order = append(o.order, agentID)
	}
}

// Snapshot is a read-only copy of a session for observers.
type Snapshot struct {
	Agents []Agent    `json:"agents"`
	State  GameState  `json:"state"`
	Logs   []LogEntry `json:"logs"`
}

// Options configure an Engine. A zero Tuning means DefaultTuning; nil
// Catalog, Rand and Clock fall back to the defaults.
type Options struct {
	Tuning  Tuning
	Catalog *Catalog
	Rand    Rand
	Clock   Clock
}

// Engine is the simulation of one user's world. It is not safe for
// concurrent use: the host must run one call at a time.
type Engine struct {
	userID string
	tuning Tuning
	cat    *Catalog
	rng    Rand
	clock  Clock
	ids    *idSource

	state  GameState
	agents map[string]*Agent
	order  []string
	logs   []LogEntry // newest last, bounded by tuning.LogHistory

	sinceRespawn time.Duration
	chatUntil    map[string]time.Time
	out          outbox
}

func newEngine(userID string, opts Options) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	return &Engine{
		userID:    userID,
		tuning:    opts.Tuning.withDefaults(),
		cat:       opts.Catalog,
		rng:       opts.Rand,
		clock:     opts.Clock,
		ids:       newIDSource(opts.Clock, opts.Rand),
		agents:    map[string]*Agent{},
		chatUntil: map[string]time.Time{},
		out:       newOutbox(),
	}
}

// New starts a brand new world for userID with the starting balance.
func New(userID string, opts Options) *Engine {
	e := newEngine(userID, opts)
	e.state = NewGameState(userID, e.tuning.StartingCurrency, e.clock.Now())
	e.out.stateDirty = true
	return e
}

// Restore rebuilds an engine from persisted records. Recent logs are
// expected newest first, as the store returns them.
func Restore(state GameState, agents []Agent, recentLogs []LogEntry, opts Options) *Engine {
	e := newEngine(state.UserID, opts)
	e.state = state.Clone()
	if e.state.MapNodes == nil {
		e.state.MapNodes = []MapNode{}
	}
	if e.state.Currency < 0 {
		e.state.Currency = 0
	}
	if q := e.state.ActiveQuest; q != nil && q.Status != QuestActive {
		e.state.ActiveQuest = nil
	}
	for i := range agents {
		a := agents[i].Clone()
		a.Stats = a.Stats.clamped()
		e.addAgent(&a)
	}
	for i := len(recentLogs) - 1; i >= 0; i-- {
		e.logs = append(e.logs, recentLogs[i])
	}
	e.trimLogs()
	return e
}

func (e *Engine) UserID() string { return e.userID }

func (e *Engine) Tuning() Tuning { return e.tuning }

func (e *Engine) Catalog() *Catalog { return e.cat }

func (e *Engine) addAgent(a *Agent) {
	if _, ok := e.agents[a.ID]; !ok {
		e.order = append(e.order, a.ID)
	}
	e.agents[a.ID] = a
}

func (e *Engine) agent(id string) (*Agent, error) {
	a, ok := e.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return a, nil
}

func (e *Engine) myAgent() *Agent {
	if e.state.MyAgentID == "" {
		return nil
	}
	return e.agents[e.state.MyAgentID]
}

// Agent returns a copy of one roster agent.
func (e *Engine) Agent(id string) (Agent, bool) {
	a, ok := e.agents[id]
	if !ok {
		return Agent{}, false
	}
	return a.Clone(), true
}

func (e *Engine) State() GameState {
	return e.state.Clone()
}

func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Agents: make([]Agent, 0, len(e.order)),
		State:  e.state.Clone(),
		Logs:   make([]LogEntry, 0, len(e.logs)),
	}
	for _, id := range e.order {
		snap.Agents = append(snap.Agents, e.agents[id].Clone())
	}
	for i := len(e.logs) - 1; i >= 0; i-- {
		snap.Logs = append(snap.Logs, e.logs[i])
	}
	return snap
}

// Drain hands over the pending changes and resets the outbox.
func (e *Engine) Drain() Changes {
	var c Changes
	now := e.clock.Now()
	for _, id := range e.out.order {
		a, ok := e.agents[id]
		if !ok {
			continue
		}
		a.UpdatedAt = now
		if e.out.created[id] {
			c.CreatedAgents = append(c.CreatedAgents, a.Clone())
		} else {
			c.UpdatedAgents = append(c.UpdatedAgents, a.Clone())
		}
	}
	if e.out.stateDirty {
		e.state.UpdatedAt = now
		st := e.state.Clone()
		c.State = &st
	}
	c.DeletedAgents = e.out.deleted
	c.Transactions = e.out.transactions
	c.Logs = e.out.logs
	e.out = newOutbox()
	return c
}

func (e *Engine) markState() { e.out.stateDirty = true }

func (e *Engine) touch(a *Agent) { e.out.touch(a.ID, false) }

func (e *Engine) appendLog(typ LogType, text string) LogEntry {
	entry := LogEntry{
		ID:        e.ids.next(),
		UserID:    e.userID,
		Text:      text,
		Type:      typ,
		Timestamp: e.clock.Now(),
	}
	e.logs = append(e.logs, entry)
	e.trimLogs()
	e.out.logs = append(e.out.logs, entry)
	return entry
}

func (e *Engine) trimLogs() {
	if max := e.tuning.LogHistory; len(e.logs) > max {
		e.logs = append([]LogEntry(nil), e.logs[len(e.logs)-max:]...)
	}
}

func (e *Engine) think(a *Agent, ctx ThoughtContext) Thought {
	th := GenerateThought(a, ctx, e.cat.Thoughts, e.rng, e.clock.Now(), e.ids.next(), e.tuning.MaxThoughts)
	e.touch(a)
	return th
}
