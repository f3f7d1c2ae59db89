package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, seed int64) (*Engine, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tuning := DefaultTuning()
	tuning.ThoughtChance = 0
	e := New("user-1", Options{Tuning: tuning, Rand: NewRand(seed), Clock: clock})
	return e, clock
}

func onboard(t *testing.T, e *Engine) Agent {
	t.Helper()
	a, err := e.CreateMyAgent("Nova", "Calm")
	require.NoError(t, err)
	return a
}

func TestEndToEndShopAndQuest(t *testing.T) {
	e, _ := newTestEngine(t, 7)
	onboard(t, e)
	e.Drain()
	require.Equal(t, 1000, e.State().Currency)

	tx, err := e.BuyItem("food-1")
	require.NoError(t, err)
	assert.Equal(t, 50, tx.Cost)
	assert.False(t, tx.IsAutonomous)
	require.Equal(t, 950, e.State().Currency)
	changes := e.Drain()
	require.Len(t, changes.Transactions, 1)

	q, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.Progress)
	nodes := e.State().MapNodes
	require.Len(t, nodes, 5)

	for _, n := range nodes {
		_, err := e.CollectNode(n.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 100.0, e.State().ActiveQuest.Progress)

	out, err := e.CompleteQuest()
	require.NoError(t, err)
	assert.True(t, out.Rewarded)
	assert.Equal(t, 200, out.Reward)
	assert.Equal(t, QuestCompleted, out.Quest.Status)

	st := e.State()
	assert.Equal(t, 950+200, st.Currency)
	assert.Nil(t, st.ActiveQuest)
	assert.Empty(t, st.MapNodes)

	_, err = e.CompleteQuest()
	require.ErrorIs(t, err, ErrNoActiveQuest)
	assert.Equal(t, 1150, e.State().Currency)

	changes = e.Drain()
	require.Len(t, changes.Transactions, 1)
	assert.Equal(t, -200, changes.Transactions[0].Cost)
	var rewardLogs int
	for _, l := range changes.Logs {
		if l.Type == LogReward {
			rewardLogs++
		}
	}
	assert.Equal(t, 1, rewardLogs)
}

func TestStatsStayInBoundsUnderTicksAndInteractions(t *testing.T) {
	e, clock := newTestEngine(t, 3)
	my := onboard(t, e)
	require.NoError(t, e.ToggleAutoLife(true))
	e.state.Currency = 100000

	kinds := []InteractionKind{InteractPlay, InteractFeed, InteractPet, InteractTeach}
	for i := 0; i < 400; i++ {
		if i%3 == 0 {
			_, err := e.Interact(my.ID, kinds[i%len(kinds)])
			require.NoError(t, err)
		}
		clock.advance(5 * time.Second)
		e.Tick(5 * time.Second)
		for _, a := range e.Snapshot().Agents {
			for _, v := range []float64{a.Stats.Happiness, a.Stats.Energy, a.Stats.Friendship, a.Stats.Smarts} {
				require.GreaterOrEqual(t, v, StatMin)
				require.LessOrEqual(t, v, StatMax)
			}
			require.GreaterOrEqual(t, a.Position.X, 0.0)
			require.LessOrEqual(t, a.Position.X, e.tuning.MapSize)
			require.GreaterOrEqual(t, a.Position.Y, 0.0)
			require.LessOrEqual(t, a.Position.Y, e.tuning.MapSize)
		}
		require.GreaterOrEqual(t, e.State().Currency, 0)
	}
}

func TestSameSeedSameWorld(t *testing.T) {
	run := func() Snapshot {
		e, clock := newTestEngine(t, 42)
		e.tuning.ThoughtChance = 0.5
		onboard(t, e)
		_, err := e.StartQuest("treasure-hunt")
		require.NoError(t, err)
		for i := 0; i < 30; i++ {
			clock.advance(time.Second)
			e.Tick(time.Second)
		}
		return e.Snapshot()
	}
	require.Equal(t, run(), run())
}

func TestApplyDispatchesCommands(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	_, err := e.Apply(Command{Type: CmdCreateMyAgent, Name: " x "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name must be at least 2 characters", verr.Message)
	assert.False(t, e.State().HasOnboarded)

	res, err := e.Apply(Command{Type: CmdCreateMyAgent, Name: "Pixel", Personality: "Clever"})
	require.NoError(t, err)
	require.NotNil(t, res.Agent)
	assert.Equal(t, res.Agent.ID, e.State().MyAgentID)

	res, err = e.Apply(Command{Type: CmdInteract, Kind: "pet"})
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.Agent.Stats.Friendship)

	res, err = e.Apply(Command{Type: CmdStartQuest, Kind: "daily-explore"})
	require.NoError(t, err)
	require.NotNil(t, res.Quest)

	node := e.State().MapNodes[0]
	res, err = e.Apply(Command{Type: CmdCollectNode, NodeID: node.ID})
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Quest.Progress)

	res, err = e.Apply(Command{Type: CmdCompleteQuest})
	require.NoError(t, err)
	assert.False(t, res.Outcome.Rewarded)

	_, err = e.Apply(Command{Type: "dance"})
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRestoreKeepsStateAndOrdersLogs(t *testing.T) {
	e, clock := newTestEngine(t, 9)
	onboard(t, e)
	_, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	snap := e.Snapshot()

	restored := Restore(snap.State, snap.Agents, snap.Logs, Options{Tuning: e.tuning, Rand: NewRand(1), Clock: clock})
	got := restored.Snapshot()
	assert.Equal(t, snap.State, got.State)
	assert.Equal(t, snap.Agents, got.Agents)
	assert.Equal(t, snap.Logs, got.Logs)
	assert.True(t, restored.Drain().Empty())
}

func TestSnapshotLogsAreBounded(t *testing.T) {
	e, _ := newTestEngine(t, 2)
	my := onboard(t, e)
	for i := 0; i < 80; i++ {
		_, err := e.Interact(my.ID, InteractPet)
		require.NoError(t, err)
	}
	logs := e.Snapshot().Logs
	require.Len(t, logs, e.tuning.LogHistory)
	assert.False(t, logs[0].Timestamp.Before(logs[len(logs)-1].Timestamp))
}

func TestZeroOptionsUseDefaultTuning(t *testing.T) {
	e := New("u", Options{})
	assert.Equal(t, DefaultTuning(), e.Tuning())
	assert.Equal(t, 1000, e.State().Currency)

	tn := DefaultTuning()
	tn.StartingCurrency = 0
	tn.EnergyDecayPerSec = 0
	e = New("u", Options{Tuning: tn})
	assert.Equal(t, 0, e.State().Currency)
	assert.Equal(t, 0.0, e.Tuning().EnergyDecayPerSec)
}

func TestRemoveAgentDropsFriendOnly(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.state.Currency = 3000
	friend, _, err := e.BuyAgent("market-2")
	require.NoError(t, err)
	require.NoError(t, e.SelectAgent(friend.ID))
	e.Drain()

	_, err = e.Apply(Command{Type: CmdRemoveAgent, AgentID: my.ID})
	require.ErrorIs(t, err, ErrValidation)
	_, err = e.Apply(Command{Type: CmdRemoveAgent, AgentID: "ghost"})
	require.ErrorIs(t, err, ErrAgentNotFound)
	assert.True(t, e.Drain().Empty())

	_, err = e.Apply(Command{Type: CmdRemoveAgent, AgentID: friend.ID})
	require.NoError(t, err)
	_, ok := e.Agent(friend.ID)
	assert.False(t, ok)
	require.Len(t, e.Snapshot().Agents, 1)
	assert.Equal(t, my.ID, e.State().SelectedAgentID)

	changes := e.Drain()
	assert.Equal(t, []string{friend.ID}, changes.DeletedAgents)
	assert.Empty(t, changes.UpdatedAgents)
	require.NotNil(t, changes.State)
	require.Len(t, changes.Logs, 1)
	assert.Equal(t, "Puff left your world.", changes.Logs[0].Text)

	e.Tick(time.Second)
	assert.Len(t, e.Snapshot().Agents, 1)
}

func TestAgentsChatWhenOneArrivesNearAnother(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	my := onboard(t, e)
	e.state.Currency = 3000
	friend, _, err := e.BuyAgent("market-2")
	require.NoError(t, err)
	e.agents[my.ID].Position = Point{X: 100, Y: 100}
	e.agents[my.ID].Target = Point{X: 100, Y: 100}
	e.agents[friend.ID].Position = Point{X: 120, Y: 100}
	e.agents[friend.ID].Target = Point{X: 700, Y: 700}
	myThoughts := len(e.agents[my.ID].Thoughts)
	friendThoughts := len(e.agents[friend.ID].Thoughts)

	rep := e.Tick(time.Second)
	assert.Equal(t, 1, rep.Chats)
	a, _ := e.Agent(my.ID)
	b, _ := e.Agent(friend.ID)
	assert.Equal(t, ActionChatting, a.CurrentAction)
	assert.Equal(t, ActionChatting, b.CurrentAction)
	assert.Equal(t, Point{X: 120, Y: 100}, b.Position)
	assert.Len(t, a.Thoughts, myThoughts+1)
	assert.Len(t, b.Thoughts, friendThoughts+1)

	clock.advance(time.Second)
	e.Tick(time.Second)
	b, _ = e.Agent(friend.ID)
	assert.Equal(t, ActionChatting, b.CurrentAction)
	assert.Equal(t, Point{X: 120, Y: 100}, b.Position)

	clock.advance(e.tuning.ChatDuration)
	e.Tick(time.Second)
	a, _ = e.Agent(my.ID)
	b, _ = e.Agent(friend.ID)
	assert.NotEqual(t, ActionChatting, a.CurrentAction)
	assert.NotEqual(t, ActionChatting, b.CurrentAction)
	assert.NotEqual(t, Point{X: 120, Y: 100}, b.Position)
}

func TestChatDisabledAndRestoredChatsEnd(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	e.tuning.ChatRange = 0
	my := onboard(t, e)
	e.state.Currency = 3000
	friend, _, err := e.BuyAgent("market-2")
	require.NoError(t, err)
	e.agents[friend.ID].Position = e.agents[my.ID].Position

	rep := e.Tick(time.Second)
	assert.Equal(t, 0, rep.Chats)

	snap := e.Snapshot()
	for i := range snap.Agents {
		snap.Agents[i].CurrentAction = ActionChatting
	}
	restored := Restore(snap.State, snap.Agents, nil, Options{Tuning: e.tuning, Rand: NewRand(1), Clock: clock})
	restored.Tick(time.Second)
	for _, a := range restored.Snapshot().Agents {
		assert.NotEqual(t, ActionChatting, a.CurrentAction)
	}
}
