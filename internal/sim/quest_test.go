package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnNodesStayInsideMarginAndApart(t *testing.T) {
	tn := DefaultTuning()
	ids := newIDSource(SystemClock{}, NewRand(1))
	nodes := SpawnNodes(8, []NodeType{NodeTreasure, NodeEnergy}, "q1", nil, tn, NewRand(4), ids.next)
	require.Len(t, nodes, 8)

	seen := map[string]bool{}
	for i, n := range nodes {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
		assert.Equal(t, "q1", n.QuestID)
		assert.False(t, n.Collected)
		assert.GreaterOrEqual(t, n.X, tn.NodeMargin)
		assert.LessOrEqual(t, n.X, tn.MapSize-tn.NodeMargin)
		assert.GreaterOrEqual(t, n.Y, tn.NodeMargin)
		assert.LessOrEqual(t, n.Y, tn.MapSize-tn.NodeMargin)
		for _, other := range nodes[:i] {
			assert.GreaterOrEqual(t, math.Hypot(n.X-other.X, n.Y-other.Y), tn.NodeMinSpacing)
		}
	}
}

func TestStartQuestWhileActiveFails(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	onboard(t, e)
	_, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	_, err = e.CollectNode(e.State().MapNodes[0].ID)
	require.NoError(t, err)
	before := e.State()

	_, err = e.StartQuest("treasure-hunt")
	require.ErrorIs(t, err, ErrQuestAlreadyActive)
	assert.Equal(t, before, e.State())
	assert.Equal(t, 20.0, e.State().ActiveQuest.Progress)
}

func TestStartQuestUnknownKind(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	_, err := e.StartQuest("moon-landing")
	require.ErrorIs(t, err, ErrUnknownQuest)
	assert.Nil(t, e.State().ActiveQuest)
}

func TestStartQuestSetsQuestingAction(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	_, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	a, _ := e.Agent(my.ID)
	assert.Equal(t, ActionQuesting, a.CurrentAction)
}

func TestCollectNodeTwiceDoesNotDoubleCount(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	onboard(t, e)
	_, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	id := e.State().MapNodes[2].ID

	n, err := e.CollectNode(id)
	require.NoError(t, err)
	assert.True(t, n.Collected)
	assert.Equal(t, 20.0, e.State().ActiveQuest.Progress)

	_, err = e.CollectNode(id)
	require.ErrorIs(t, err, ErrAlreadyCollected)
	assert.Equal(t, 20.0, e.State().ActiveQuest.Progress)
}

func TestCollectNodeUnknownID(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	_, err := e.CollectNode("nope")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestProgressReachesExactlyHundredForOddNodeCounts(t *testing.T) {
	q := &Quest{ID: "q", TotalNodes: 3}
	nodes := []MapNode{{QuestID: "q", Collected: true}, {QuestID: "q", Collected: true}, {QuestID: "q", Collected: true}}
	assert.Equal(t, 100.0, questProgress(nodes, q))
	nodes[2].Collected = false
	assert.InDelta(t, 66.67, questProgress(nodes, q), 0.01)
}

func TestEnergyNodeRestoresEnergy(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.agents[my.ID].Stats.Energy = 50
	e.state.MapNodes = []MapNode{{ID: "n1", X: 100, Y: 100, Type: NodeEnergy}}

	_, err := e.CollectNode("n1")
	require.NoError(t, err)
	a, _ := e.Agent(my.ID)
	assert.Equal(t, 50+e.tuning.EnergyNodeBoost, a.Stats.Energy)
}

func TestCompleteQuestEarlyForfeitsReward(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	_, err := e.StartQuest("daily-explore")
	require.NoError(t, err)
	_, err = e.CollectNode(e.State().MapNodes[0].ID)
	require.NoError(t, err)
	e.Drain()

	out, err := e.CompleteQuest()
	require.NoError(t, err)
	assert.False(t, out.Rewarded)
	assert.Equal(t, 0, out.Reward)

	st := e.State()
	assert.Equal(t, 1000, st.Currency)
	assert.Nil(t, st.ActiveQuest)
	assert.Empty(t, st.MapNodes)
	a, _ := e.Agent(my.ID)
	assert.Equal(t, ActionIdle, a.CurrentAction)
	assert.Empty(t, e.Drain().Transactions)
}

func TestCompleteQuestWithoutQuest(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	_, err := e.CompleteQuest()
	require.ErrorIs(t, err, ErrNoActiveQuest)
}

func TestTickExpiresOverdueQuest(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	onboard(t, e)
	q, err := e.StartQuest("daily-explore")
	require.NoError(t, err)

	clock.t = q.ExpiresAt.Add(time.Second)
	rep := e.Tick(time.Second)
	assert.True(t, rep.QuestExpired)
	assert.Nil(t, e.State().ActiveQuest)
	assert.Equal(t, 1000, e.State().Currency)
}

func TestTickRespawnsAmbientEnergyNodes(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	for i := 0; i < 10; i++ {
		e.Tick(e.tuning.NodeRespawnEvery)
	}
	nodes := e.State().MapNodes
	require.Len(t, nodes, e.tuning.AmbientNodeCap)
	for _, n := range nodes {
		assert.Equal(t, NodeEnergy, n.Type)
		assert.Empty(t, n.QuestID)
	}

	_, err := e.CollectNode(nodes[0].ID)
	require.NoError(t, err)
	e.Tick(e.tuning.NodeRespawnEvery)
	nodes = e.State().MapNodes
	assert.Len(t, nodes, e.tuning.AmbientNodeCap)
	for _, n := range nodes {
		assert.False(t, n.Collected)
	}
}

func TestStartQuestReplacesAmbientNodes(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	e.Tick(e.tuning.NodeRespawnEvery)
	require.NotEmpty(t, e.State().MapNodes)

	q, err := e.StartQuest("treasure-hunt")
	require.NoError(t, err)
	nodes := e.State().MapNodes
	require.Len(t, nodes, 8)
	for _, n := range nodes {
		assert.Equal(t, q.ID, n.QuestID)
		assert.Equal(t, NodeTreasure, n.Type)
	}
}
