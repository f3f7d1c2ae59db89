package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDecayFloorsAtZero(t *testing.T) {
	tn := DefaultTuning()
	a := &Agent{Stats: Stats{Happiness: 1, Energy: 1, Friendship: 50, Smarts: 50}}

	ApplyDecay(a, 2*time.Second, tn)
	assert.InDelta(t, 0.6, a.Stats.Energy, 1e-9)
	assert.InDelta(t, 0.8, a.Stats.Happiness, 1e-9)

	ApplyDecay(a, time.Hour, tn)
	assert.Equal(t, 0.0, a.Stats.Energy)
	assert.Equal(t, 0.0, a.Stats.Happiness)
	assert.Equal(t, 50.0, a.Stats.Friendship)
}

func TestApplyDecayIgnoresNonPositiveElapsed(t *testing.T) {
	a := &Agent{Stats: DefaultStats()}
	ApplyDecay(a, -time.Second, DefaultTuning())
	assert.Equal(t, DefaultStats(), a.Stats)
}

func TestInteractionsCapAtMax(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	for i := 0; i < 20; i++ {
		_, err := e.Interact(my.ID, InteractPlay)
		require.NoError(t, err)
	}
	a, _ := e.Agent(my.ID)
	assert.Equal(t, 100.0, a.Stats.Happiness)
	assert.Equal(t, 100.0, a.Stats.Friendship)
}

func TestPaidInteractionWithoutFundsChangesNothing(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.Drain()
	e.agents[my.ID].Stats.Energy = 10
	e.state.Currency = e.tuning.FeedCost - 1

	_, err := e.Interact(my.ID, InteractFeed)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	a, _ := e.Agent(my.ID)
	assert.Equal(t, 10.0, a.Stats.Energy)
	assert.Equal(t, e.tuning.FeedCost-1, e.State().Currency)
	changes := e.Drain()
	assert.Empty(t, changes.Transactions)
	assert.Empty(t, changes.Logs)
}

func TestFeedDebitsAndLogsGrowth(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.Drain()
	e.agents[my.ID].Stats.Energy = 40

	a, err := e.Interact(my.ID, InteractFeed)
	require.NoError(t, err)
	assert.Equal(t, 65.0, a.Stats.Energy)
	assert.Equal(t, 1000-e.tuning.FeedCost, e.State().Currency)

	changes := e.Drain()
	require.Len(t, changes.Transactions, 1)
	assert.Equal(t, "Feed", changes.Transactions[0].ItemName)
	require.NotEmpty(t, changes.Logs)
	assert.Equal(t, LogGrowth, changes.Logs[0].Type)
}

func TestTeachLevelsUpSkill(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	for i := 0; i < 2; i++ {
		_, err := e.Interact(my.ID, InteractTeach)
		require.NoError(t, err)
	}
	a, _ := e.Agent(my.ID)
	assert.Equal(t, 70.0, a.Stats.Smarts)
	require.Len(t, a.Skills, 1)
	assert.Equal(t, 2, a.Skills[0].Level)
}

func TestInteractRejectsUnknownKindAndAgent(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)

	_, err := e.Interact(my.ID, "tickle")
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.Interact("missing", InteractPet)
	require.ErrorIs(t, err, ErrAgentNotFound)
}
