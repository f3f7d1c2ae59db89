package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyItemInsufficientFunds(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.Drain()
	e.state.Currency = 100

	_, err := e.BuyItem("decor-1")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 100, e.State().Currency)
	a, _ := e.Agent(my.ID)
	assert.Empty(t, a.Inventory)
	assert.True(t, e.Drain().Empty())
}

func TestBuyItemAddsToInventory(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.Drain()

	tx, err := e.BuyItem("toy-1")
	require.NoError(t, err)
	assert.Equal(t, 880, e.State().Currency)
	require.NotNil(t, tx.AgentID)
	assert.Equal(t, my.ID, *tx.AgentID)

	a, _ := e.Agent(my.ID)
	require.Len(t, a.Inventory, 1)
	assert.Equal(t, "Bouncy Ball", a.Inventory[0].Name)

	changes := e.Drain()
	require.Len(t, changes.Transactions, 1)
	assert.Equal(t, tx, changes.Transactions[0])
	require.NotNil(t, changes.State)
	assert.Equal(t, 880, changes.State.Currency)
}

func TestBuyItemRequiresCompanionAndKnownItem(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	_, err := e.BuyItem("food-1")
	require.ErrorIs(t, err, ErrNotOnboarded)

	onboard(t, e)
	_, err = e.BuyItem("rocket")
	require.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1000, e.State().Currency)
}

func TestBuyAgentJoinsRosterAsFriend(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.Drain()
	e.state.Currency = 3000

	a, tx, err := e.BuyAgent("market-2")
	require.NoError(t, err)
	assert.Equal(t, 500, e.State().Currency)
	assert.Equal(t, 2500, tx.Cost)
	assert.False(t, tx.IsAutonomous)
	assert.Equal(t, "Puff", a.Name)
	assert.False(t, a.IsUserOwned)
	assert.Equal(t, RarityRare, a.Rarity)
	assert.Equal(t, 70.0, a.Stats.Friendship)
	assert.NotEqual(t, my.ID, a.ID)
	assert.NotEqual(t, my.DNA, a.DNA)
	assert.Equal(t, my.ID, e.State().MyAgentID)
	assert.Len(t, e.Snapshot().Agents, 2)

	changes := e.Drain()
	require.Len(t, changes.CreatedAgents, 1)
	assert.Equal(t, a.ID, changes.CreatedAgents[0].ID)
}

func TestBuyAgentInsufficientFunds(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	onboard(t, e)
	e.Drain()

	_, _, err := e.BuyAgent("market-1")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 1000, e.State().Currency)
	assert.Len(t, e.Snapshot().Agents, 1)
	assert.True(t, e.Drain().Empty())
}

func TestAutoLifeFeedsWhenTired(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	my := onboard(t, e)
	require.NoError(t, e.ToggleAutoLife(true))
	e.Drain()
	e.agents[my.ID].Stats.Energy = 10

	clock.advance(time.Second)
	rep := e.Tick(time.Second)
	assert.Equal(t, 1, rep.AutoActions)
	assert.Equal(t, 950, e.State().Currency)

	a, _ := e.Agent(my.ID)
	assert.InDelta(t, 10-0.2+25, a.Stats.Energy, 1e-9)

	changes := e.Drain()
	require.Len(t, changes.Transactions, 1)
	assert.True(t, changes.Transactions[0].IsAutonomous)
	assert.Equal(t, "Super Kibble", changes.Transactions[0].ItemName)
}

func TestAutoLifeSkipsSilentlyWhenBroke(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	my := onboard(t, e)
	require.NoError(t, e.ToggleAutoLife(true))
	e.Drain()
	e.agents[my.ID].Stats.Energy = 10
	e.state.Currency = 30

	clock.advance(time.Second)
	rep := e.Tick(time.Second)
	assert.Equal(t, 0, rep.AutoActions)
	assert.Equal(t, 30, e.State().Currency)
	assert.Empty(t, e.Drain().Transactions)
}

func TestAutoLifeRespectsMinimumBalance(t *testing.T) {
	e, clock := newTestEngine(t, 1)
	e.tuning.AutoMinBalance = 980
	my := onboard(t, e)
	require.NoError(t, e.ToggleAutoLife(true))
	e.agents[my.ID].Stats.Energy = 10

	clock.advance(time.Second)
	e.Tick(time.Second)
	assert.Equal(t, 1000, e.State().Currency)
}

func TestAutoLifeOffDoesNothing(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.agents[my.ID].Stats.Energy = 10
	e.agents[my.ID].Stats.Happiness = 5
	rep := e.Tick(time.Second)
	assert.Equal(t, 0, rep.AutoActions)
	assert.Equal(t, 1000, e.State().Currency)
}

func TestListAndUnlistAgent(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	my := onboard(t, e)
	e.state.Currency = 5000
	friend, _, err := e.BuyAgent("market-2")
	require.NoError(t, err)

	require.ErrorIs(t, e.ListAgent(my.ID, 100), ErrValidation)
	require.ErrorIs(t, e.ListAgent(friend.ID, 0), ErrValidation)
	require.ErrorIs(t, e.ListAgent("ghost", 10), ErrAgentNotFound)

	require.NoError(t, e.ListAgent(friend.ID, 3000))
	a, _ := e.Agent(friend.ID)
	require.NotNil(t, a.Price)
	assert.Equal(t, 3000, *a.Price)

	require.NoError(t, e.UnlistAgent(friend.ID))
	a, _ = e.Agent(friend.ID)
	assert.Nil(t, a.Price)
}

func TestCreateMyAgentValidation(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	cases := map[string]string{
		"":                          "Please enter a name for your companion",
		"   ":                       "Please enter a name for your companion",
		"A":                         "Name must be at least 2 characters",
		"ThisNameIsWayTooLongToUse": "Name must be 20 characters or less",
	}
	for name, msg := range cases {
		_, err := e.CreateMyAgent(name, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.Equal(t, msg, verr.Message)
	}
	_, err := e.CreateMyAgent("Rex", "Grumpy")
	require.ErrorIs(t, err, ErrValidation)
	assert.False(t, e.State().HasOnboarded)

	a, err := e.CreateMyAgent("  Rex  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Rex", a.Name)
	assert.Equal(t, DefaultPersonality, a.Personality)
	assert.True(t, a.IsUserOwned)
	st := e.State()
	assert.True(t, st.HasOnboarded)
	assert.Equal(t, a.ID, st.MyAgentID)
	assert.Equal(t, a.ID, st.SelectedAgentID)

	_, err = e.CreateMyAgent("Second", "")
	require.ErrorIs(t, err, ErrAlreadyOnboarded)
}
