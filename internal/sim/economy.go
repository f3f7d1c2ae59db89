package sim

import "fmt"

// debit takes cost from the balance and records the purchase. Callers check
// funds first; the balance never goes below zero.
func (e *Engine) debit(cost int, itemName string, agentID string, autonomous bool) (Transaction, error) {
	if cost < 0 {
		return Transaction{}, invalid("cost", "must not be negative")
	}
	if e.state.Currency < cost {
		return Transaction{}, ErrInsufficientFunds
	}
	e.state.Currency -= cost
	e.markState()
	return e.recordTransaction(itemName, -cost, agentID, autonomous), nil
}

// credit adds amount to the balance. The record stores it as a negative cost.
func (e *Engine) credit(amount int, itemName string, agentID string) Transaction {
	e.state.Currency += amount
	e.markState()
	return e.recordTransaction(itemName, amount, agentID, false)
}

// recordTransaction appends a ledger record; delta is the balance change.
func (e *Engine) recordTransaction(itemName string, delta int, agentID string, autonomous bool) Transaction {
	tx := Transaction{
		ID:           e.ids.next(),
		UserID:       e.userID,
		ItemName:     itemName,
		Cost:         -delta,
		IsAutonomous: autonomous,
		Timestamp:    e.clock.Now(),
	}
	if agentID != "" {
		id := agentID
		tx.AgentID = &id
	}
	e.out.transactions = append(e.out.transactions, tx)
	return tx
}

// BuyItem purchases a shop item for the player's companion.
func (e *Engine) BuyItem(itemID string) (Transaction, error) {
	item, ok := e.cat.ShopItem(itemID)
	if !ok {
		return Transaction{}, ErrItemNotFound
	}
	my := e.myAgent()
	if my == nil {
		return Transaction{}, ErrNotOnboarded
	}
	if e.state.Currency < item.Price {
		return Transaction{}, ErrInsufficientFunds
	}
	tx, err := e.debit(item.Price, item.Name, my.ID, false)
	if err != nil {
		return Transaction{}, err
	}
	my.Inventory = append(my.Inventory, item)
	e.touch(my)
	e.appendLog(LogInfo, fmt.Sprintf("Bought %s for %d coins.", item.Name, item.Price))
	return tx, nil
}

// BuyAgent adopts a companion from the market. It joins the roster as a
// friend; the player's own companion does not change.
func (e *Engine) BuyAgent(marketID string) (Agent, Transaction, error) {
	tpl, ok := e.cat.MarketAgent(marketID)
	if !ok {
		return Agent{}, Transaction{}, ErrItemNotFound
	}
	if e.state.Currency < tpl.Price {
		return Agent{}, Transaction{}, ErrInsufficientFunds
	}
	a := e.newAgent(tpl.Name, tpl.Personality, false)
	a.Stats = tpl.Stats.clamped()
	a.Rarity = tpl.Rarity
	if tpl.Color != "" {
		a.Color = tpl.Color
	}
	for i := range a.Skills {
		a.Skills[i].Level = max(1, tpl.Level)
	}
	tx, err := e.debit(tpl.Price, "Agent: "+tpl.Name, a.ID, false)
	if err != nil {
		return Agent{}, Transaction{}, err
	}
	e.addAgent(a)
	e.out.touch(a.ID, true)
	e.appendLog(LogInfo, fmt.Sprintf("%s joined your world!", a.Name))
	return a.Clone(), tx, nil
}

// autoPurchase is the auto-life spending path. It never fails: when the
// balance would fall below the reserve the purchase is skipped.
func (e *Engine) autoPurchase(cost int, itemName string, agentID string) bool {
	if cost < 0 || e.state.Currency-cost < e.tuning.AutoMinBalance {
		return false
	}
	if _, err := e.debit(cost, itemName, agentID, true); err != nil {
		return false
	}
	return true
}

// ListAgent puts a roster friend up for sale at price.
func (e *Engine) ListAgent(agentID string, price int) error {
	a, err := e.agent(agentID)
	if err != nil {
		return err
	}
	if a.ID == e.state.MyAgentID || a.IsUserOwned {
		return invalid("agent_id", "your own companion cannot be listed")
	}
	if price <= 0 {
		return invalid("price", "price must be greater than zero")
	}
	p := price
	a.Price = &p
	e.touch(a)
	e.appendLog(LogInfo, fmt.Sprintf("%s listed on the exchange for %d coins.", a.Name, price))
	return nil
}

func (e *Engine) UnlistAgent(agentID string) error {
	a, err := e.agent(agentID)
	if err != nil {
		return err
	}
	if a.Price == nil {
		return nil
	}
	a.Price = nil
	e.touch(a)
	e.appendLog(LogInfo, fmt.Sprintf("%s was taken off the exchange.", a.Name))
	return nil
}
