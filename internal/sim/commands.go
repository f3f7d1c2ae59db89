package sim

type CommandType string

const (
	CmdCreateMyAgent  CommandType = "create_my_agent"
	CmdInteract       CommandType = "interact"
	CmdStartQuest     CommandType = "start_quest"
	CmdCollectNode    CommandType = "collect_node"
	CmdCompleteQuest  CommandType = "complete_quest"
	CmdBuyItem        CommandType = "buy_item"
	CmdBuyAgent       CommandType = "buy_agent"
	CmdToggleAutoLife CommandType = "toggle_auto_life"
	CmdSelectAgent    CommandType = "select_agent"
	CmdListAgent      CommandType = "list_agent"
	CmdUnlistAgent    CommandType = "unlist_agent"
	CmdRemoveAgent    CommandType = "remove_agent"
)

// Command is a player request submitted from the UI.
type Command struct {
	Type        CommandType `json:"type"`
	AgentID     string      `json:"agent_id,omitempty"`
	Kind        string      `json:"kind,omitempty"`
	NodeID      string      `json:"node_id,omitempty"`
	ItemID      string      `json:"item_id,omitempty"`
	MarketID    string      `json:"market_id,omitempty"`
	Enabled     bool        `json:"enabled,omitempty"`
	Name        string      `json:"name,omitempty"`
	Personality string      `json:"personality,omitempty"`
	Price       int         `json:"price,omitempty"`
}

// Result is what a command produced; only the fields relevant to its type are set.
type Result struct {
	Agent       *Agent        `json:"agent,omitempty"`
	Quest       *Quest        `json:"quest,omitempty"`
	Node        *MapNode      `json:"node,omitempty"`
	Outcome     *QuestOutcome `json:"outcome,omitempty"`
	Transaction *Transaction  `json:"transaction,omitempty"`
}

// Apply runs one command to completion. On error the world is unchanged.
func (e *Engine) Apply(cmd Command) (Result, error) {
	var res Result
	switch cmd.Type {
	case CmdCreateMyAgent:
		a, err := e.CreateMyAgent(cmd.Name, cmd.Personality)
		if err != nil {
			return res, err
		}
		res.Agent = &a
	case CmdInteract:
		agentID := cmd.AgentID
		if agentID == "" {
			agentID = e.state.MyAgentID
		}
		a, err := e.Interact(agentID, InteractionKind(cmd.Kind))
		if err != nil {
			return res, err
		}
		res.Agent = &a
	case CmdStartQuest:
		q, err := e.StartQuest(cmd.Kind)
		if err != nil {
			return res, err
		}
		res.Quest = &q
	case CmdCollectNode:
		n, err := e.CollectNode(cmd.NodeID)
		if err != nil {
			return res, err
		}
		res.Node = &n
		if q := e.state.ActiveQuest; q != nil {
			cp := *q
			res.Quest = &cp
		}
	case CmdCompleteQuest:
		out, err := e.CompleteQuest()
		if err != nil {
			return res, err
		}
		res.Outcome = &out
	case CmdBuyItem:
		tx, err := e.BuyItem(cmd.ItemID)
		if err != nil {
			return res, err
		}
		res.Transaction = &tx
	case CmdBuyAgent:
		a, tx, err := e.BuyAgent(cmd.MarketID)
		if err != nil {
			return res, err
		}
		res.Agent = &a
		res.Transaction = &tx
	case CmdToggleAutoLife:
		if err := e.ToggleAutoLife(cmd.Enabled); err != nil {
			return res, err
		}
	case CmdSelectAgent:
		if err := e.SelectAgent(cmd.AgentID); err != nil {
			return res, err
		}
	case CmdListAgent:
		if err := e.ListAgent(cmd.AgentID, cmd.Price); err != nil {
			return res, err
		}
	case CmdUnlistAgent:
		if err := e.UnlistAgent(cmd.AgentID); err != nil {
			return res, err
		}
	case CmdRemoveAgent:
		if err := e.RemoveAgent(cmd.AgentID); err != nil {
			return res, err
		}
	default:
		return res, ErrUnknownCommand
	}
	return res, nil
}
