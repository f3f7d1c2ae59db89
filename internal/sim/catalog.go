package sim

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type MarketAgent struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Personality string `yaml:"personality" json:"personality"`
	Color       string `yaml:"color" json:"color"`
	Price       int    `yaml:"price" json:"price"`
	Rarity      Rarity `yaml:"rarity" json:"rarity"`
	Level       int    `yaml:"level" json:"level"`
	DNA         string `yaml:"dna" json:"dna"`
	Stats       Stats  `yaml:"stats" json:"stats"`
}

type QuestKind struct {
	Kind     string        `yaml:"kind" json:"kind"`
	Reward   int           `yaml:"reward" json:"reward"`
	Nodes    int           `yaml:"nodes" json:"nodes"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	Types    []NodeType    `yaml:"types" json:"types"`
}

type Personality struct {
	Color string `yaml:"color" json:"color"`
	Skill Skill  `yaml:"skill" json:"skill"`
}

type ThoughtContext string

const (
	ThoughtIdle        ThoughtContext = "idle"
	ThoughtInteraction ThoughtContext = "interaction"
	ThoughtQuest       ThoughtContext = "quest"
	ThoughtTired       ThoughtContext = "tired"
	ThoughtChat        ThoughtContext = "chat"
)

type ThoughtPools map[ThoughtContext][]string

// Catalog is the static content of the world: what can be bought, which
// quests exist and what companions think about.
type Catalog struct {
	ShopItems     []Item                 `yaml:"shop_items" json:"shop_items"`
	MarketAgents  []MarketAgent          `yaml:"market_agents" json:"market_agents"`
	Quests        []QuestKind            `yaml:"quests" json:"quests"`
	Personalities map[string]Personality `yaml:"personalities" json:"personalities"`
	Thoughts      ThoughtPools           `yaml:"thoughts" json:"-"`
}

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file; an empty path yields the embedded default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for _, it := range c.ShopItems {
		if it.ID == "" || it.Price < 0 {
			return fmt.Errorf("catalog: invalid shop item %q", it.ID)
		}
	}
	for _, m := range c.MarketAgents {
		if m.ID == "" || m.Price < 0 {
			return fmt.Errorf("catalog: invalid market agent %q", m.ID)
		}
	}
	for _, q := range c.Quests {
		if q.Kind == "" || q.Nodes <= 0 || q.Reward < 0 {
			return fmt.Errorf("catalog: invalid quest %q", q.Kind)
		}
	}
	if len(c.Personalities) == 0 {
		return fmt.Errorf("catalog: no personalities")
	}
	return nil
}

func (c *Catalog) ShopItem(id string) (Item, bool) {
	for _, it := range c.ShopItems {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (c *Catalog) MarketAgent(id string) (MarketAgent, bool) {
	for _, m := range c.MarketAgents {
		if m.ID == id {
			return m, true
		}
	}
	return MarketAgent{}, false
}

func (c *Catalog) Quest(kind string) (QuestKind, bool) {
	for _, q := range c.Quests {
		if q.Kind == kind {
			return q, true
		}
	}
	return QuestKind{}, false
}

// cheapestFood is what auto-life buys when the companion runs low on energy.
func (c *Catalog) cheapestFood() (Item, bool) {
	var best Item
	found := false
	for _, it := range c.ShopItems {
		if it.Energy <= 0 {
			continue
		}
		if !found || it.Price < best.Price {
			best = it
			found = true
		}
	}
	return best, found
}
