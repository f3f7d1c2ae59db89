package sim

import "math"

const spawnAttemptsPerNode = 30

// SpawnNodes places count nodes inside the map margin, keeping them at least
// t.NodeMinSpacing apart from each other and from existing. When the map is
// too crowded the farthest candidate found is used instead.
func SpawnNodes(count int, types []NodeType, questID string, existing []MapNode, t Tuning, rng Rand, nextID func() string) []MapNode {
	if count <= 0 {
		return nil
	}
	if len(types) == 0 {
		types = []NodeType{NodeTreasure}
	}
	lo, hi := t.NodeMargin, t.MapSize-t.NodeMargin
	placed := make([]MapNode, 0, count)
	occupied := append([]MapNode(nil), existing...)
	for i := 0; i < count; i++ {
		var best Point
		bestGap := -1.0
		for attempt := 0; attempt < spawnAttemptsPerNode; attempt++ {
			p := Point{X: randBetween(rng, lo, hi), Y: randBetween(rng, lo, hi)}
			gap := nearestGap(p, occupied)
			if gap > bestGap {
				best, bestGap = p, gap
			}
			if gap >= t.NodeMinSpacing {
				break
			}
		}
		n := MapNode{
			ID:      nextID(),
			X:       best.X,
			Y:       best.Y,
			Type:    types[rng.Intn(len(types))],
			QuestID: questID,
		}
		placed = append(placed, n)
		occupied = append(occupied, n)
	}
	return placed
}

func nearestGap(p Point, nodes []MapNode) float64 {
	gap := math.Inf(1)
	for _, n := range nodes {
		if n.Collected {
			continue
		}
		if d := math.Hypot(p.X-n.X, p.Y-n.Y); d < gap {
			gap = d
		}
	}
	return gap
}

func findNode(nodes []MapNode, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// questProgress is the share of a quest's nodes already collected, 0..100.
func questProgress(nodes []MapNode, q *Quest) float64 {
	if q == nil || q.TotalNodes <= 0 {
		return 0
	}
	collected := 0
	for _, n := range nodes {
		if n.QuestID == q.ID && n.Collected {
			collected++
		}
	}
	return math.Min(100, float64(collected)*100/float64(q.TotalNodes))
}

func countAmbient(nodes []MapNode) int {
	n := 0
	for _, node := range nodes {
		if node.QuestID == "" && !node.Collected {
			n++
		}
	}
	return n
}

// pruneCollected drops collected ambient nodes so the map does not grow unbounded.
func pruneCollected(nodes []MapNode) []MapNode {
	out := nodes[:0]
	for _, n := range nodes {
		if n.QuestID == "" && n.Collected {
			continue
		}
		out = append(out, n)
	}
	return out
}
