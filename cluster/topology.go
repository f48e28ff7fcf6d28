package cluster

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

// StaticTopology picks the k nearest peers by grid position once, at build
// time. Peers reported dead are dropped and admitted back when their slot
// becomes fresh again.
type StaticTopology struct {
	self       core.ModuleID
	candidates []core.ModuleID
	distance   map[core.ModuleID]int32
	members    []core.ModuleID
	lost       map[core.ModuleID]bool
	heartbeat  *RegionHeartbeat
	admitted   bool
}

// NewStaticTopology selects the core.KNeighbors peers closest to pos. Ties
// are broken by module id.
func NewStaticTopology(
	self core.ModuleID,
	pos core.Position,
	peers map[core.ModuleID]core.Position,
) *StaticTopology {
	t := &StaticTopology{
		self:     self,
		distance: make(map[core.ModuleID]int32),
		lost:     make(map[core.ModuleID]bool),
	}

	for id, p := range peers {
		if id == self {
			continue
		}

		t.candidates = append(t.candidates, id)
		t.distance[id] = pos.DistanceSquared(p)
	}

	sort.Slice(t.candidates, func(i, j int) bool {
		a, b := t.candidates[i], t.candidates[j]
		if t.distance[a] != t.distance[b] {
			return t.distance[a] < t.distance[b]
		}

		return a < b
	})

	if len(t.candidates) > core.KNeighbors {
		t.candidates = t.candidates[:core.KNeighbors]
	}

	for id := range t.distance {
		if !slices.Contains(t.candidates, id) {
			delete(t.distance, id)
		}
	}

	return t
}

// Candidates returns the selected peers, closest first.
func (t *StaticTopology) Candidates() []core.ModuleID {
	return t.candidates
}

// UseHeartbeat sets where peer health comes from.
func (t *StaticTopology) UseHeartbeat(h *RegionHeartbeat) {
	t.heartbeat = h
}

func (t *StaticTopology) health(id core.ModuleID) core.HealthState {
	if t.heartbeat == nil {
		return core.HealthUnknown
	}

	return t.heartbeat.Health(id)
}

// Neighbors returns the admitted peers, closest first, with their current
// health.
func (t *StaticTopology) Neighbors() []field.Neighbor {
	neighbors := make([]field.Neighbor, 0, len(t.members))

	for _, id := range t.members {
		n := field.NewNeighbor(id)
		n.Health = t.health(id)
		n.LogicalDistance = t.distance[id]

		if t.heartbeat != nil {
			n.LastSeen, n.MissedHeartbeats = t.heartbeat.LastSeen(id)
		}

		neighbors = append(neighbors, n)
	}

	return neighbors
}

// NeighborCount returns the number of admitted peers that are Alive or
// Suspect.
func (t *StaticTopology) NeighborCount() int {
	count := 0

	for _, id := range t.members {
		h := t.health(id)
		if h == core.HealthAlive || h == core.HealthSuspect {
			count++
		}
	}

	return count
}

// Tick admits every candidate on the first call and re-admits lost peers
// that are Alive again.
func (t *StaticTopology) Tick(_ core.TimeUs) bool {
	if !t.admitted {
		t.admitted = true
		t.members = slices.Clone(t.candidates)

		return len(t.members) > 0
	}

	changed := false

	for _, id := range t.candidates {
		if !t.lost[id] || t.health(id) != core.HealthAlive {
			continue
		}

		delete(t.lost, id)
		changed = true
	}

	if changed {
		t.members = t.members[:0]
		for _, id := range t.candidates {
			if !t.lost[id] {
				t.members = append(t.members, id)
			}
		}
	}

	return changed
}

// OnNeighborLost drops a peer until it is seen alive again.
func (t *StaticTopology) OnNeighborLost(id core.ModuleID) error {
	i := slices.Index(t.members, id)
	if i < 0 {
		return fmt.Errorf("module %d is not a neighbor of %d: %w",
			id, t.self, core.ErrNotFound)
	}

	t.members = slices.Delete(t.members, i, i+1)
	t.lost[id] = true

	return nil
}
