package cluster

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

// RegionHeartbeat infers the liveness of peers from the freshness of their
// region slots. A peer that has not published for one heartbeat period has
// missed a heartbeat. One to four misses make it Suspect, five make it Dead.
type RegionHeartbeat struct {
	region  *field.Region
	period  core.TimeUs
	watched []core.ModuleID
	peers   map[core.ModuleID]*liveness
}

type liveness struct {
	health   core.HealthState
	seen     bool
	lastSeen core.TimeUs
	missed   uint8
}

// NewRegionHeartbeat watches the given peers.
func NewRegionHeartbeat(
	region *field.Region,
	period core.TimeUs,
	watched []core.ModuleID,
) *RegionHeartbeat {
	h := &RegionHeartbeat{
		region:  region,
		period:  period,
		watched: watched,
		peers:   make(map[core.ModuleID]*liveness, len(watched)),
	}

	for _, id := range watched {
		h.peers[id] = &liveness{health: core.HealthUnknown}
	}

	return h
}

// Tick re-evaluates every watched peer and returns how many changed health.
func (h *RegionHeartbeat) Tick(now core.TimeUs) int {
	transitions := 0

	for _, id := range h.watched {
		p := h.peers[id]

		f, err := h.region.Get(id)
		if err == nil && f.Published() && (!p.seen || f.Timestamp > p.lastSeen) {
			p.seen = true
			p.lastSeen = f.Timestamp
		}

		if !p.seen {
			continue
		}

		missed := h.missedPeriods(now, p.lastSeen)
		p.missed = uint8(min(missed, 255))

		next := core.HealthAlive
		switch {
		case missed >= core.HeartbeatTimeoutCount:
			next = core.HealthDead
		case missed > 0:
			next = core.HealthSuspect
		}

		if next != p.health {
			p.health = next
			transitions++
		}
	}

	return transitions
}

func (h *RegionHeartbeat) missedPeriods(now, lastSeen core.TimeUs) uint64 {
	elapsed := core.SaturatingSub(now, lastSeen)
	if elapsed <= h.period {
		return 0
	}

	return (elapsed - 1) / h.period
}

// Health returns the health of a peer. Peers that are not watched are
// Unknown.
func (h *RegionHeartbeat) Health(id core.ModuleID) core.HealthState {
	p, ok := h.peers[id]
	if !ok {
		return core.HealthUnknown
	}

	return p.health
}

// LastSeen returns the timestamp of the latest publish observed from a peer
// and the number of heartbeats it has missed since.
func (h *RegionHeartbeat) LastSeen(id core.ModuleID) (core.TimeUs, uint8) {
	p, ok := h.peers[id]
	if !ok {
		return 0, 0
	}

	return p.lastSeen, p.missed
}
