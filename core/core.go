// Package core defines the identifiers, limits and error values shared by
// every korfield package.
package core

// KNeighbors is the number of topological neighbors a module tracks.
const KNeighbors = 7

// MaxModules is the capacity of a field region. Valid module ids are
// 1..MaxModules-1.
const MaxModules = 256

// MaxTasksPerModule bounds the number of internal tasks of one module.
const MaxTasksPerModule = 8

// FieldCount is the number of components in a field.
const FieldCount = 5

// DefaultDecayTau is the default field decay time constant (100ms).
const DefaultDecayTau TimeUs = 100_000

// HeartbeatPeriod is the default heartbeat period (10ms).
const HeartbeatPeriod TimeUs = 10_000

// HeartbeatTimeoutCount is the number of missed heartbeats after which a
// neighbor is considered dead.
const HeartbeatTimeoutCount = 5

// DefaultVoteTimeout is the default ballot timeout (50ms).
const DefaultVoteTimeout TimeUs = 50_000

// MaxBallots bounds the number of concurrently open ballots.
const MaxBallots = 4

// TimeUs is a monotonic timestamp in microseconds.
type TimeUs = uint64

// ModuleID identifies a module within a cluster. Zero is reserved.
type ModuleID uint16

// InvalidModuleID marks an unpublished or reclaimed slot.
const InvalidModuleID ModuleID = 0

// BroadcastID addresses every module.
const BroadcastID ModuleID = 0xFF

// Valid reports whether id can own a slot in a field region.
func (id ModuleID) Valid() bool {
	return id != InvalidModuleID && int(id) < MaxModules
}

// TaskID identifies a task within one module.
type TaskID uint8

// BallotID identifies a consensus ballot. Zero is reserved.
type BallotID uint16

// InvalidBallotID is returned alongside errors from Propose.
const InvalidBallotID BallotID = 0

// SaturatingSub returns a-b, or 0 when b > a.
func SaturatingSub(a, b TimeUs) TimeUs {
	if b > a {
		return 0
	}

	return a - b
}
