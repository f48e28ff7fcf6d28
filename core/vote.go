package core

import "github.com/sarchlab/korfield/fixed"

// VoteValue is a single vote cast on a ballot.
type VoteValue uint8

// All the vote values.
const (
	VoteAbstain VoteValue = iota
	VoteYes
	VoteNo
	VoteInhibit
)

// VoteResult is the outcome of a ballot.
type VoteResult uint8

// All the vote results.
const (
	VotePending VoteResult = iota
	VoteApproved
	VoteRejected
	VoteTimeout
	VoteCancelled
)

func (r VoteResult) String() string {
	switch r {
	case VotePending:
		return "Pending"
	case VoteApproved:
		return "Approved"
	case VoteRejected:
		return "Rejected"
	case VoteTimeout:
		return "Timeout"
	case VoteCancelled:
		return "Cancelled"
	default:
		return "Invalid"
	}
}

// ProposalType says what a ballot is about.
type ProposalType uint8

// All the proposal types.
const (
	ProposalModeChange ProposalType = iota
	ProposalPowerLimit
	ProposalShutdown
	ProposalReformation
	ProposalCustom
)

func (p ProposalType) String() string {
	switch p {
	case ProposalModeChange:
		return "ModeChange"
	case ProposalPowerLimit:
		return "PowerLimit"
	case ProposalShutdown:
		return "Shutdown"
	case ProposalReformation:
		return "Reformation"
	case ProposalCustom:
		return "Custom"
	default:
		return "Invalid"
	}
}

// Standard consensus thresholds.
var (
	SimpleMajority = fixed.FromBits(0x8000)
	Supermajority  = fixed.FromBits(0xAB85)
	Unanimous      = fixed.One
)
