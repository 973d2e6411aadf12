package betdata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BetState mirrors the contract's lifecycle enum. Values always come
// from get_bet_details; they are never inferred locally.
type BetState uint8

const (
	StateNotCreated BetState = iota
	StateCreated
	StateStarted
	StateResolvedInitiatorWins
	StateResolvedParticipantWins
	StateCanceled
	StateRefunded
	StateBurned
)

func (s BetState) String() string {
	switch s {
	case StateNotCreated:
		return "not_created"
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateResolvedInitiatorWins:
		return "resolved_initiator_wins"
	case StateResolvedParticipantWins:
		return "resolved_participant_wins"
	case StateCanceled:
		return "canceled"
	case StateRefunded:
		return "refunded"
	case StateBurned:
		return "burned"
	}
	return "unknown"
}

// Describe renders the state the way the bet list shows it.
func (s BetState) Describe() string {
	switch s {
	case StateNotCreated:
		return "smart contract execution is pending"
	case StateCreated:
		return "waiting for party to accept"
	case StateStarted:
		return "the bet is in progress"
	case StateResolvedInitiatorWins, StateResolvedParticipantWins:
		return "the bet has been resolved"
	case StateCanceled:
		return "the bet has been canceled"
	case StateRefunded:
		return "the bet has been refunded"
	case StateBurned:
		return "the bet has been burned"
	}
	return "unknown state"
}

// BetVote mirrors the contract's vote enum.
type BetVote uint8

const (
	VoteNone BetVote = iota
	VoteCancel
	VoteAdmitDefeat
	VoteBurn
)

func (v BetVote) String() string {
	switch v {
	case VoteNone:
		return "none"
	case VoteCancel:
		return "cancel"
	case VoteAdmitDefeat:
		return "admit_defeat"
	case VoteBurn:
		return "burn"
	}
	return "unknown"
}

// Bet is the authoritative snapshot of one wager as reported by the
// contract. Replaced wholesale on every change signal, never patched.
type Bet struct {
	State     BetState
	Name      string
	BetAmount *big.Int

	Initiator   common.Address
	Participant common.Address

	InitiatorPaid   bool
	ParticipantPaid bool

	InitiatorVote   BetVote
	ParticipantVote BetVote
}
