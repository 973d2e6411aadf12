package betdata

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Creation is one immutable BetCreated log entry. The involved-bet set
// is the deduplicated union of all creations addressed to or from one
// account.
type Creation struct {
	BetID     *big.Int
	Text      string
	Initiator common.Address
	Target    common.Address
	Amount    *big.Int

	TxHash common.Hash
	Block  uint64
}

type betCreatedLog struct {
	BetId     *big.Int
	BetText   string
	Initiator common.Address
	Target    common.Address
	BetAmount *big.Int
}

// DecodeBetCreated unpacks a raw BetCreated log.
func (b *Binding) DecodeBetCreated(lg types.Log) (Creation, error) {
	var ev betCreatedLog
	c := bind.NewBoundContract(b.bettingAddr, b.betABI, nil, nil, nil)
	if err := c.UnpackLog(&ev, "BetCreated", lg); err != nil {
		return Creation{}, fmt.Errorf("unpack BetCreated: %w", err)
	}
	return Creation{
		BetID:     ev.BetId,
		Text:      ev.BetText,
		Initiator: ev.Initiator,
		Target:    ev.Target,
		Amount:    ev.BetAmount,
		TxHash:    lg.TxHash,
		Block:     lg.BlockNumber,
	}, nil
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
}

// CreationsByInitiator is the historical query for bets this account opened.
func (b *Binding) CreationsByInitiator(account common.Address, fromBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{b.bettingAddr},
		Topics: [][]common.Hash{
			{b.betABI.Events["BetCreated"].ID},
			nil,
			{addressTopic(account)},
		},
	}
}

// CreationsByTarget is the historical query for bets this account was
// challenged in.
func (b *Binding) CreationsByTarget(account common.Address, fromBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{b.bettingAddr},
		Topics: [][]common.Hash{
			{b.betABI.Events["BetCreated"].ID},
			nil,
			nil,
			{addressTopic(account)},
		},
	}
}

// Creations is the live query for every new bet. The contract offers no
// "initiator OR target" filter, so relevance is decided by refetching.
func (b *Binding) Creations() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{b.bettingAddr},
		Topics:    [][]common.Hash{{b.betABI.Events["BetCreated"].ID}},
	}
}

// BetChanges returns the four live queries that can alter one bet's
// snapshot: refund, rejection, resolution, vote. Which one fired is
// irrelevant to callers; any of them means "refetch".
func (b *Binding) BetChanges(betID *big.Int) []ethereum.FilterQuery {
	idTopic := common.BigToHash(betID)
	queries := make([]ethereum.FilterQuery, 0, 4)
	for _, name := range []string{"BetRefunded", "BetRejected", "BetResolved", "BetVoted"} {
		queries = append(queries, ethereum.FilterQuery{
			Addresses: []common.Address{b.bettingAddr},
			Topics:    [][]common.Hash{{b.betABI.Events[name].ID}, {idTopic}},
		})
	}
	return queries
}
