// Package betsync keeps an off-chain view of "bets involving this
// account" consistent with on-chain event history. Historical state
// comes from two merged log scans; freshness comes from narrow live
// subscriptions whose only job is to say "something changed, refetch".
package betsync

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/srikavin/PolyEscrow/internal/betdata"
)

// HistoryReader answers bounded historical log queries.
type HistoryReader interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// LogSubscriber establishes live log subscriptions.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

type Synchronizer struct {
	binding       *betdata.Binding
	history       HistoryReader
	live          LogSubscriber
	deployedBlock uint64
	log           *zap.Logger
}

func New(binding *betdata.Binding, history HistoryReader, live LogSubscriber, deployedBlock uint64, log *zap.Logger) *Synchronizer {
	return &Synchronizer{
		binding:       binding,
		history:       history,
		live:          live,
		deployedBlock: deployedBlock,
		log:           log,
	}
}

// ListInvolvedBets scans creation events from the contract's deployment
// block (never genesis) in two ranges, as initiator and as target, then
// merges them into one sequence ordered descending by bet id. A fresh
// call re-scans; results are not cached here.
func (s *Synchronizer) ListInvolvedBets(ctx context.Context, account common.Address) ([]betdata.Creation, error) {
	asInitiator, err := s.history.FilterLogs(ctx, s.binding.CreationsByInitiator(account, s.deployedBlock))
	if err != nil {
		return nil, fmt.Errorf("initiator scan: %w", err)
	}
	asTarget, err := s.history.FilterLogs(ctx, s.binding.CreationsByTarget(account, s.deployedBlock))
	if err != nil {
		return nil, fmt.Errorf("target scan: %w", err)
	}

	// The contract is understood to forbid self-bets, so the two ranges
	// should never hold the same id. Dedup anyway in case a future
	// contract version allows it.
	seen := make(map[string]struct{}, len(asInitiator)+len(asTarget))
	out := make([]betdata.Creation, 0, len(asInitiator)+len(asTarget))
	for _, lg := range append(asInitiator, asTarget...) {
		ev, err := s.binding.DecodeBetCreated(lg)
		if err != nil {
			s.log.Warn("skipping undecodable BetCreated log",
				zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}
		key := ev.BetID.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BetID.Cmp(out[j].BetID) > 0 })
	return out, nil
}

// WatchBet subscribes to the four change events scoped to one bet id and
// invokes onChange for any of them, without interpreting which fired.
// The callback carries no payload: delivery order across event kinds is
// not guaranteed, so the caller must refetch the authoritative snapshot
// rather than apply a delta. The returned cancel releases all four
// subscriptions; skipping it leaks them for the session's lifetime.
func (s *Synchronizer) WatchBet(ctx context.Context, betID *big.Int, onChange func()) (func(), error) {
	return s.watch(ctx, s.binding.BetChanges(betID), onChange)
}

// WatchInvolvedCreations subscribes to every BetCreated regardless of
// account; the contract cannot filter "initiator OR target" server-side.
// Callers refetch the full involved set on each signal instead of
// filtering client-side.
func (s *Synchronizer) WatchInvolvedCreations(ctx context.Context, onNew func()) (func(), error) {
	return s.watch(ctx, []ethereum.FilterQuery{s.binding.Creations()}, onNew)
}

func (s *Synchronizer) watch(ctx context.Context, queries []ethereum.FilterQuery, signal func()) (func(), error) {
	w := &watch{log: s.log}
	for _, q := range queries {
		ch := make(chan types.Log, 8)
		sub, err := s.live.SubscribeFilterLogs(ctx, q, ch)
		if err != nil {
			w.cancel()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
		w.subs = append(w.subs, sub)
		go w.pump(sub, ch, signal)
	}
	return w.cancel, nil
}

type watch struct {
	log  *zap.Logger
	once sync.Once
	subs []ethereum.Subscription

	mu       sync.Mutex
	canceled bool
}

func (w *watch) pump(sub ethereum.Subscription, ch <-chan types.Log, signal func()) {
	for {
		select {
		case err := <-sub.Err():
			// Closed on Unsubscribe; non-nil on transport failure.
			if err != nil {
				w.log.Warn("log subscription ended", zap.Error(err))
			}
			return
		case <-ch:
			// Holding the lock through the callback guarantees nothing
			// fires after cancel returns.
			w.mu.Lock()
			if !w.canceled {
				signal()
			}
			w.mu.Unlock()
		}
	}
}

func (w *watch) cancel() {
	w.once.Do(func() {
		w.mu.Lock()
		w.canceled = true
		w.mu.Unlock()
		for _, sub := range w.subs {
			sub.Unsubscribe()
		}
	})
}
