// Package txtrack follows a submitted state-changing call from pending
// hash to finality. Finality means the receipt has aged by a fixed
// confirmation depth; shallower and a reorg could still unwind it,
// deeper and the user waits for nothing.
package txtrack

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ErrReverted marks a transaction that was included but failed on-chain.
var ErrReverted = errors.New("transaction reverted on-chain")

type Backend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Pending is a submitted, not-yet-final call. It must not be treated as
// having changed on-chain state until Wait returns.
type Pending struct {
	Hash        common.Hash
	SubmittedAt time.Time
}

type Tracker struct {
	backend       Backend
	confirmations uint64
	poll          time.Duration
	log           *zap.Logger
}

func New(backend Backend, confirmations uint64, log *zap.Logger) *Tracker {
	return &Tracker{
		backend:       backend,
		confirmations: confirmations,
		poll:          2 * time.Second,
		log:           log,
	}
}

// Submit runs a signed call and surfaces the pending hash immediately,
// before any confirmation, so callers can show an explorer link. A
// rejection by the signer produces no hash and simply returns the error;
// retrying is always an explicit user action.
func (t *Tracker) Submit(ctx context.Context, send func(context.Context) (*types.Transaction, error)) (*Pending, error) {
	tx, err := send(ctx)
	if err != nil {
		return nil, err
	}
	p := &Pending{Hash: tx.Hash(), SubmittedAt: time.Now()}
	t.log.Info("transaction submitted", zap.String("tx", p.Hash.Hex()))
	return p, nil
}

// Wait blocks until the transaction is final: included, not reverted,
// and aged by the confirmation depth. The caller owns refetching any
// state the transaction could have changed; the tracker knows nothing
// about what that is.
func (t *Tracker) Wait(ctx context.Context, p *Pending) (*types.Receipt, error) {
	receipt, err := t.waitIncluded(ctx, p.Hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("tx %s: %w", p.Hash.Hex(), ErrReverted)
	}

	target := receipt.BlockNumber.Uint64() + t.confirmations
	for {
		head, err := t.backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("head poll: %w", err)
		}
		if head.Number.Uint64() >= target {
			t.log.Info("transaction confirmed",
				zap.String("tx", p.Hash.Hex()),
				zap.Uint64("depth", t.confirmations))
			return receipt, nil
		}
		if err := t.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

func (t *Tracker) waitIncluded(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	for {
		r, err := t.backend.TransactionReceipt(ctx, hash)
		if err == nil && r != nil {
			return r, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt poll: %w", err)
		}
		if err := t.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

func (t *Tracker) sleep(ctx context.Context) error {
	timer := time.NewTimer(t.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
