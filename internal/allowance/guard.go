package allowance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// threshold above which an allowance counts as effectively unlimited.
// Deliberately far below 2^256-1 so wallets that granted a slightly
// smaller maximal approval in the past still pass the check.
var (
	threshold   = mustHexBig(strings.Repeat("f", 58)) // 2^232 - 1
	MaxApproval = mustHexBig(strings.Repeat("f", 64)) // 2^256 - 1
)

func mustHexBig(h string) *big.Int {
	z, ok := new(big.Int).SetString(h, 16)
	if !ok {
		panic("allowance: bad hex constant")
	}
	return z
}

// Sufficient reports whether an allowance strictly exceeds the
// unlimited-in-practice threshold.
func Sufficient(v *big.Int) bool {
	return v != nil && v.Cmp(threshold) > 0
}

type TokenReader interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

type TokenApprover interface {
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
}

// Guard gates state-changing bet actions behind the one-time token
// approval for the betting contract.
type Guard struct {
	spender common.Address
	log     *zap.Logger
}

func NewGuard(spender common.Address, log *zap.Logger) *Guard {
	return &Guard{spender: spender, log: log}
}

func (g *Guard) IsAuthorized(ctx context.Context, token TokenReader, owner common.Address) (bool, error) {
	v, err := token.Allowance(ctx, owner, g.spender)
	if err != nil {
		return false, fmt.Errorf("read allowance: %w", err)
	}
	return Sufficient(v), nil
}

// Authorize submits the maximal approval. The sufficiency check runs
// before any submission, so calling Authorize on an already-authorized
// wallet returns (nil, nil) without spending gas.
func (g *Guard) Authorize(ctx context.Context, token TokenReader, approver TokenApprover, owner common.Address) (*types.Transaction, error) {
	ok, err := g.IsAuthorized(ctx, token, owner)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	tx, err := approver.Approve(ctx, g.spender, new(big.Int).Set(MaxApproval))
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	g.log.Info("approval submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("spender", g.spender.Hex()))
	return tx, nil
}
