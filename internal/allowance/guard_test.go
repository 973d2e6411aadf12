package allowance

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	owner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender = common.HexToAddress("0xca3f697B9A1eF4fC2C6ecEFD62239A4b2Df8F925")
)

// fakeToken mimics the contract effect of approve: the allowance
// becomes whatever was approved.
type fakeToken struct {
	allowance  *big.Int
	approvals  int
	lastAmount *big.Int
}

func (f *fakeToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	f.approvals++
	f.lastAmount = new(big.Int).Set(amount)
	f.allowance = new(big.Int).Set(amount)
	return types.NewTx(&types.LegacyTx{Nonce: uint64(f.approvals)}), nil
}

func limit(bits uint) *big.Int {
	// 2^bits - 1
	v := new(big.Int).Lsh(big.NewInt(1), bits)
	return v.Sub(v, big.NewInt(1))
}

func TestIsAuthorizedThreshold(t *testing.T) {
	g := NewGuard(spender, zap.NewNop())
	cases := []struct {
		name      string
		allowance *big.Int
		want      bool
	}{
		{"zero", big.NewInt(0), false},
		{"small nonzero", big.NewInt(1000), false},
		{"exactly at threshold", limit(232), false},
		{"just above threshold", new(big.Int).Add(limit(232), big.NewInt(1)), true},
		{"maximal", limit(256), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := &fakeToken{allowance: tc.allowance}
			got, err := g.IsAuthorized(context.Background(), token, owner)
			if err != nil {
				t.Fatalf("IsAuthorized: %v", err)
			}
			if got != tc.want {
				t.Fatalf("allowance %s: got %v, want %v", tc.allowance, got, tc.want)
			}
		})
	}
}

func TestAuthorizeSubmitsMaximalApproval(t *testing.T) {
	g := NewGuard(spender, zap.NewNop())
	token := &fakeToken{allowance: big.NewInt(0)}

	tx, err := g.Authorize(context.Background(), token, token, owner)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if tx == nil {
		t.Fatal("expected an approval transaction")
	}
	if token.approvals != 1 {
		t.Fatalf("expected 1 approval, got %d", token.approvals)
	}
	if token.lastAmount.Cmp(limit(256)) != 0 {
		t.Fatalf("expected maximal approval amount, got %s", token.lastAmount)
	}

	ok, err := g.IsAuthorized(context.Background(), token, owner)
	if err != nil {
		t.Fatalf("IsAuthorized: %v", err)
	}
	if !ok {
		t.Fatal("expected authorized after confirmed approval")
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	g := NewGuard(spender, zap.NewNop())
	token := &fakeToken{allowance: big.NewInt(0)}

	if _, err := g.Authorize(context.Background(), token, token, owner); err != nil {
		t.Fatalf("first Authorize: %v", err)
	}
	tx, err := g.Authorize(context.Background(), token, token, owner)
	if err != nil {
		t.Fatalf("second Authorize: %v", err)
	}
	if tx != nil {
		t.Fatal("second Authorize submitted a redundant transaction")
	}
	if token.approvals != 1 {
		t.Fatalf("expected exactly 1 on-chain approval, got %d", token.approvals)
	}
}

func TestAuthorizeNoopWhenAlreadySufficient(t *testing.T) {
	g := NewGuard(spender, zap.NewNop())
	token := &fakeToken{allowance: limit(240)}

	tx, err := g.Authorize(context.Background(), token, token, owner)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if tx != nil || token.approvals != 0 {
		t.Fatal("Authorize must not submit when the allowance is already sufficient")
	}
}
