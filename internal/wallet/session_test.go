package wallet

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/srikavin/PolyEscrow/internal/betdata"
	"github.com/srikavin/PolyEscrow/internal/config"
)

var (
	accountA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	accountB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testSettings() config.Settings {
	return config.Settings{
		ChainID:         big.NewInt(80001),
		NetworkName:     "maticmum",
		BettingContract: common.HexToAddress(config.DefaultBettingContract),
		TokenContract:   common.HexToAddress(config.DefaultTokenContract),
	}
}

type fakeProvider struct {
	accounts []common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey

	accountsChanged handlerSet
	chainChanged    handlerSet
}

func newFakeProvider(t *testing.T, accounts ...common.Address) *fakeProvider {
	t.Helper()
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &fakeProvider{accounts: accounts, chainID: big.NewInt(80001), key: key}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.chainID, nil
}

func (p *fakeProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
}

func (p *fakeProvider) OnAccountsChanged(h func()) func() { return p.accountsChanged.add(h) }
func (p *fakeProvider) OnChainChanged(h func()) func()    { return p.chainChanged.add(h) }

func countHandlers(s *handlerSet) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// fakeCaller answers token reads by ABI selector with packed returns.
type fakeCaller struct {
	tokenABI  abi.ABI
	allowance *big.Int
	balance   *big.Int
}

func newFakeCaller(t *testing.T) *fakeCaller {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(betdata.ERC20ABI))
	if err != nil {
		t.Fatalf("parse ERC20 ABI: %v", err)
	}
	return &fakeCaller{tokenABI: parsed, allowance: big.NewInt(0), balance: big.NewInt(125)}
}

func (f *fakeCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, fmt.Errorf("short calldata")
	}
	sel := call.Data[:4]
	method := func(name string) abi.Method { return f.tokenABI.Methods[name] }
	switch {
	case bytes.Equal(sel, method("name").ID):
		return method("name").Outputs.Pack("Escrow Token")
	case bytes.Equal(sel, method("symbol").ID):
		return method("symbol").Outputs.Pack("ESC")
	case bytes.Equal(sel, method("decimals").ID):
		return method("decimals").Outputs.Pack(uint8(18))
	case bytes.Equal(sel, method("balanceOf").ID):
		return method("balanceOf").Outputs.Pack(f.balance)
	case bytes.Equal(sel, method("allowance").ID):
		return method("allowance").Outputs.Pack(f.allowance)
	}
	return nil, fmt.Errorf("unexpected call %x", sel)
}

func newTestManager(t *testing.T, p Provider) (*Manager, *fakeCaller) {
	t.Helper()
	binding, err := betdata.NewBinding(
		common.HexToAddress(config.DefaultBettingContract),
		common.HexToAddress(config.DefaultTokenContract))
	if err != nil {
		t.Fatalf("binding: %v", err)
	}
	caller := newFakeCaller(t)
	return NewManager(testSettings(), binding, p, caller, nil, zap.NewNop()), caller
}

func TestConnectSelectsFirstAccount(t *testing.T) {
	p := newFakeProvider(t, accountA, accountB)
	m, _ := newTestManager(t, p)

	s, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s.Account != accountA {
		t.Fatalf("expected account %s, got %s", accountA.Hex(), s.Account.Hex())
	}
	if s.TokenInfo.Name != "Escrow Token" || s.TokenInfo.Symbol != "ESC" || s.TokenInfo.Decimals != 18 {
		t.Fatalf("token metadata not fetched: %+v", s.TokenInfo)
	}
	if s.TokenBalance.Int64() != 125 {
		t.Fatalf("token balance not fetched: %s", s.TokenBalance)
	}
	if s.Authorized {
		t.Fatal("zero allowance must not count as authorized")
	}
	if s.NetworkMismatch {
		t.Fatal("matching networks flagged as mismatch")
	}
}

func TestConnectNoAccounts(t *testing.T) {
	p := newFakeProvider(t)
	m, _ := newTestManager(t, p)

	if _, err := m.Connect(context.Background()); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}
}

// rejectingProvider behaves like an interactive wallet whose user
// declined the account request.
type rejectingProvider struct {
	*fakeProvider
}

func (p *rejectingProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return nil, ErrUserRejected
}

func TestConnectSurfacesUserRejection(t *testing.T) {
	p := &rejectingProvider{newFakeProvider(t, accountA)}
	m, _ := newTestManager(t, p)

	_, err := m.Connect(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
	if m.Current() != nil {
		t.Fatal("a rejected connect must not leave a session behind")
	}
}

func TestConnectNoProvider(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if _, err := m.Connect(context.Background()); !errors.Is(err, ErrNoWallet) {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
}

func TestConnectNetworkMismatchIsDegradedNotFatal(t *testing.T) {
	p := newFakeProvider(t, accountA)
	p.chainID = big.NewInt(1)
	m, _ := newTestManager(t, p)

	s, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !s.NetworkMismatch {
		t.Fatal("expected a network mismatch flag")
	}
	if s.NetworkName != "mainnet" || s.ContractNetwork != "maticmum" {
		t.Fatalf("mismatch names wrong: wallet=%s contract=%s", s.NetworkName, s.ContractNetwork)
	}
}

func TestAuthorizedFlagFollowsAllowance(t *testing.T) {
	p := newFakeProvider(t, accountA)
	m, caller := newTestManager(t, p)
	caller.allowance = new(big.Int).Lsh(big.NewInt(1), 240)

	s, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !s.Authorized {
		t.Fatal("large allowance must count as authorized")
	}
}

func TestSessionReplacementInvalidatesPrevious(t *testing.T) {
	p := newFakeProvider(t, accountA)
	m, _ := newTestManager(t, p)

	s1, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	s2, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	if s1.Generation >= s2.Generation {
		t.Fatalf("generations not monotonic: %d then %d", s1.Generation, s2.Generation)
	}
	if m.IsCurrent(s1) {
		t.Fatal("stale session still reported current; its results would corrupt the new view")
	}
	if !m.IsCurrent(s2) {
		t.Fatal("fresh session not reported current")
	}
}

func TestExactlyOneListenerPairAcrossReconnects(t *testing.T) {
	p := newFakeProvider(t, accountA)
	m, _ := newTestManager(t, p)

	for i := 0; i < 3; i++ {
		if _, err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect %d: %v", i, err)
		}
	}
	if n := countHandlers(&p.accountsChanged); n != 1 {
		t.Fatalf("expected 1 accountsChanged listener, got %d", n)
	}
	if n := countHandlers(&p.chainChanged); n != 1 {
		t.Fatalf("expected 1 chainChanged listener, got %d", n)
	}

	m.Close()
	if n := countHandlers(&p.accountsChanged) + countHandlers(&p.chainChanged); n != 0 {
		t.Fatalf("expected no listeners after Close, got %d", n)
	}
}

func TestAccountChangeReplacesSessionEndToEnd(t *testing.T) {
	p := newFakeProvider(t, accountA)
	m, _ := newTestManager(t, p)

	var replaced *Session
	m.OnSessionReplaced(func(s *Session) { replaced = s })

	s1, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	p.accounts = []common.Address{accountB}
	p.accountsChanged.fire()

	if replaced == nil {
		t.Fatal("account change did not produce a replacement session")
	}
	if replaced.Account != accountB {
		t.Fatalf("replacement bound to %s, want %s", replaced.Account.Hex(), accountB.Hex())
	}
	if m.IsCurrent(s1) {
		t.Fatal("old session survived the account change")
	}
}

func TestChainChangeTearsEverythingDown(t *testing.T) {
	p := newFakeProvider(t, accountA)
	m, _ := newTestManager(t, p)

	restarted := false
	m.OnNetworkChanged(func() { restarted = true })

	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	p.chainChanged.fire()

	if !restarted {
		t.Fatal("network change did not request a restart")
	}
	if m.Current() != nil {
		t.Fatal("session survived the network change")
	}
	if n := countHandlers(&p.accountsChanged) + countHandlers(&p.chainChanged); n != 0 {
		t.Fatalf("listeners survived the network change: %d", n)
	}
}
