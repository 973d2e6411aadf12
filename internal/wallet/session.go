package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/srikavin/PolyEscrow/internal/allowance"
	"github.com/srikavin/PolyEscrow/internal/betdata"
	"github.com/srikavin/PolyEscrow/internal/config"
)

// TokenDetails is the wager currency's immutable metadata, fetched once
// per session.
type TokenDetails struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Session is one authenticated binding between a signer and the two
// contracts. Immutable once built: an account or network change produces
// a brand-new Session, never a mutation. The Generation tag lets callers
// detect and drop results that resolve after a replacement.
type Session struct {
	Generation uint64

	Account common.Address
	ChainID *big.Int

	NetworkName     string // wallet's active network
	ContractNetwork string // network the contracts are deployed on
	NetworkMismatch bool   // degraded, displayable; not a failure

	Bets    *betdata.BetCaller
	BetsTx  *betdata.BetTransactor
	Token   *betdata.TokenCaller
	TokenTx *betdata.TokenTransactor

	TokenInfo    TokenDetails
	TokenBalance *big.Int
	Authorized   bool
}

// Manager owns the single live session. Only the manager replaces it;
// everyone else treats a Session as read-only input per call.
type Manager struct {
	cfg      config.Settings
	binding  *betdata.Binding
	provider Provider
	read     bind.ContractCaller
	write    bind.ContractTransactor
	log      *zap.Logger

	onReplace func(*Session)
	onRestart func()

	mu             sync.Mutex
	gen            uint64
	current        *Session
	removeAccounts func()
	removeChain    func()
}

// NewManager wires a session manager. read may point at a different
// endpoint than the signer path (e.g. a higher-throughput indexer); the
// two are equivalent views of the same contract state.
func NewManager(cfg config.Settings, binding *betdata.Binding, provider Provider, read bind.ContractCaller, write bind.ContractTransactor, log *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		binding:  binding,
		provider: provider,
		read:     read,
		write:    write,
		log:      log,
	}
}

// OnSessionReplaced registers the callback invoked with the fresh
// session after an account change forced a reconnect.
func (m *Manager) OnSessionReplaced(fn func(*Session)) { m.onReplace = fn }

// OnNetworkChanged registers the callback invoked after a network change
// tore the session down. Nothing survives a network change: bindings,
// subscriptions and caches are all network-specific, so the process
// restarts from a clean state.
func (m *Manager) OnNetworkChanged(fn func()) { m.onRestart = fn }

// Connect negotiates account access and builds a new session, replacing
// the previous one. The first granted account becomes the session
// account. A wallet on the wrong network still yields a session, flagged
// with NetworkMismatch so the user can be prompted to switch.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	if m.provider == nil {
		return nil, ErrNoWallet
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccount
	}
	account := accounts[0]

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("active network: %w", err)
	}
	signer, err := m.provider.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	s := &Session{
		Account:         account,
		ChainID:         chainID,
		NetworkName:     networkName(chainID),
		ContractNetwork: m.cfg.NetworkName,
		NetworkMismatch: chainID.Cmp(m.cfg.ChainID) != 0,
		Bets:            m.binding.BetCaller(m.read),
		BetsTx:          m.binding.BetTransactor(m.write, signer),
		Token:           m.binding.TokenCaller(m.read),
		TokenTx:         m.binding.TokenTransactor(m.write, signer),
	}

	if s.TokenInfo.Name, err = s.Token.Name(ctx); err != nil {
		return nil, fmt.Errorf("token metadata: %w", err)
	}
	if s.TokenInfo.Symbol, err = s.Token.Symbol(ctx); err != nil {
		return nil, fmt.Errorf("token metadata: %w", err)
	}
	if s.TokenInfo.Decimals, err = s.Token.Decimals(ctx); err != nil {
		return nil, fmt.Errorf("token metadata: %w", err)
	}
	if s.TokenBalance, err = s.Token.BalanceOf(ctx, account); err != nil {
		return nil, fmt.Errorf("token balance: %w", err)
	}

	granted, err := s.Token.Allowance(ctx, account, m.binding.BettingAddress())
	if err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	s.Authorized = allowance.Sufficient(granted)

	m.mu.Lock()
	m.gen++
	s.Generation = m.gen
	m.current = s
	m.mu.Unlock()

	m.installListeners()

	if s.NetworkMismatch {
		m.log.Warn("wallet network differs from contract deployment",
			zap.String("wallet", s.NetworkName),
			zap.String("contract", s.ContractNetwork))
	}
	m.log.Info("session established",
		zap.String("account", account.Hex()),
		zap.String("network", s.NetworkName),
		zap.Uint64("generation", s.Generation),
		zap.Bool("authorized", s.Authorized))
	return s, nil
}

// Current returns the live session, or nil before the first Connect.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsCurrent reports whether s is still the live session. Results of
// calls issued against a stale session must be discarded, not applied.
func (m *Manager) IsCurrent(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && s != nil && m.current.Generation == s.Generation
}

// Close removes the wallet listeners and drops the session.
func (m *Manager) Close() {
	m.mu.Lock()
	removeA, removeC := m.removeAccounts, m.removeChain
	m.removeAccounts, m.removeChain = nil, nil
	m.current = nil
	m.mu.Unlock()
	if removeA != nil {
		removeA()
	}
	if removeC != nil {
		removeC()
	}
}

// installListeners keeps exactly one accountsChanged and one
// chainChanged listener registered: the previous pair is removed before
// the new session's pair is installed.
func (m *Manager) installListeners() {
	m.mu.Lock()
	removeA, removeC := m.removeAccounts, m.removeChain
	m.mu.Unlock()
	if removeA != nil {
		removeA()
	}
	if removeC != nil {
		removeC()
	}

	ra := m.provider.OnAccountsChanged(m.handleAccountsChanged)
	rc := m.provider.OnChainChanged(m.handleChainChanged)

	m.mu.Lock()
	m.removeAccounts, m.removeChain = ra, rc
	m.mu.Unlock()
}

func (m *Manager) handleAccountsChanged() {
	m.log.Info("accounts changed, re-deriving session")
	s, err := m.Connect(context.Background())
	if err != nil {
		m.log.Error("reconnect after account change failed", zap.Error(err))
		return
	}
	if m.onReplace != nil {
		m.onReplace(s)
	}
}

func (m *Manager) handleChainChanged() {
	m.log.Warn("network changed, tearing session down")
	m.Close()
	if m.onRestart != nil {
		m.onRestart()
	}
}

var chainNames = map[uint64]string{
	1:        "mainnet",
	5:        "goerli",
	11155111: "sepolia",
	137:      "matic",
	80001:    "maticmum",
}

func networkName(chainID *big.Int) string {
	if chainID != nil && chainID.IsUint64() {
		if name, ok := chainNames[chainID.Uint64()]; ok {
			return name
		}
	}
	return fmt.Sprintf("chain-%s", chainID)
}
