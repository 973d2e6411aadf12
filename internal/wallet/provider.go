package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoWallet  = errors.New("no wallet capability present")
	ErrNoAccount = errors.New("wallet granted no accounts")

	// ErrUserRejected is returned by interactive providers when the user
	// declines an account request or a signature. KeyedProvider has no
	// user to ask and never returns it.
	ErrUserRejected = errors.New("user rejected the request")
)

// Provider is the wallet capability the session layer consumes: an
// opaque signer plus account/network change notifications. Change
// handlers carry no payload; the receiver re-derives everything.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)

	// Both return a removal func that must be invoked exactly once.
	OnAccountsChanged(handler func()) (remove func())
	OnChainChanged(handler func()) (remove func())
}

// ChainReader reports the active network of the backing endpoint.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// KeyedProvider is a headless Provider backed by a local private key.
// Its account never changes and its network is whatever the backing
// endpoint serves, so registered handlers never fire, but the listener
// bookkeeping still behaves like any other provider's.
type KeyedProvider struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	chain ChainReader

	accountsChanged handlerSet
	chainChanged    handlerSet
}

func NewKeyedProvider(pkHex string, chain ChainReader) (*KeyedProvider, error) {
	h := strings.TrimPrefix(strings.TrimSpace(pkHex), "0x")
	if h == "" {
		return nil, ErrNoWallet
	}
	prv, err := gethcrypto.HexToECDSA(h)
	if err != nil {
		return nil, err
	}
	return &KeyedProvider{
		key:   prv,
		addr:  gethcrypto.PubkeyToAddress(prv.PublicKey),
		chain: chain,
	}, nil
}

func (p *KeyedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.addr}, nil
}

func (p *KeyedProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.chain.ChainID(ctx)
}

func (p *KeyedProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	chainID, err := p.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

func (p *KeyedProvider) OnAccountsChanged(handler func()) func() {
	return p.accountsChanged.add(handler)
}

func (p *KeyedProvider) OnChainChanged(handler func()) func() {
	return p.chainChanged.add(handler)
}

// handlerSet is a removable listener registry.
type handlerSet struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func()
}

func (s *handlerSet) add(h func()) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

func (s *handlerSet) fire() {
	s.mu.Lock()
	hs := make([]func(), 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h()
	}
}
