package betdata

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Binding wraps the two contract ABIs bound to their fixed deployed
// addresses. Handles come in two distinct flavors: read-only callers,
// constructable against any backend, and signer-bound transactors
// required for state-changing calls. The capability split is a type,
// not a runtime property of one shared handle.
type Binding struct {
	bettingAddr common.Address
	tokenAddr   common.Address

	betABI   abi.ABI
	tokenABI abi.ABI
}

func NewBinding(betting, token common.Address) (*Binding, error) {
	betABI, err := abi.JSON(strings.NewReader(BettingContractABI))
	if err != nil {
		return nil, fmt.Errorf("parse betting ABI: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse token ABI: %w", err)
	}
	return &Binding{
		bettingAddr: betting,
		tokenAddr:   token,
		betABI:      betABI,
		tokenABI:    tokenABI,
	}, nil
}

func (b *Binding) BettingAddress() common.Address { return b.bettingAddr }
func (b *Binding) TokenAddress() common.Address   { return b.tokenAddr }

// BetCaller returns a read-only betting contract handle.
func (b *Binding) BetCaller(backend bind.ContractCaller) *BetCaller {
	return &BetCaller{contract: bind.NewBoundContract(b.bettingAddr, b.betABI, backend, nil, nil)}
}

// BetTransactor returns a signer-bound betting contract handle.
func (b *Binding) BetTransactor(backend bind.ContractTransactor, signer *bind.TransactOpts) *BetTransactor {
	return &BetTransactor{
		contract: bind.NewBoundContract(b.bettingAddr, b.betABI, nil, backend, nil),
		signer:   signer,
	}
}

// TokenCaller returns a read-only token contract handle.
func (b *Binding) TokenCaller(backend bind.ContractCaller) *TokenCaller {
	return &TokenCaller{contract: bind.NewBoundContract(b.tokenAddr, b.tokenABI, backend, nil, nil)}
}

// TokenTransactor returns a signer-bound token contract handle.
func (b *Binding) TokenTransactor(backend bind.ContractTransactor, signer *bind.TransactOpts) *TokenTransactor {
	return &TokenTransactor{
		contract: bind.NewBoundContract(b.tokenAddr, b.tokenABI, nil, backend, nil),
		signer:   signer,
	}
}

type BetCaller struct {
	contract *bind.BoundContract
}

// rawBet matches the get_bet_details tuple component layout.
type rawBet struct {
	State           uint8
	Name            string
	BetAmount       *big.Int
	Initiator       common.Address
	Participant     common.Address
	InitiatorPaid   bool
	ParticipantPaid bool
	InitiatorVote   uint8
	ParticipantVote uint8
}

func (c *BetCaller) GetBetDetails(ctx context.Context, betID *big.Int) (Bet, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "get_bet_details", betID); err != nil {
		return Bet{}, fmt.Errorf("get_bet_details(%s): %w", betID, err)
	}
	raw := *abi.ConvertType(out[0], new(rawBet)).(*rawBet)
	return Bet{
		State:           BetState(raw.State),
		Name:            raw.Name,
		BetAmount:       raw.BetAmount,
		Initiator:       raw.Initiator,
		Participant:     raw.Participant,
		InitiatorPaid:   raw.InitiatorPaid,
		ParticipantPaid: raw.ParticipantPaid,
		InitiatorVote:   BetVote(raw.InitiatorVote),
		ParticipantVote: BetVote(raw.ParticipantVote),
	}, nil
}

func (c *BetCaller) IsRefundWhitelisted(ctx context.Context, addr common.Address) (bool, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isRefundWhitelisted", addr); err != nil {
		return false, fmt.Errorf("isRefundWhitelisted: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

type BetTransactor struct {
	contract *bind.BoundContract
	signer   *bind.TransactOpts
}

func (t *BetTransactor) opts(ctx context.Context) *bind.TransactOpts {
	o := *t.signer
	o.Context = ctx
	return &o
}

func (t *BetTransactor) MakeBet(ctx context.Context, text string, amount *big.Int, target common.Address) (*types.Transaction, error) {
	return t.contract.Transact(t.opts(ctx), "make_bet", text, amount, target)
}

func (t *BetTransactor) AcceptBet(ctx context.Context, betID *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(t.opts(ctx), "accept_bet", betID)
}

func (t *BetTransactor) RejectBet(ctx context.Context, betID *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(t.opts(ctx), "reject_bet", betID)
}

func (t *BetTransactor) Vote(ctx context.Context, betID *big.Int, choice BetVote) (*types.Transaction, error) {
	return t.contract.Transact(t.opts(ctx), "vote", betID, uint8(choice))
}

type TokenCaller struct {
	contract *bind.BoundContract
}

func (c *TokenCaller) Name(ctx context.Context) (string, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "name"); err != nil {
		return "", fmt.Errorf("token name: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (c *TokenCaller) Symbol(ctx context.Context) (string, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "symbol"); err != nil {
		return "", fmt.Errorf("token symbol: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (c *TokenCaller) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("token decimals: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (c *TokenCaller) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *TokenCaller) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

type TokenTransactor struct {
	contract *bind.BoundContract
	signer   *bind.TransactOpts
}

func (t *TokenTransactor) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	o := *t.signer
	o.Context = ctx
	return t.contract.Transact(&o, "approve", spender, amount)
}
