package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/srikavin/PolyEscrow/internal/betdata"
	"github.com/srikavin/PolyEscrow/internal/txtrack"
)

func (a *app) list(ctx context.Context) error {
	creations, err := a.historySync().ListInvolvedBets(ctx, a.session.Account)
	if err != nil {
		return fmt.Errorf("scan involved bets: %w", err)
	}
	if len(creations) == 0 {
		fmt.Println("no bets involve this wallet")
		return nil
	}
	for _, c := range creations {
		a.printCreation(ctx, c)
	}
	return nil
}

// printCreation loads and renders one bet. A failed snapshot read is a
// scoped error on that row; it never takes down the rest of the list.
func (a *app) printCreation(ctx context.Context, c betdata.Creation) {
	bet, err := a.session.Bets.GetBetDetails(ctx, c.BetID)
	if err != nil {
		fmt.Printf("bet %s: failed to load: %v\n", c.BetID, err)
		return
	}
	fmt.Printf("bet %s: %q for %s %s\n", c.BetID, bet.Name,
		formatUnits(bet.BetAmount, a.session.TokenInfo.Decimals), a.session.TokenInfo.Symbol)
	fmt.Printf("  %s challenged %s (block %d, tx %s)\n",
		trimAddress(bet.Initiator), trimAddress(bet.Participant), c.Block, trimHash(c.TxHash))
	fmt.Printf("  %s\n", bet.State.Describe())
}

func (a *app) details(ctx context.Context, args []string) error {
	betID, err := parseBetID(args)
	if err != nil {
		return err
	}
	bet, err := a.session.Bets.GetBetDetails(ctx, betID)
	if err != nil {
		return err
	}
	s := a.session
	fmt.Printf("bet %s: %q\n", betID, bet.Name)
	fmt.Printf("  state       : %s (%s)\n", bet.State, bet.State.Describe())
	fmt.Printf("  amount      : %s %s\n", formatUnits(bet.BetAmount, s.TokenInfo.Decimals), s.TokenInfo.Symbol)
	fmt.Printf("  initiator   : %s (paid=%v, vote=%s)\n", bet.Initiator.Hex(), bet.InitiatorPaid, bet.InitiatorVote)
	fmt.Printf("  participant : %s (paid=%v, vote=%s)\n", bet.Participant.Hex(), bet.ParticipantPaid, bet.ParticipantVote)
	if whitelisted, err := s.Bets.IsRefundWhitelisted(ctx, s.Account); err == nil {
		fmt.Printf("  refund whitelisted (this wallet): %v\n", whitelisted)
	}
	return nil
}

func (a *app) makeBet(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: make <target> <amount> <reason...>")
	}
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("bad target address %q", args[0])
	}
	target := common.HexToAddress(args[0])
	amount, err := parseUnits(args[1], a.session.TokenInfo.Decimals)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", args[1], err)
	}
	reason := strings.Join(args[2:], " ")

	if err := a.requireAuthorized(ctx); err != nil {
		return err
	}
	return a.submitAndWait(ctx, func(ctx context.Context) (*types.Transaction, error) {
		return a.session.BetsTx.MakeBet(ctx, reason, amount, target)
	}, func(ctx context.Context) {
		// The new bet only shows up via its creation event.
		_ = a.list(ctx)
	})
}

func (a *app) accept(ctx context.Context, args []string) error {
	betID, err := parseBetID(args)
	if err != nil {
		return err
	}
	if err := a.requireAuthorized(ctx); err != nil {
		return err
	}
	return a.submitAndWait(ctx, func(ctx context.Context) (*types.Transaction, error) {
		return a.session.BetsTx.AcceptBet(ctx, betID)
	}, a.refetchBet(betID))
}

func (a *app) reject(ctx context.Context, args []string) error {
	betID, err := parseBetID(args)
	if err != nil {
		return err
	}
	return a.submitAndWait(ctx, func(ctx context.Context) (*types.Transaction, error) {
		return a.session.BetsTx.RejectBet(ctx, betID)
	}, a.refetchBet(betID))
}

func (a *app) vote(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: vote <bet-id> <cancel|defeat|burn>")
	}
	betID, err := parseBetID(args[:1])
	if err != nil {
		return err
	}
	var choice betdata.BetVote
	switch args[1] {
	case "cancel":
		choice = betdata.VoteCancel
	case "defeat":
		choice = betdata.VoteAdmitDefeat
	case "burn":
		choice = betdata.VoteBurn
	default:
		return fmt.Errorf("unknown vote %q", args[1])
	}
	return a.submitAndWait(ctx, func(ctx context.Context) (*types.Transaction, error) {
		return a.session.BetsTx.Vote(ctx, betID, choice)
	}, a.refetchBet(betID))
}

func (a *app) authorize(ctx context.Context) error {
	s := a.session
	tx, err := a.guard.Authorize(ctx, s.Token, s.TokenTx, s.Account)
	if err != nil {
		return err
	}
	if tx == nil {
		fmt.Println("already authorized; nothing submitted")
		return nil
	}
	p := &txtrack.Pending{Hash: tx.Hash()}
	a.printPending(p)
	if _, err := a.tracker.Wait(ctx, p); err != nil {
		return err
	}
	ok, err := a.guard.IsAuthorized(ctx, s.Token, s.Account)
	if err != nil {
		return err
	}
	fmt.Println("confirmed; authorized =", ok)
	return nil
}

// requireAuthorized enforces the allowance gate in front of the actions
// that move tokens. Authorization is one-time per wallet; once granted
// this check costs a single eth_call.
func (a *app) requireAuthorized(ctx context.Context) error {
	ok, err := a.guard.IsAuthorized(ctx, a.session.Token, a.session.Account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("token allowance not granted; run `betcli authorize` first")
	}
	return nil
}

// submitAndWait runs one state-changing call through the tracker and,
// once final, triggers the caller-supplied refetch of whatever the
// transaction could have changed.
func (a *app) submitAndWait(ctx context.Context, send func(context.Context) (*types.Transaction, error), refetch func(context.Context)) error {
	p, err := a.tracker.Submit(ctx, send)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	a.printPending(p)
	if _, err := a.tracker.Wait(ctx, p); err != nil {
		return err
	}
	fmt.Println("confirmed")
	if refetch != nil {
		refetch(ctx)
	}
	return nil
}

func (a *app) refetchBet(betID *big.Int) func(context.Context) {
	return func(ctx context.Context) {
		bet, err := a.session.Bets.GetBetDetails(ctx, betID)
		if err != nil {
			fmt.Printf("bet %s: failed to refetch: %v\n", betID, err)
			return
		}
		fmt.Printf("bet %s is now %s (%s)\n", betID, bet.State, bet.State.Describe())
	}
}

func (a *app) printPending(p *txtrack.Pending) {
	fmt.Println("pending :", p.Hash.Hex())
	fmt.Println("explorer:", a.cfg.ExplorerTxBase+p.Hash.Hex())
}

func parseBetID(args []string) (*big.Int, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("missing bet id")
	}
	id, ok := new(big.Int).SetString(args[0], 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("bad bet id %q", args[0])
	}
	return id, nil
}
