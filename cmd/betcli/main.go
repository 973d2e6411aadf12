package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/srikavin/PolyEscrow/internal/allowance"
	"github.com/srikavin/PolyEscrow/internal/betdata"
	"github.com/srikavin/PolyEscrow/internal/betsync"
	"github.com/srikavin/PolyEscrow/internal/config"
	"github.com/srikavin/PolyEscrow/internal/logger"
	"github.com/srikavin/PolyEscrow/internal/txtrack"
	"github.com/srikavin/PolyEscrow/internal/wallet"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: betcli <command> [args]

commands:
  list                       show every bet involving this wallet
  details <bet-id>           show one bet's full snapshot
  make <target> <amount> <reason...>
                             challenge target to a new bet
  accept <bet-id>            accept a bet you were challenged in
  reject <bet-id>            reject (or cancel) a bet
  vote <bet-id> <cancel|defeat|burn>
                             vote on a started bet
  authorize                  grant the one-time token approval
  watch                      live view; refetches on every change signal`)
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg := config.Load()
	log, err := logger.New("betcli", cfg.Env)
	must(err, "logger")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	must(err, "connect")

	switch cmd {
	case "list":
		err = a.list(ctx)
	case "details":
		err = a.details(ctx, args)
	case "make":
		err = a.makeBet(ctx, args)
	case "accept":
		err = a.accept(ctx, args)
	case "reject":
		err = a.reject(ctx, args)
	case "vote":
		err = a.vote(ctx, args)
	case "authorize":
		err = a.authorize(ctx)
	case "watch":
		err = a.watch(ctx)
	default:
		usage()
		os.Exit(2)
	}
	a.manager.Close()
	if err != nil {
		die(describeError(err))
	}
}

type app struct {
	cfg config.Settings
	log *zap.Logger

	ec   *ethclient.Client // signer path
	read *ethclient.Client // read-only path; may be a separate endpoint

	binding *betdata.Binding
	manager *wallet.Manager
	guard   *allowance.Guard
	tracker *txtrack.Tracker

	session *wallet.Session
}

func newApp(ctx context.Context, cfg config.Settings, log *zap.Logger) (*app, error) {
	ec, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	read := ec
	if cfg.ReadRPCURL != "" {
		if read, err = ethclient.Dial(cfg.ReadRPCURL); err != nil {
			return nil, fmt.Errorf("dial read rpc: %w", err)
		}
	}

	pk := cfg.PrivateKeyHex
	if strings.TrimSpace(pk) == "" {
		pk = readPassword("Private key: ")
	}
	provider, err := wallet.NewKeyedProvider(pk, ec)
	if err != nil {
		return nil, fmt.Errorf("bad private key: %w", err)
	}

	binding, err := betdata.NewBinding(cfg.BettingContract, cfg.TokenContract)
	if err != nil {
		return nil, err
	}

	manager := wallet.NewManager(cfg, binding, provider, read, ec, log)
	session, err := manager.Connect(ctx)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		ec:      ec,
		read:    read,
		binding: binding,
		manager: manager,
		guard:   allowance.NewGuard(cfg.BettingContract, log),
		tracker: txtrack.New(ec, cfg.Confirmations, log),
		session: session,
	}
	a.printSession(session)
	return a, nil
}

func (a *app) printSession(s *wallet.Session) {
	fmt.Println("=== SESSION ===")
	fmt.Println("Account    :", s.Account.Hex())
	fmt.Println("Network    :", s.NetworkName)
	fmt.Printf("Token      : %s (%s)\n", s.TokenInfo.Name, s.TokenInfo.Symbol)
	fmt.Printf("Balance    : %s %s\n", formatUnits(s.TokenBalance, s.TokenInfo.Decimals), s.TokenInfo.Symbol)
	fmt.Println("Authorized :", s.Authorized)
	fmt.Println("===============")
	if s.NetworkMismatch {
		fmt.Printf("[!] wallet is on %s but the contracts are deployed on %s; switch networks to transact\n",
			s.NetworkName, s.ContractNetwork)
	}
}

// replaceSession adopts a replacement session so every later read goes
// through its handles, never the replaced one's.
func (a *app) replaceSession(s *wallet.Session) {
	a.session = s
	a.printSession(s)
}

// historySync builds a synchronizer for one-shot historical scans; live
// subscriptions are wired only by watch, which dials the websocket.
func (a *app) historySync() *betsync.Synchronizer {
	return betsync.New(a.binding, a.read, nil, a.cfg.DeployedBlock, a.log)
}
