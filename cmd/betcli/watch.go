package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/srikavin/PolyEscrow/internal/betsync"
	"github.com/srikavin/PolyEscrow/internal/metrics"
	"github.com/srikavin/PolyEscrow/internal/wallet"
)

// watch is the long-running live view: the involved-bet list is rebuilt
// on every creation signal, each listed bet's snapshot is refetched on
// any of its change signals, and an account change swaps the whole
// subscription set for the fresh session's. A network change exits
// cleanly; nothing below a session survives it.
func (a *app) watch(ctx context.Context) error {
	ws, err := ethclient.Dial(a.cfg.WSURL)
	if err != nil {
		return fmt.Errorf("dial ws: %w", err)
	}
	defer ws.Close()
	sync := betsync.New(a.binding, a.read, ws, a.cfg.DeployedBlock, a.log)

	signals := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "betcli_change_signals_total", Help: "change signals received from log subscriptions"},
		[]string{"kind"})
	refetches := prometheus.NewCounter(
		prometheus.CounterOpts{Name: "betcli_refetches_total", Help: "authoritative snapshot refetches"})
	prometheus.MustRegister(signals, refetches)

	srv := metrics.StartServer(a.cfg.MetricsPort, func(ctx context.Context) error {
		_, err := a.ec.ChainID(ctx)
		return err
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	w := &watcher{app: a, sync: sync, signals: signals, refetches: refetches}
	restart := make(chan struct{}, 1)

	a.manager.OnSessionReplaced(func(s *wallet.Session) {
		a.replaceSession(s)
		w.start(ctx, s)
	})
	a.manager.OnNetworkChanged(func() {
		select {
		case restart <- struct{}{}:
		default:
		}
	})

	w.start(ctx, a.session)
	defer w.stop()

	select {
	case <-ctx.Done():
		return nil
	case <-restart:
		fmt.Println("network changed; exiting for a clean restart")
		return nil
	}
}

type watcher struct {
	app       *app
	sync      *betsync.Synchronizer
	signals   *prometheus.CounterVec
	refetches prometheus.Counter

	mu              sync.Mutex
	betCancels      []func()
	creationsCancel func()
}

// start installs the subscription set for one session. The previous
// set is always released first; two sessions' subscriptions must never
// overlap.
func (w *watcher) start(ctx context.Context, s *wallet.Session) {
	w.stop()

	cancel, err := w.sync.WatchInvolvedCreations(ctx, func() {
		w.signals.WithLabelValues("creation").Inc()
		w.resync(ctx, s)
	})
	if err != nil {
		w.app.log.Error("creation watch failed", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.creationsCancel = cancel
	w.mu.Unlock()

	w.resync(ctx, s)
}

func (w *watcher) stop() {
	w.mu.Lock()
	betCancels, creationsCancel := w.betCancels, w.creationsCancel
	w.betCancels, w.creationsCancel = nil, nil
	w.mu.Unlock()
	for _, cancel := range betCancels {
		cancel()
	}
	if creationsCancel != nil {
		creationsCancel()
	}
}

// resync re-scans the involved set and rebuilds the per-bet watches.
// Results for a session that has since been replaced are dropped, never
// applied to the new session's view.
func (w *watcher) resync(ctx context.Context, s *wallet.Session) {
	if !w.app.manager.IsCurrent(s) {
		return
	}

	creations, err := w.sync.ListInvolvedBets(ctx, s.Account)
	if err != nil {
		// Scoped failure: the list is stale until the next signal, the
		// session stays valid.
		w.app.log.Error("involved-bet scan failed", zap.Error(err))
		return
	}
	if !w.app.manager.IsCurrent(s) {
		return
	}

	w.mu.Lock()
	old := w.betCancels
	w.betCancels = nil
	w.mu.Unlock()
	for _, cancel := range old {
		cancel()
	}

	fmt.Printf("--- %d bet(s) involving %s ---\n", len(creations), trimAddress(s.Account))
	for _, c := range creations {
		w.app.printCreation(ctx, c)

		betID := c.BetID
		cancel, err := w.sync.WatchBet(ctx, betID, func() {
			if !w.app.manager.IsCurrent(s) {
				return
			}
			w.signals.WithLabelValues("bet_change").Inc()
			bet, err := s.Bets.GetBetDetails(ctx, betID)
			w.refetches.Inc()
			if err != nil {
				fmt.Printf("bet %s: failed to refetch: %v\n", betID, err)
				return
			}
			fmt.Printf("bet %s changed: now %s (%s)\n", betID, bet.State, bet.State.Describe())
		})
		if err != nil {
			w.app.log.Error("bet watch failed", zap.String("bet", betID.String()), zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.betCancels = append(w.betCancels, cancel)
		w.mu.Unlock()
	}
}
