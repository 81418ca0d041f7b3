// Command device runs the headless half of a staff terminal: it hydrates the
// local order cache, keeps it reconciled against the server on a fixed poll,
// and reacts to broker events so guest submissions show up without waiting
// for the next tick.  The interactive half (taking orders, dispatching,
// splitting bills) drives the same engine packages through their Go API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/client"
	"github.com/ordena/comandero/internal/config"
	"github.com/ordena/comandero/internal/dispatch"
	"github.com/ordena/comandero/internal/events"
	"github.com/ordena/comandero/internal/logger"
	"github.com/ordena/comandero/internal/order"
	"github.com/ordena/comandero/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadDeviceConfig()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	api := client.New(cfg.APIURL, cfg.Token, cfg.TenantID, cfg.ClientTimeout)

	// Local persistence is optional: without Redis the device still works,
	// it just starts cold after a restart.
	store := order.NewStore(config.NewRedisClient())

	// A business switch wipes the outgoing tenant's cached tables and
	// dispatch markers before anything is hydrated.
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if prev, err := store.ActiveTenant(startCtx); err != nil {
		zl.Warn("reading active tenant failed", zap.Error(err))
	} else if prev != 0 && prev != cfg.TenantID {
		zl.Info("tenant changed, wiping previous session", zap.Int64("previous", prev))
		if err := store.SwitchTenant(startCtx, prev); err != nil {
			zl.Warn("wiping previous tenant failed", zap.Error(err))
		}
	}
	if err := store.SetActiveTenant(startCtx, cfg.TenantID); err != nil {
		zl.Warn("recording active tenant failed", zap.Error(err))
	}
	startCancel()

	mgr := order.NewManager(cfg.TenantID, store, zl)
	rt := dispatch.NewRouter(mgr, api, store, zl)
	eng := reconcile.NewEngine(mgr, api, cfg.ReconcileInterval, zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Broker events shortcut the poll: a guest submission triggers an
	// immediate reconcile instead of surfacing up to one interval later.
	// The empty queue name yields a private auto-deleted binding on the
	// broadcast exchange; events missed while offline are picked up by the
	// polling loop anyway.
	go func() {
		err := events.Consume(ctx, events.BrokerURL(), "", zl, func(_ context.Context, ev events.Envelope) error {
			if ev.TenantID != cfg.TenantID {
				return nil
			}
			if ev.Kind == events.OrderArrived {
				if cfg.AutoDispatch {
					// Merge inline so the submitted items are in the cart
					// before the router snapshots it.
					eng.RunOnce(ctx)
					if _, err := rt.Dispatch(ctx, ev.TableID); err != nil {
						zl.Warn("auto dispatch failed", zap.Int64("table_id", ev.TableID), zap.Error(err))
					}
				} else {
					eng.Trigger()
				}
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			zl.Warn("event consumer stopped", zap.Error(err))
		}
	}()

	zl.Info("device agent starting",
		zap.Int64("tenant_id", cfg.TenantID),
		zap.Duration("interval", cfg.ReconcileInterval),
		zap.Bool("auto_dispatch", cfg.AutoDispatch),
	)

	eng.Run(ctx)
	zl.Info("device agent stopped")
}
