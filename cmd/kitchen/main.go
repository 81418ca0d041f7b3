// Command kitchen tails the event queue for one preparation area and prints
// dispatched tickets to stdout.  It is the minimal display companion for the
// order service: a Raspberry Pi behind a kitchen screen runs exactly this.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/dispatch"
	"github.com/ordena/comandero/internal/events"
	"github.com/ordena/comandero/internal/logger"
)

func main() {
	_ = godotenv.Load()

	zl, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// KITCHEN_AREA selects which dispatch area this display shows.  Empty
	// (or any of the placeholder spellings) means the General fallback area.
	area := dispatch.NormalizeAreaName(os.Getenv("KITCHEN_AREA"))

	// KITCHEN_LOG additionally appends every displayed line to a file, so
	// the kitchen keeps a paper-trail of what was asked of it.
	out := io.Writer(os.Stdout)
	if path := os.Getenv("KITCHEN_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			zl.Fatal("opening kitchen log failed", zap.String("path", path), zap.Error(err))
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Each area binds its own durable queue to the broadcast exchange, so
	// every display receives the full stream and no display steals another
	// area's tickets.
	queue := events.DisplayQueue(area)

	zl.Info("kitchen display starting",
		zap.String("area", area),
		zap.String("queue", queue),
	)

	err = events.Consume(ctx, events.BrokerURL(), queue, zl, func(_ context.Context, ev events.Envelope) error {
		switch ev.Kind {
		case events.TicketDispatched:
			// Other areas' tickets are acked silently; filtering is local.
			if !strings.EqualFold(ev.Area, area) {
				return nil
			}
			fmt.Fprintf(out, "[%s] ticket #%d  table %d  %d item(s)\n",
				ev.OccurredAt.Local().Format("15:04:05"), ev.TicketID, ev.TableID, ev.ItemCount)
		case events.TableCleared:
			fmt.Fprintf(out, "[%s] table %d cleared\n",
				ev.OccurredAt.Local().Format("15:04:05"), ev.TableID)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		zl.Fatal("consumer stopped", zap.Error(err))
	}
	zl.Info("kitchen display stopped")
}
