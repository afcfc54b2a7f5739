// aloha-sensor is a minimal periodic sensor node: it samples a synthetic
// reading on a jittered interval and sends it to a single sink over the
// ALOHA/RDC stack, the same traffic pattern as a Contiki collect-based
// sensor mote (periodic report, random phase offset to avoid synchronized
// collisions across the network).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/framer"
	"github.com/dantte-lp/alohamac/internal/mac"
	"github.com/dantte-lp/alohamac/internal/radio"
	"github.com/dantte-lp/alohamac/internal/rdc"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

func main() {
	os.Exit(run())
}

func run() int {
	nodeAddr := flag.String("addr", "02:00", "this node's link address")
	sinkAddr := flag.String("sink", "01:00", "sink node's link address")
	mediumAddr := flag.String("medium", "local", "shared medium name")
	period := flag.Duration("period", 5*time.Second, "base reporting period")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	local, err := addr.Parse(*nodeAddr)
	if err != nil {
		logger.Error("invalid node address", slog.String("error", err.Error()))
		return 1
	}
	sink, err := addr.Parse(*sinkAddr)
	if err != nil {
		logger.Error("invalid sink address", slog.String("error", err.Error()))
		return 1
	}

	mr := radio.NewMediumRadio(radio.Lookup(*mediumAddr))
	defer mr.Close()

	d := rdc.New(mr, framer.LengthFramer{}, local, rdc.DefaultConfig(), logger)
	m := mac.New(d, mac.DefaultConfig(), logger)
	d.SetUpward(m)

	if err := m.Init(); err != nil {
		logger.Error("failed to initialize MAC/RDC stack", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("aloha-sensor starting",
		slog.String("node", local.String()),
		slog.String("sink", sink.String()),
		slog.Duration("period", *period),
	)

	report(ctx, m, sink, *period, logger)

	logger.Info("aloha-sensor stopped")
	return 0
}

// report sends a synthetic reading to sink once per period, jittered by up
// to a full period to spread multiple sensors' transmissions apart.
func report(ctx context.Context, m *mac.MAC, sink addr.Addr, period time.Duration, logger *slog.Logger) {
	var seq int
	for {
		jitter := time.Duration(rand.Int64N(int64(period)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter):
		}

		seq++
		reading := fmt.Appendf(nil, "reading=%d", seq)

		sp := scratchpad.New()
		sp.SetPayload(reading)
		sp.SetAttrs(scratchpad.Attrs{Receiver: sink})

		done := make(chan struct{})
		m.Send(sp, func(_ any, status mac.TxStatus, transmissions int) {
			logger.Info("report sent",
				slog.Int("seq", seq),
				slog.String("status", status.String()),
				slog.Int("transmissions", transmissions),
			)
			close(done)
		}, nil)

		select {
		case <-ctx.Done():
			return
		case <-done:
		case <-time.After(period):
			logger.Warn("report send callback did not complete before next period", slog.Int("seq", seq))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(period - jitter):
		}
	}
}
