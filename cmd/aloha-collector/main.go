// aloha-collector is a minimal sink node: it brings up the ALOHA/RDC stack
// on a fixed address, registers a receive handler that prints every
// delivered frame, and otherwise does nothing but wait, the same role a
// Contiki hello_unicast receiver plays opposite a periodic sender.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

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
	nodeAddr := flag.String("addr", "01:00", "this node's link address")
	mediumAddr := flag.String("medium", "local", "shared medium name")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	local, err := addr.Parse(*nodeAddr)
	if err != nil {
		logger.Error("invalid node address", slog.String("error", err.Error()))
		return 1
	}

	mr := radio.NewMediumRadio(radio.Lookup(*mediumAddr))
	defer mr.Close()

	d := rdc.New(mr, framer.LengthFramer{}, local, rdc.DefaultConfig(), logger)
	m := mac.New(d, mac.DefaultConfig(), logger)
	m.SetReceiveHandler(func(payload []byte, attrs scratchpad.Attrs) {
		logger.Info("received",
			slog.String("from", attrs.Sender.String()),
			slog.String("payload", string(payload)),
		)
	})
	d.SetUpward(m)

	if err := m.Init(); err != nil {
		logger.Error("failed to initialize MAC/RDC stack", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("aloha-collector listening", slog.String("node", local.String()))
	<-ctx.Done()

	logger.Info("aloha-collector stopped")
	return 0
}
