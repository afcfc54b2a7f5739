package radio_test

import (
	"testing"

	"github.com/dantte-lp/alohamac/internal/radio"
)

func TestSingleTransmitIsDeliveredAndClean(t *testing.T) {
	m := radio.NewMedium()
	tx := radio.NewMediumRadio(m)
	defer tx.Close()
	rx := radio.NewMediumRadio(m)
	defer rx.Close()

	if err := rx.On(); err != nil {
		t.Fatalf("On: %v", err)
	}

	if err := tx.Prepare([]byte("hello")); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got := tx.Transmit(5); got != radio.TxResultOK {
		t.Fatalf("Transmit = %v, want OK", got)
	}

	if !rx.PendingPacket() {
		t.Fatal("receiver should have a pending packet")
	}
	buf := make([]byte, 16)
	n, err := rx.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Read = %q, want %q", buf[:n], "hello")
	}
	if rx.PendingPacket() {
		t.Fatal("pending flag must clear after Read")
	}
}

func TestTransmitWithoutPrepareErrors(t *testing.T) {
	m := radio.NewMedium()
	tx := radio.NewMediumRadio(m)
	defer tx.Close()

	if got := tx.Transmit(5); got != radio.TxResultError {
		t.Fatalf("Transmit without Prepare = %v, want Error", got)
	}
}

func TestOffRadioDoesNotReceive(t *testing.T) {
	m := radio.NewMedium()
	tx := radio.NewMediumRadio(m)
	defer tx.Close()
	rx := radio.NewMediumRadio(m)
	defer rx.Close()

	// rx never calls On.
	tx.Prepare([]byte("x"))
	tx.Transmit(1)

	if rx.PendingPacket() {
		t.Fatal("radio that is off must not receive")
	}
}

func TestConcurrentTransmitsCollide(t *testing.T) {
	m := radio.NewMedium()
	a := radio.NewMediumRadio(m)
	defer a.Close()
	b := radio.NewMediumRadio(m)
	defer b.Close()

	a.Prepare([]byte("a"))
	b.Prepare([]byte("b"))

	start := make(chan struct{})
	results := make(chan radio.TxResult, 2)
	for _, r := range []*radio.MediumRadio{a, b} {
		r := r
		go func() {
			<-start
			results <- r.Transmit(1)
		}()
	}
	close(start)

	got := []radio.TxResult{<-results, <-results}
	collisions := 0
	for _, r := range got {
		if r == radio.TxResultCollision {
			collisions++
		}
	}
	if collisions == 0 {
		t.Fatalf("expected at least one collision among overlapping transmits, got %v", got)
	}
}

func TestChannelClearReflectsBusyState(t *testing.T) {
	m := radio.NewMedium()
	tx := radio.NewMediumRadio(m)
	defer tx.Close()
	rx := radio.NewMediumRadio(m)
	defer rx.Close()

	if !rx.ChannelClear() {
		t.Fatal("idle medium must report clear")
	}

	tx.Prepare([]byte("x"))
	tx.Transmit(1)

	if !rx.ChannelClear() {
		t.Fatal("medium must be clear again once transmit completes")
	}
}
