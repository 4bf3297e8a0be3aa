package sim

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"
)

// Pacer blocks before each simulated day. Returning an error stops the run.
type Pacer func(ctx context.Context) error

// DelayPacer waits d before each day. A non-positive d does not wait.
func DelayPacer(d time.Duration) Pacer {
	return func(ctx context.Context) error {
		if d <= 0 {
			return nil
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// KeyPacer reads one byte from r before each day, so each keypress (Enter
// included) advances one day. Reading 'q' returns ErrQuit. Once r is
// exhausted the run continues without waiting.
//
// The read itself is not interruptible by ctx.
func KeyPacer(r io.Reader) Pacer {
	br := bufio.NewReader(r)
	exhausted := false
	return func(ctx context.Context) error {
		if exhausted {
			return nil
		}
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			exhausted = true
			return nil
		}
		if err != nil {
			return err
		}
		if b == 'q' {
			return ErrQuit
		}
		return nil
	}
}
