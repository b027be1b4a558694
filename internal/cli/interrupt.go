package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a long-running import on SIGINT or SIGTERM and
// tells the user what was already saved.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	operation   string
	completed   int
	total       int
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler that reports on writer.
func NewInterruptHandler(writer io.Writer, operation string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer:    writer,
		operation: operation,
	}
}

// HandleInterrupts returns a context canceled on the first interrupt signal.
// Signal delivery stops when the parent context is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancelFunc = cancel
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

// SetProgress records how many units of work have finished.
func (h *InterruptHandler) SetProgress(completed, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = completed
	h.total = total
}

// WasInterrupted reports whether a signal arrived.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	if h.interrupted {
		h.mu.Unlock()
		return
	}
	h.interrupted = true
	h.showInterruptMessage()
	cancel := h.cancelFunc
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// showInterruptMessage must be called with mu held.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")

	if h.total > 0 {
		msg += "\n" + FormatInfo(fmt.Sprintf("%d of %d files finished before the interrupt.", h.completed, h.total))
		msg += "\n" + FormatInfo("Saved transactions are kept; re-running skips duplicates.")
	}

	msg += "\n" + FormatInfo("See you later! "+SpiceIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}
