package scan

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Session runs a single scan and hands the decoded code to a callback at most
// once, however many times the underlying scanner reports a result.
type Session struct {
	scanner Scanner
	logger  *zap.Logger

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession prepares a session over scanner.
//
// Precondition: scanner and logger must be non-nil.
func NewSession(scanner Scanner, logger *zap.Logger) *Session {
	return &Session{scanner: scanner, logger: logger, done: make(chan struct{})}
}

// Start begins scanning in the background. onCode receives the normalized
// code; it is never called for empty codes, errors or after Stop. Scan errors
// are logged and end the session. Calling Start more than once has no effect.
func (s *Session) Start(ctx context.Context, onCode func(code string)) {
	s.once.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.run(ctx, onCode)
	})
}

func (s *Session) run(ctx context.Context, onCode func(string)) {
	defer close(s.done)
	for {
		code, err := s.scanner.Scan(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("barcode scan failed", zap.Error(err))
			}
			return
		}
		code = Normalize(code)
		if code == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("barcode scanned", zap.String("code", code))
		onCode(code)
		return
	}
}

// Stop cancels a running session and waits for it to finish. A session
// stopped before Start never scans.
func (s *Session) Stop() {
	s.once.Do(func() { close(s.done) })
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }
