package scan

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// LineScanner reads one code per non-blank line from a reader. It stands in
// for the camera on the command line and in tests.
type LineScanner struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	// err is written before lines is closed.
	err error
}

// NewLineScanner returns a LineScanner over r.
func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{r: r, lines: make(chan string)}
}

func (l *LineScanner) start() {
	go func() {
		defer close(l.lines)
		sc := bufio.NewScanner(l.r)
		for sc.Scan() {
			if code := Normalize(sc.Text()); code != "" {
				l.lines <- code
			}
		}
		l.err = sc.Err()
		if l.err == nil {
			l.err = io.EOF
		}
	}()
}

// Scan returns the next code. It returns io.EOF once the reader is exhausted.
// A Scan abandoned through ctx leaves the pending line for the next call.
func (l *LineScanner) Scan(ctx context.Context) (string, error) {
	l.once.Do(l.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code, ok := <-l.lines:
		if !ok {
			return "", l.err
		}
		return code, nil
	}
}
