package scan_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scanfighter/internal/scan"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "012345678905", scan.Normalize(" 012345678905\r\n"))
	assert.Equal(t, "AB12", scan.Normalize("A\x1dB12"))
	assert.Equal(t, "", scan.Normalize(" \t "))
}

func TestCheckDigitValid(t *testing.T) {
	for _, code := range []string{"012345678905", "4006381333931", "96385074"} {
		assert.True(t, scan.CheckDigitValid(code), code)
	}
	for _, code := range []string{"012345678900", "4006381333932", "hello", "", "01234567890X", "12345"} {
		assert.False(t, scan.CheckDigitValid(code), code)
	}
}

func TestCheckDigitValid_Property_ExactlyOneDigitCompletes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.StringMatching(`[0-9]{11}|[0-9]{12}|[0-9]{7}`).Draw(rt, "body")
		valid := 0
		for d := '0'; d <= '9'; d++ {
			if scan.CheckDigitValid(body + string(d)) {
				valid++
			}
		}
		require.Equal(rt, 1, valid)
	})
}

func TestLineScanner_SkipsBlankLines(t *testing.T) {
	ls := scan.NewLineScanner(strings.NewReader("\n 111 \n\n222\r\n"))
	ctx := context.Background()

	code, err := ls.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "111", code)
	code, err = ls.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "222", code)
	_, err = ls.Scan(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = ls.Scan(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineScanner_HonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ls := scan.NewLineScanner(r)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ls.Scan(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// repeatScanner reports the same code on every call.
type repeatScanner struct{ code string }

func (r repeatScanner) Scan(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.code, nil
}

func TestSession_CallbackAtMostOnce(t *testing.T) {
	s := scan.NewSession(repeatScanner{code: " 123 "}, zap.NewNop())
	var calls atomic.Int32
	got := make(chan string, 4)
	s.Start(context.Background(), func(code string) {
		calls.Add(1)
		got <- code
	})
	s.Start(context.Background(), func(string) { calls.Add(1) })

	<-s.Done()
	s.Stop()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "123", <-got)
}

func TestSession_StopBeforeResult(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := scan.NewSession(scan.NewLineScanner(r), zap.NewNop())
	var calls atomic.Int32
	s.Start(context.Background(), func(string) { calls.Add(1) })
	s.Stop()
	assert.Equal(t, int32(0), calls.Load())
}

func TestSession_StopWithoutStart(t *testing.T) {
	s := scan.NewSession(repeatScanner{code: "1"}, zap.NewNop())
	s.Stop()
	var calls atomic.Int32
	s.Start(context.Background(), func(string) { calls.Add(1) })
	<-s.Done()
	assert.Equal(t, int32(0), calls.Load())
}

type failingScanner struct{}

func (failingScanner) Scan(context.Context) (string, error) {
	return "", errors.New("camera unavailable")
}

func TestSession_LogsScanFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := scan.NewSession(failingScanner{}, zap.New(core))
	s.Start(context.Background(), func(string) { t.Fatal("callback on failure") })
	<-s.Done()
	assert.Equal(t, 1, logs.FilterMessage("barcode scan failed").Len())
}
