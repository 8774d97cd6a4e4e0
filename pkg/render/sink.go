package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-physics2d/pkg/logging"
)

// FrameSinkConfig controls when a FrameSink stops trying to write
type FrameSinkConfig struct {
	// MaxConsecutiveFailures trips the breaker
	MaxConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open before a trial write
	Cooldown time.Duration
}

// DefaultFrameSinkConfig gives up after three failed writes in a row and
// retries after ten seconds
func DefaultFrameSinkConfig() FrameSinkConfig {
	return FrameSinkConfig{
		MaxConsecutiveFailures: 3,
		Cooldown:               10 * time.Second,
	}
}

// FrameSink writes numbered PNG frames into a directory. Writes go through
// a circuit breaker so a full disk drops frames instead of failing every
// tick.
type FrameSink struct {
	dir     string
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	create  func(path string) (io.WriteCloser, error)

	Written int
	Dropped int
}

// NewFrameSink creates dir if needed
func NewFrameSink(dir string, cfg FrameSinkConfig, logger *logging.Logger) (*FrameSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return newFrameSink(dir, cfg, logger, func(path string) (io.WriteCloser, error) {
		return os.Create(path)
	}), nil
}

func newFrameSink(dir string, cfg FrameSinkConfig, logger *logging.Logger, create func(string) (io.WriteCloser, error)) *FrameSink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	maxFails := max(cfg.MaxConsecutiveFailures, 1)

	settings := gobreaker.Settings{
		Name:    "frame-sink",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &FrameSink{
		dir:     dir,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		create:  create,
	}
}

// Path returns the file name used for tick
func (s *FrameSink) Path(tick uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", tick))
}

// Write encodes the current frame of img for tick. While the breaker is
// open the frame is dropped and ErrFrameDropped is returned.
func (s *FrameSink) Write(tick uint64, img *ImageRenderer) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		f, err := s.create(s.Path(tick))
		if err != nil {
			return nil, err
		}
		if err := img.WritePNG(f); err != nil {
			f.Close()
			return nil, err
		}
		return nil, f.Close()
	})

	switch {
	case err == nil:
		s.Written++
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.Dropped++
		s.logger.Debug(context.Background(), "frame dropped",
			"tick", tick,
			"state", s.breaker.State().String(),
		)
		return ErrFrameDropped
	default:
		s.Dropped++
		s.logger.Warn(context.Background(), "failed to write frame", "tick", tick, "error", err)
		return fmt.Errorf("failed to write frame %d: %w", tick, err)
	}
}

// State reports the breaker state, e.g. "closed" or "open"
func (s *FrameSink) State() string {
	return s.breaker.State().String()
}

// ErrFrameDropped is returned by FrameSink.Write while writes are suspended
var ErrFrameDropped = errors.New("frame dropped: sink is suspended")
