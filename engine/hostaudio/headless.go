//go:build headless

package hostaudio

import (
	"errors"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-soundgraph/engine/player"
)

// ErrHeadless is returned by New in headless builds.
var ErrHeadless = errors.New("hostaudio: built without audio device support")

// Host is unavailable in headless builds.
type Host struct{ player.OfflineHost }

// Option configures New.
type Option func()

// WithBufferSize is accepted for API parity.
func WithBufferSize(time.Duration) Option { return func() {} }

// WithLogger is accepted for API parity.
func WithLogger(*slog.Logger) Option { return func() {} }

// New always fails.
func New(int, int, ...Option) (*Host, error) { return nil, ErrHeadless }

// Close is a no-op.
func (h *Host) Close() error { return nil }
