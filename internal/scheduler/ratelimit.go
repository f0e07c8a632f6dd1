package scheduler

import (
	"context"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/transport"
	"golang.org/x/time/rate"
)

// DefaultNotificationRatePerSec is the global outbound send-rate cap
// used as a backpressure guard.
const DefaultNotificationRatePerSec = 30

// RateLimitedSender wraps a transport.Sender with a global token bucket so
// the Notification Scheduler's fan-out never exceeds the configured
// outbound rate, deferring the rest of a burst to later ticks by blocking
// on Wait rather than dropping.
type RateLimitedSender struct {
	inner   transport.Sender
	limiter *rate.Limiter
}

// NewRateLimitedSender builds a RateLimitedSender with a burst equal to
// ratePerSec (one second's worth of headroom).
func NewRateLimitedSender(inner transport.Sender, ratePerSec int) *RateLimitedSender {
	if ratePerSec <= 0 {
		ratePerSec = DefaultNotificationRatePerSec
	}
	return &RateLimitedSender{inner: inner, limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// ValidateAndCanonicalizeChatID delegates to the wrapped sender.
func (s *RateLimitedSender) ValidateAndCanonicalizeChatID(chatID string) (string, error) {
	return s.inner.ValidateAndCanonicalizeChatID(chatID)
}

// Send blocks for a token before delegating, bounding the scheduler pool's
// outbound rate without dropping any message.
func (s *RateLimitedSender) Send(ctx context.Context, chatID, htmlText string, buttons [][]models.Button) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Send(ctx, chatID, htmlText, buttons)
}
