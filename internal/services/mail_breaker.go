package services

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/stackit/backend/internal/logging"
)

// BreakerMailer stops calling the wrapped Mailer after a run of consecutive
// failures and retries once the open period has passed.
type BreakerMailer struct {
	next Mailer
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerMailer(next Mailer, failures uint32, openFor time.Duration) *BreakerMailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mailer",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warn("circuit breaker state changed",
				"component", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerMailer{next: next, cb: cb}
}

// SendNotificationEmail implements Mailer. While the breaker is open it
// returns gobreaker.ErrOpenState without calling the wrapped mailer.
func (m *BreakerMailer) SendNotificationEmail(ctx context.Context, to, subject, body string) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.next.SendNotificationEmail(ctx, to, subject, body)
	})
	return err
}

func (m *BreakerMailer) State() gobreaker.State {
	return m.cb.State()
}
