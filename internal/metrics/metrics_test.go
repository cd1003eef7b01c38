package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		VotesTotal,
		ReputationChangesTotal,
		BadgesAwardedTotal,
		AnswersAcceptedTotal,
		NotificationsCreatedTotal,
		NotificationDeliveryFailures,
		WebSocketConnectionsCurrent,
		WebSocketMessagesDropped,
		RelayMessagesTotal,
		HTTPRequestDuration,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestVotesTotalLabels(t *testing.T) {
	before := testutil.ToFloat64(VotesTotal.WithLabelValues("question", "up"))
	VotesTotal.WithLabelValues("question", "up").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VotesTotal.WithLabelValues("question", "up")))
}
