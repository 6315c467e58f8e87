package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(FragmentsPopulated.WithLabelValues(StatusOK))
	FragmentsPopulated.WithLabelValues(StatusOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(FragmentsPopulated.WithLabelValues(StatusOK)))

	before = testutil.ToFloat64(QueriesResolved.WithLabelValues("embedding", StatusNoMatch))
	QueriesResolved.WithLabelValues("embedding", StatusNoMatch).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(QueriesResolved.WithLabelValues("embedding", StatusNoMatch)))
}
