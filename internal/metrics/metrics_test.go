package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationsTotal.WithLabelValues(OperationSummaryCreated))

	CountOperation(OperationSummaryCreated, 3)
	CountOperation(OperationSummaryCreated, 0)

	assert.Equal(t, before+3, testutil.ToFloat64(OperationsTotal.WithLabelValues(OperationSummaryCreated)))
}

func TestCountDomains(t *testing.T) {
	before := testutil.ToFloat64(DomainsTotal.WithLabelValues(ResultSkipped))

	CountDomains(ResultSkipped, 2)
	CountDomains(ResultSkipped, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(DomainsTotal.WithLabelValues(ResultSkipped)))
}

func TestObserveRun(t *testing.T) {
	ObserveRun(time.Now().Add(-2 * time.Second))
	assert.Equal(t, 1, testutil.CollectAndCount(RunDuration))
}
