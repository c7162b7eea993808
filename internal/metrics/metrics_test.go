package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestViolationsCounterIncrementsByKind(t *testing.T) {
	Violations.WithLabelValues("speed_hack").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(Violations.WithLabelValues("speed_hack")))
}

func TestRegistryGatherSucceeds(t *testing.T) {
	mfs, err := Registry.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
