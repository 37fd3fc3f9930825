package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDanglingBookRefs(t *testing.T) {
	before := testutil.ToFloat64(DanglingBookRefs.WithLabelValues("test"))
	DanglingBookRefs.WithLabelValues("test").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(DanglingBookRefs.WithLabelValues("test")))
}

func TestSweepsTotal(t *testing.T) {
	before := testutil.ToFloat64(SweepsTotal.WithLabelValues(StatusError))
	SweepsTotal.WithLabelValues(StatusError).Inc()
	SweepsTotal.WithLabelValues(StatusOK).Inc()
	require.Equal(t, before+1, testutil.ToFloat64(SweepsTotal.WithLabelValues(StatusError)))
}
