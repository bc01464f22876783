package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordSnapshotWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(snapshotWrites.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(snapshotWrites.WithLabelValues("error"))

	samplesBefore := histogramSampleCount(t)

	RecordSnapshotWrite(nil, time.Millisecond)
	RecordSnapshotWrite(errors.New("disk full"), 3*time.Millisecond)
	RecordSnapshotWrite(nil, 2*time.Millisecond)

	require.Equal(t, okBefore+2, testutil.ToFloat64(snapshotWrites.WithLabelValues("ok")))
	require.Equal(t, errBefore+1, testutil.ToFloat64(snapshotWrites.WithLabelValues("error")))
	require.Equal(t, samplesBefore+3, histogramSampleCount(t))
}

func TestRecordValidationFailureDefaultsKind(t *testing.T) {
	before := testutil.ToFloat64(validationFailures.WithLabelValues("unknown"))
	RecordValidationFailure("")
	require.Equal(t, before+1, testutil.ToFloat64(validationFailures.WithLabelValues("unknown")))
}

func TestActiveSessions(t *testing.T) {
	before := testutil.ToFloat64(activeSessions)
	SessionOpened()
	SessionOpened()
	SessionClosed()
	require.Equal(t, before+1, testutil.ToFloat64(activeSessions))
	SessionClosed()
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, snapshotWriteDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}
