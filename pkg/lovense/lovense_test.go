package lovense

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback answers every command with the next canned reply.
type loopback struct {
	written bytes.Buffer
	replies *strings.Reader
}

func newLoopback(replies string) *loopback {
	return &loopback{replies: strings.NewReader(replies)}
}

func (l *loopback) Read(p []byte) (int, error)  { return l.replies.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.written.Write(p) }
func (l *loopback) Close() error                { return nil }

var _ io.ReadWriteCloser = (*loopback)(nil)

func TestScalar_QuantizesToSteps(t *testing.T) {
	port := newLoopback("OK;OK;OK;")
	d := New("toy", port)
	ctx := context.Background()

	require.NoError(t, d.Scalar(ctx, []float64{0.5}))
	require.NoError(t, d.Scalar(ctx, []float64{1.2}))
	require.NoError(t, d.Stop(ctx))

	assert.Equal(t, "Vibrate:10;Vibrate:20;Vibrate:0;", port.written.String())
}

func TestScalar_RejectsBadReply(t *testing.T) {
	d := New("toy", newLoopback("ERR;"))
	assert.Error(t, d.Scalar(context.Background(), []float64{0.1}))
}

func TestScalar_LevelCount(t *testing.T) {
	d := New("toy", newLoopback(""))
	assert.Error(t, d.Scalar(context.Background(), []float64{0.1, 0.2}))
}

func TestBattery(t *testing.T) {
	d := New("toy", newLoopback("85;"))
	pct, err := d.Battery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 85, pct)
}

func TestActuators(t *testing.T) {
	d := New("toy", newLoopback(""))
	acts := d.Actuators()
	require.Len(t, acts, 1)
	assert.Equal(t, Steps, acts[0].StepCount)
}
