package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
)

type captureLogger struct {
	infos, warns []string
	fields       []map[string]any
}

func (c *captureLogger) Debugf(string, ...any) {}
func (c *captureLogger) Debugw(_ string, f map[string]any) {
	c.fields = append(c.fields, f)
}
func (c *captureLogger) Infof(format string, args ...any) {
	c.infos = append(c.infos, fmt.Sprintf(format, args...))
}
func (c *captureLogger) Warnf(format string, args ...any) {
	c.warns = append(c.warns, fmt.Sprintf(format, args...))
}
func (c *captureLogger) Errorf(string, ...any) {}

func TestLogSink(t *testing.T) {
	l := &captureLogger{}
	s := NewLogSink(l)

	require.NoError(t, s.RecordDay(coremetrics.DayEvent{RunID: "r", Weekday: model.Friday, Status: "ok", Income: 1.23456, Duration: 2 * time.Second}))
	require.Len(t, l.fields, 1)
	assert.Equal(t, "Friday", l.fields[0]["weekday"])
	assert.Equal(t, 1.235, l.fields[0]["income"])
	assert.Equal(t, int64(2000), l.fields[0]["duration_ms"])

	require.NoError(t, s.RecordRun(coremetrics.RunEvent{RunID: "r", Days: 7, Failed: 2, Income: 10, Duration: time.Second}))
	assert.Equal(t, []string{"run r: 5/7 weekdays ok, income 10.000 in 1s"}, l.infos)

	require.NoError(t, s.RecordSolve(coremetrics.SolveEvent{Weekday: model.Monday, Attempt: 1, Status: "optimal"}))
	assert.Empty(t, l.warns)
	require.NoError(t, s.RecordSolve(coremetrics.SolveEvent{Weekday: model.Monday, Attempt: 1, Status: "timeout", Duration: time.Second}))
	assert.Equal(t, []string{"Monday: solver attempt 1 ended timeout after 1s"}, l.warns)

}
