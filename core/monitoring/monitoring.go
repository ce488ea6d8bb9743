package monitoring

import (
	"errors"
	"time"

	"github.com/kilianp07/flexbid/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor discards every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// CaptureDayError reports err with the weekday context of a wrapped
// model.DayError as tags. extra tags take precedence.
func CaptureDayError(m Monitor, err error, extra map[string]string) {
	if m == nil || err == nil {
		return
	}
	tags := map[string]string{}
	var de *model.DayError
	if errors.As(err, &de) {
		for k, v := range de.Tags() {
			tags[k] = v
		}
	}
	for k, v := range extra {
		tags[k] = v
	}
	m.CaptureException(err, tags)
}
