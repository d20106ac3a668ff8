package metrics

import (
	"github.com/nftscan2022/nftscan-go/base/log"
)

// LogClient reports metrics to the debug log. It stands in for a statsd
// client when no datadog agent is configured.
type LogClient struct{}

// Count tracks how many times something happened,
// like the number of API requests or re-authentications.
func (lc *LogClient) Count(name string, value int64, tags []string, rate float64) error {
	log.Log().WithFields(log.Fields{"key": name, "val": value, "tags": tags}).Debug("metric count")
	return nil
}

// TimeInMilliseconds records a duration,
// like the round-trip latency of an API request.
func (lc *LogClient) TimeInMilliseconds(name string, value float64, tags []string, rate float64) error {
	log.Log().WithFields(log.Fields{"key": name, "time_ms": value, "tags": tags}).Debug("metric time")
	return nil
}
