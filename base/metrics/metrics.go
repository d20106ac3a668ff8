/*Package metrics wraps datadog-go to facilitate metric recording
Following are naming convention of metric:
- External latency: *.latency
- Error: *.err
- Counter: *.count
*/
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/nftscan2022/nftscan-go/base/log"
)

const (
	// ddRate is the rate to pass metrics to the datadog agent. 1 means always
	ddRate = 1
	// buffer 10 counters before sending to statsd
	bufferMetrics = 10
	ddPort        = 8125
)

var (
	initOnce sync.Once
	cli      statsCli
)

// Ender ends a timing started by BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpSum(key string, val float64, tags ...string)
	BumpTime(key string, tags ...string) Ender
}

type statsCli interface {
	Count(name string, value int64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

func initClient() {
	host := viper.GetString("datadog_host")
	if host == "" {
		// no agent configured, keep metrics observable through debug logs
		cli = &LogClient{}
		return
	}
	addr := fmt.Sprintf("%s:%d", host, ddPort)
	log.Log().WithField("addr", addr).Info("connecting to datadog agent")
	c, err := statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Panic("can't talk to datadog agent")
	}
	cli = c
}

// New creates a metric client with pkgName as key prefix
func New(pkgName string) Service {
	initOnce.Do(initClient)
	return &impl{pfx: pkgName}
}

type impl struct {
	pfx string
}

// BumpSum bumps the sum for the given key.
func (im *impl) BumpSum(key string, val float64, tags ...string) {
	key = im.pfx + "." + key
	if err := cli.Count(key, int64(val), parseTag(tags), ddRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": "BumpSum"}).Error("Bump fail")
	}
}

// BumpTime starts a timer for the given key; call End() on the returned value
// to record the elapsed time:
//
//	defer s.BumpTime("request.latency").End()
func (im *impl) BumpTime(key string, tags ...string) Ender {
	return &timeTracker{
		start: time.Now(),
		key:   im.pfx + "." + key,
		tags:  parseTag(tags),
	}
}

// parseTag converts ["k1", "v1", "k2", "v2"] to ["k1:v1", "k2:v2"]
func parseTag(tags []string) []string {
	if tags == nil {
		return nil
	}
	if len(tags)%2 != 0 {
		log.Log().WithField("tags", tags).Panic("tag length needs to be multiple of 2")
	}
	arr := make([]string, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		arr[i/2] = tags[i] + ":" + tags[i+1]
	}
	return arr
}

type timeTracker struct {
	start time.Time
	key   string
	tags  []string
}

func (t *timeTracker) End() {
	d := time.Since(t.start)
	dur := float64(d) / float64(time.Millisecond)
	if err := cli.TimeInMilliseconds(t.key, dur, t.tags, ddRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": t.key, "val": dur, "func": "BumpTime"}).Error("Bump fail")
	}
}
