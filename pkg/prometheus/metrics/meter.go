package metrics

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/pkg/prometheus/metrics/keyword"
	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/VictoriaMetrics/metrics"
)

var _ Meter = (*Metrics)(nil)

// Meter collects control block lifecycle events and debug server requests.
type Meter interface {
	ptr.Observer
	IncRequest(path string, status int)
	NewResponseTimeTimer(path string) *Timer
	FlushResponseTimeTimer(t *Timer)
}

// Metrics is a ptr.Observer backed by VictoriaMetrics counters.
// Label values of lifecycle counters are bounded (kinds, outcomes), so the counters are built once.
type Metrics struct {
	allocated [3]*metrics.Counter // indexed by ptr.Kind
	destroyed [3]*metrics.Counter
	freed     [3]*metrics.Counter
	upgraded  *metrics.Counter
	refused   *metrics.Counter

	liveBlocks   atomic.Int64
	livePayloads atomic.Int64
}

func New() *Metrics {
	m := &Metrics{
		upgraded: metrics.GetOrCreateCounter(keyword.Upgrades + `{result="ok"}`),
		refused:  metrics.GetOrCreateCounter(keyword.Upgrades + `{result="expired"}`),
	}
	for _, kind := range []ptr.Kind{ptr.KindOwner, ptr.KindInplace} {
		label := `{kind="` + kind.String() + `"}`
		m.allocated[kind] = metrics.GetOrCreateCounter(keyword.BlocksAllocated + label)
		m.destroyed[kind] = metrics.GetOrCreateCounter(keyword.PayloadsDestroyed + label)
		m.freed[kind] = metrics.GetOrCreateCounter(keyword.BlocksFreed + label)
	}
	metrics.GetOrCreateGauge(keyword.LiveBlocks, func() float64 {
		return float64(m.liveBlocks.Load())
	})
	metrics.GetOrCreateGauge(keyword.LivePayloads, func() float64 {
		return float64(m.livePayloads.Load())
	})
	return m
}

func (m *Metrics) OnAllocate(info ptr.BlockInfo) {
	if c := m.counter(m.allocated, info.Kind); c != nil {
		c.Inc()
	}
	m.liveBlocks.Add(1)
	m.livePayloads.Add(1)
}

func (m *Metrics) OnDestroy(info ptr.BlockInfo) {
	if c := m.counter(m.destroyed, info.Kind); c != nil {
		c.Inc()
	}
	m.livePayloads.Add(-1)
}

func (m *Metrics) OnFree(info ptr.BlockInfo) {
	if c := m.counter(m.freed, info.Kind); c != nil {
		c.Inc()
	}
	m.liveBlocks.Add(-1)
}

func (m *Metrics) OnUpgrade(_ ptr.BlockInfo, ok bool) {
	if ok {
		m.upgraded.Inc()
	} else {
		m.refused.Inc()
	}
}

// LiveBlocks returns the number of allocated and not yet freed control blocks.
func (m *Metrics) LiveBlocks() int64 {
	return m.liveBlocks.Load()
}

// LivePayloads returns allocations minus payload ends (destroyed or failed to construct).
func (m *Metrics) LivePayloads() int64 {
	return m.livePayloads.Load()
}

func (m *Metrics) counter(set [3]*metrics.Counter, kind ptr.Kind) *metrics.Counter {
	if int(kind) >= len(set) {
		return nil
	}
	return set[kind]
}

var statuses [600]string

func init() {
	for i := 100; i <= 599; i++ {
		statuses[i] = strconv.Itoa(i)
	}
}

func (m *Metrics) IncRequest(path string, status int) {
	if status < 100 || status >= len(statuses) {
		panic("invalid status code: " + strconv.Itoa(status))
	}

	buf := getBuf()
	defer putBuf(buf)

	*buf = append(*buf, keyword.DebugRequests...)
	*buf = append(*buf, `{path="`...)
	*buf = append(*buf, sanitize(path)...)
	*buf = append(*buf, `",status="`...)
	*buf = append(*buf, statuses[status]...)
	*buf = append(*buf, `"}`...)

	metrics.GetOrCreateCounter(string(*buf)).Inc()
}

// Timer is a pooled response time tracker.
type Timer struct {
	start time.Time
	buf   *bytes.Buffer
}

var timerPool = sync.Pool{
	New: func() any {
		return &Timer{
			buf: bytes.NewBuffer(make([]byte, 0, 128)),
		}
	},
}

func (m *Metrics) NewResponseTimeTimer(path string) *Timer {
	t := timerPool.Get().(*Timer)
	t.start = time.Now()
	t.buf.Reset()

	t.buf.WriteString(keyword.DebugDurationMs)
	t.buf.WriteString(`{path="`)
	t.buf.WriteString(sanitize(path))
	t.buf.WriteString(`"}`)

	return t
}

func (m *Metrics) FlushResponseTimeTimer(t *Timer) {
	durationMs := float64(time.Since(t.start).Milliseconds())
	metrics.GetOrCreateHistogram(t.buf.String()).Update(durationMs)
	timerPool.Put(t)
}

// sanitize escapes quotes and backslashes in label values
func sanitize(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// ===== buf []byte pooling =====

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

func getBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

func putBuf(b *[]byte) {
	*b = (*b)[:0]
	bufPool.Put(b)
}
