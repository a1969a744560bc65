package ptr

import (
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// tracked counts how many times its Destroy was invoked.
type tracked struct {
	val       int
	destroyed *atomic.Int64
}

func (t *tracked) Destroy() {
	t.destroyed.Add(1)
}

func newTracked(val int) (*tracked, *atomic.Int64) {
	cnt := &atomic.Int64{}
	return &tracked{val: val, destroyed: cnt}, cnt
}

// recorder is an Observer which counts events.
type recorder struct {
	allocated atomic.Int64
	destroyed atomic.Int64
	freed     atomic.Int64
	upgraded  atomic.Int64
	refused   atomic.Int64
}

func (r *recorder) OnAllocate(BlockInfo) { r.allocated.Add(1) }
func (r *recorder) OnDestroy(BlockInfo)  { r.destroyed.Add(1) }
func (r *recorder) OnFree(BlockInfo)     { r.freed.Add(1) }
func (r *recorder) OnUpgrade(_ BlockInfo, ok bool) {
	if ok {
		r.upgraded.Add(1)
	} else {
		r.refused.Add(1)
	}
}

// observe installs a fresh recorder for the duration of the test.
func observe(t *testing.T) *recorder {
	t.Helper()
	rec := &recorder{}
	SetObserver(rec)
	t.Cleanup(func() { SetObserver(nil) })
	return rec
}
