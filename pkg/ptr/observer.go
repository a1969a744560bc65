package ptr

import "sync/atomic"

// BlockInfo describes a control block to observers.
type BlockInfo struct {
	ID   uint64 `json:"id"`
	Kind Kind   `json:"kind"`
	Type string `json:"type"`
}

// Observer receives control block lifecycle events. Implementations must be safe for
// concurrent use and must not call back into handles of the observed block.
type Observer interface {
	// OnAllocate is called once a block is initialized (strong=1, weak=1).
	OnAllocate(info BlockInfo)
	// OnDestroy is called once the payload's lifetime ended: strong reached zero (even
	// when the deleter panicked) or the in-place construction failed.
	OnDestroy(info BlockInfo)
	// OnFree is called after the block was retired (weak reached zero).
	OnFree(info BlockInfo)
	// OnUpgrade is called for every weak to strong upgrade attempt.
	OnUpgrade(info BlockInfo, ok bool)
}

type observerBox struct {
	Observer
}

var observer atomic.Pointer[observerBox]

// SetObserver installs a process-wide observer. Passing nil removes the current one.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerBox{Observer: o})
}

// Observers fans events out to every given observer in order.
func Observers(list ...Observer) Observer {
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) OnAllocate(info BlockInfo) {
	for _, o := range m {
		o.OnAllocate(info)
	}
}

func (m multiObserver) OnDestroy(info BlockInfo) {
	for _, o := range m {
		o.OnDestroy(info)
	}
}

func (m multiObserver) OnFree(info BlockInfo) {
	for _, o := range m {
		o.OnFree(info)
	}
}

func (m multiObserver) OnUpgrade(info BlockInfo, ok bool) {
	for _, o := range m {
		o.OnUpgrade(info, ok)
	}
}

func notifyAllocate(c *control) {
	if box := observer.Load(); box != nil {
		box.OnAllocate(c.info())
	}
}

func notifyDestroy(c *control) {
	if box := observer.Load(); box != nil {
		box.OnDestroy(c.info())
	}
}

func notifyFree(c *control) {
	if box := observer.Load(); box != nil {
		box.OnFree(c.info())
	}
}

func notifyUpgrade(c *control, ok bool) {
	if box := observer.Load(); box != nil {
		box.OnUpgrade(c.info(), ok)
	}
}
