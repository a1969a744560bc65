package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeak_ZeroValue(t *testing.T) {
	var w Weak[int]
	assert.True(t, w.Expired())
	assert.EqualValues(t, 0, w.UseCount())

	s := w.Lock()
	assert.False(t, s.Valid())
	w.Release()
}

func TestWeak_DoesNotChangeStrongCount(t *testing.T) {
	s := Make(1)
	w := NewWeak(&s)

	assert.EqualValues(t, 1, s.UseCount())
	assert.EqualValues(t, 1, w.UseCount())
	assert.EqualValues(t, 2, s.ctrl.weakCount())

	w.Release()
	assert.EqualValues(t, 1, s.ctrl.weakCount())
	s.Release()
}

func TestWeak_KeepsBlockAfterPayloadIsGone(t *testing.T) {
	rec := observe(t)

	p, destroyed := newTracked(1)
	s := New(p)
	w := s.Weak()
	s.Release()

	assert.EqualValues(t, 1, destroyed.Load())
	assert.EqualValues(t, 1, rec.destroyed.Load())
	assert.EqualValues(t, 0, rec.freed.Load(), "the weak handle must keep the block")
	assert.True(t, w.Expired())

	locked := w.Lock()
	assert.False(t, locked.Valid())
	assert.EqualValues(t, 1, rec.refused.Load())

	w.Release()
	assert.EqualValues(t, 1, rec.freed.Load())
}

func TestWeak_LockIncrementsByOne(t *testing.T) {
	s := Make("payload")
	w := s.Weak()
	before := s.UseCount()

	locked := w.Lock()
	require.True(t, locked.Valid())
	assert.Equal(t, before+1, s.UseCount())
	assert.Same(t, s.Get(), locked.Get())

	locked.Release()
	s.Release()
	assert.True(t, w.Expired())
	w.Release()
}

func TestWeak_CloneAssignMove(t *testing.T) {
	rec := observe(t)

	a, b := Make(1), Make(2)
	wa := a.Weak()
	wb := wa.Clone()
	assert.EqualValues(t, 3, a.ctrl.weakCount())

	wb.AssignShared(&b)
	assert.EqualValues(t, 2, a.ctrl.weakCount())
	assert.EqualValues(t, 2, b.ctrl.weakCount())

	wc := Weak[int]{}
	wc.Assign(&wa)
	assert.EqualValues(t, 3, a.ctrl.weakCount())

	wd := wc.Move()
	assert.True(t, wc.Expired())
	assert.EqualValues(t, 3, a.ctrl.weakCount())

	wd.MoveFrom(&wb)
	assert.EqualValues(t, 2, a.ctrl.weakCount())
	assert.Nil(t, wb.ctrl)

	wd.MoveFrom(&wd)
	assert.EqualValues(t, 2, b.ctrl.weakCount())

	wa.Swap(&wd)
	locked := wa.Lock()
	assert.Equal(t, 2, locked.Value())
	locked.Release()

	a.Release()
	b.Release()
	wa.Release()
	wd.Release()
	assert.EqualValues(t, 2, rec.freed.Load())
}

// person links to its partner weakly, so two partners never keep each other alive.
type person struct {
	name    string
	partner Weak[person]
}

func (p *person) Destroy() {
	p.partner.Release()
}

func TestWeak_PartnersDoNotLeak(t *testing.T) {
	rec := observe(t)

	lucy := Make(person{name: "Lucy"})
	ricky := Make(person{name: "Ricky"})
	lucy.Get().partner.AssignShared(&ricky)
	ricky.Get().partner.AssignShared(&lucy)

	assert.EqualValues(t, 1, lucy.UseCount())
	assert.EqualValues(t, 1, ricky.UseCount())

	partner := lucy.Get().partner.Lock()
	assert.Equal(t, "Ricky", partner.Get().name)
	partner.Release()

	lucy.Release()
	ricky.Release()
	assert.EqualValues(t, 2, rec.destroyed.Load())
	assert.EqualValues(t, 2, rec.freed.Load())
}
