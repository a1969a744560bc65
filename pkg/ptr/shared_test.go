package ptr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShared_ZeroValueIsNull(t *testing.T) {
	var s Shared[int]
	assert.False(t, s.Valid())
	assert.Nil(t, s.Get())
	assert.EqualValues(t, 0, s.UseCount())
	assert.False(t, s.Unique())

	s.Release() // no-op
	s.Reset()   // no-op
	assert.Panics(t, func() { _ = s.Value() })
}

func TestShared_CloneCountsEveryCopy(t *testing.T) {
	h := Make(7)
	copies := []Shared[int]{h}
	for n := 2; n <= 10; n++ {
		copies = append(copies, h.Clone())
		for i := range copies {
			require.EqualValues(t, n, copies[i].UseCount())
		}
	}

	for n := len(copies); n > 1; n-- {
		copies[n-1].Release()
		for i := 0; i < n-1; i++ {
			require.EqualValues(t, n-1, copies[i].UseCount())
		}
	}
	assert.True(t, copies[0].Unique())
	copies[0].Release()
}

func TestShared_MakeCloneReset(t *testing.T) {
	h1 := Make(42)
	assert.EqualValues(t, 1, h1.UseCount())

	h2 := h1.Clone()
	assert.EqualValues(t, 2, h1.UseCount())
	assert.EqualValues(t, 2, h2.UseCount())

	h1.Reset()
	assert.False(t, h1.Valid())
	assert.EqualValues(t, 1, h2.UseCount())
	assert.Equal(t, 42, h2.Value())

	h2.Release()
}

func TestShared_NewUsesDestroyer(t *testing.T) {
	p, destroyed := newTracked(5)
	s := New(p)
	assert.Same(t, p, s.Get())
	assert.Equal(t, 5, s.Get().val)

	c := s.Clone()
	s.Release()
	assert.EqualValues(t, 0, destroyed.Load())

	c.Release()
	assert.EqualValues(t, 1, destroyed.Load())
}

func TestShared_NewWithDeleter(t *testing.T) {
	var deleted []*int
	v := 3
	s := NewWithDeleter(&v, func(p *int) { deleted = append(deleted, p) })
	s.Release()
	require.Len(t, deleted, 1)
	assert.Same(t, &v, deleted[0])
}

func TestShared_NewWithNilDeleterFallsBackToDefault(t *testing.T) {
	p, destroyed := newTracked(1)
	s := NewWithDeleter(p, nil)
	s.Release()
	assert.EqualValues(t, 1, destroyed.Load())
}

func TestShared_NewNilPointerAllocatesBlock(t *testing.T) {
	s := New[int](nil)
	assert.False(t, s.Valid())
	assert.EqualValues(t, 1, s.UseCount())
	s.Release()
}

func TestShared_FailedBlockConstructionRunsDeleter(t *testing.T) {
	SetObserver(panicOnAllocate{&recorder{}})
	defer SetObserver(nil)

	v, deleted := 9, 0
	assert.Panics(t, func() {
		NewWithDeleter(&v, func(*int) { deleted++ })
	})
	assert.Equal(t, 1, deleted)
}

type panicOnAllocate struct{ *recorder }

func (panicOnAllocate) OnAllocate(BlockInfo) { panic("allocation failed") }

func TestShared_AssignReleasesPreviousValue(t *testing.T) {
	p1, d1 := newTracked(1)
	p2, d2 := newTracked(2)
	a, b := New(p1), New(p2)

	a.Assign(&b)
	assert.EqualValues(t, 1, d1.Load(), "a held the last reference to p1")
	assert.EqualValues(t, 0, d2.Load())
	assert.Same(t, p2, a.Get())
	assert.EqualValues(t, 2, a.UseCount())

	a.Assign(&a)
	assert.EqualValues(t, 2, a.UseCount())
	assert.EqualValues(t, 0, d2.Load())

	a.Release()
	b.Release()
	assert.EqualValues(t, 1, d2.Load())
}

func TestShared_MoveLeavesSourceNull(t *testing.T) {
	a := Make("value")
	b := a.Move()
	assert.False(t, a.Valid())
	assert.EqualValues(t, 0, a.UseCount())
	assert.EqualValues(t, 1, b.UseCount())
	assert.Equal(t, "value", b.Value())

	rec := observe(t)
	c := Make("other")
	c.MoveFrom(&b)
	assert.EqualValues(t, 1, rec.destroyed.Load(), "c's previous value must be released")
	assert.False(t, b.Valid())
	assert.Equal(t, "value", c.Value())

	c.MoveFrom(&c)
	assert.EqualValues(t, 1, c.UseCount())
	c.Release()
}

func TestShared_SwapExchangesPointers(t *testing.T) {
	a, b := Make(100), Make(200)
	extra := b.Clone()

	pa, pb := a.Get(), b.Get()
	a.Swap(&b)
	assert.Same(t, pb, a.Get())
	assert.Same(t, pa, b.Get())
	assert.EqualValues(t, 2, a.UseCount())
	assert.EqualValues(t, 1, b.UseCount())

	a.Release()
	b.Release()
	extra.Release()
}

func TestShared_ResetLastReferenceDestroysPayload(t *testing.T) {
	p, destroyed := newTracked(1)
	s := New(p)
	s.Reset()
	assert.False(t, s.Valid())
	assert.EqualValues(t, 1, destroyed.Load())
}

func TestShared_FromWeak(t *testing.T) {
	s := Make(1)
	w := s.Weak()

	up, err := FromWeak(w)
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.UseCount())
	up.Release()

	s.Release()
	_, err = FromWeak(w)
	assert.True(t, errors.Is(err, ErrExpired))
	assert.Equal(t, "bad_weak_ptr", err.Error())

	_, err = FromWeak(Weak[int]{})
	assert.ErrorIs(t, err, ErrExpired)

	w.Release()
}

type pair struct {
	left  int
	right int
}

func TestShared_AliasKeepsOwnerAlive(t *testing.T) {
	rec := observe(t)

	owner := Make(pair{left: 1, right: 2})
	right := Alias(&owner, &owner.Get().right)
	assert.EqualValues(t, 2, owner.UseCount())
	assert.EqualValues(t, 2, right.UseCount())

	owner.Release()
	assert.EqualValues(t, 0, rec.destroyed.Load())
	assert.Equal(t, 2, right.Value())

	right.Release()
	assert.EqualValues(t, 1, rec.destroyed.Load())
	assert.EqualValues(t, 1, rec.freed.Load())

	var null Shared[pair]
	orphan := &pair{}
	aliased := Alias(&null, &orphan.left)
	assert.False(t, aliased.Valid())
}
