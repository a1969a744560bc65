package ptr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ x, y int }

func TestMake_ConstructsEqualValue(t *testing.T) {
	s := Make(point{x: 1, y: 2})
	require.True(t, s.Valid())
	assert.Equal(t, point{x: 1, y: 2}, s.Value())
	assert.EqualValues(t, 1, s.UseCount())
	assert.Equal(t, KindInplace, s.ctrl.kind)
	s.Release()
}

func TestMake_PointsIntoBlockStorage(t *testing.T) {
	s := Make(42)
	b := s.ctrl.impl.(*inplaceBlock[int])
	assert.Same(t, b.object(), s.Get())
	assert.True(t, b.constructed)

	w := s.Weak()
	s.Release()
	assert.False(t, b.constructed, "payload lifetime ends with the last strong reference")
	assert.Equal(t, 0, b.storage)
	w.Release()
}

func TestMake_DestroysPayloadInPlace(t *testing.T) {
	p, destroyed := newTracked(3)
	s := Make(*p)
	s.Release()
	assert.EqualValues(t, 1, destroyed.Load())
}

func TestMakeFunc_ConstructsInPlace(t *testing.T) {
	var addr *point
	s, err := MakeFunc(func(v *point) error {
		addr = v
		v.x, v.y = 3, 4
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, addr, s.Get())
	assert.Equal(t, point{x: 3, y: 4}, s.Value())
	s.Release()
}

func TestMakeFunc_ErrorRetiresBlock(t *testing.T) {
	rec := observe(t)
	cause := errors.New("boom")

	s, err := MakeFunc(func(v *point) error { return cause })
	assert.ErrorIs(t, err, ErrConstruct)
	assert.ErrorIs(t, err, cause)
	assert.False(t, s.Valid())
	assert.EqualValues(t, 0, s.UseCount())

	assert.EqualValues(t, 1, rec.allocated.Load())
	assert.EqualValues(t, 1, rec.destroyed.Load(), "payload end is reported without a deleter run")
	assert.EqualValues(t, 1, rec.freed.Load())
}

func TestMakeFunc_PanicRetiresBlock(t *testing.T) {
	rec := observe(t)

	assert.PanicsWithValue(t, "ctor failed", func() {
		_, _ = MakeFunc(func(v *point) error { panic("ctor failed") })
	})
	assert.EqualValues(t, 1, rec.destroyed.Load())
	assert.EqualValues(t, 1, rec.freed.Load())
}
