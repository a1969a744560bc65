package ptr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func TestDefaultDeleter_ClosesCloser(t *testing.T) {
	c := &closer{}
	s := New(c)
	s.Release()
	assert.Equal(t, 1, c.closed)
}

func TestDefaultDeleter_CloseErrorIsNotFatal(t *testing.T) {
	c := &closer{err: errors.New("boom")}
	assert.NotPanics(t, func() { DefaultDeleter(c) })
	assert.Equal(t, 1, c.closed)
}

func TestDefaultDeleter_PlainValueAndNil(t *testing.T) {
	v := 5
	assert.NotPanics(t, func() { DefaultDeleter(&v) })
	assert.NotPanics(t, func() { DefaultDeleter[int](nil) })
}

type countingCloser struct {
	closed *int
}

func (c *countingCloser) Close() error {
	*c.closed++
	return nil
}

func TestMake_ClosesInPlaceCloser(t *testing.T) {
	closed := 0
	s := Make(countingCloser{closed: &closed})
	s.Release()
	assert.Equal(t, 1, closed)
}
