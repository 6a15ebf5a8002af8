package rserve

import (
	"testing"

	"github.com/rohanthewiz/assert"
)

func TestConnBufferInitial(t *testing.T) {
	b := newConnBuffer()
	assert.Equal(t, len(b.buf), initialBufferCapacity)
	assert.Equal(t, b.readOffset, 0)
	assert.Equal(t, b.parseOffset, 0)
	assert.Equal(t, len(b.window()), 0)
	assert.Equal(t, len(b.free()), initialBufferCapacity)
	assert.False(t, b.full())
}

func TestConnBufferGrow(t *testing.T) {
	b := newConnBuffer()
	n := copy(b.buf, "hello world")
	b.readOffset = n

	assert.True(t, b.grow(8192))
	assert.Equal(t, len(b.buf), 8192)
	assert.Equal(t, string(b.buf[:n]), "hello world")

	// already big enough: no-op
	assert.True(t, b.grow(100))
	assert.Equal(t, len(b.buf), 8192)

	// the hard cap
	assert.True(t, b.grow(maxBufferCapacity))
	assert.False(t, b.grow(maxBufferCapacity+1))
	assert.Equal(t, len(b.buf), maxBufferCapacity)
}

func TestConnBufferShift(t *testing.T) {
	b := newConnBuffer()
	n := copy(b.buf, "consumedREMAINING")
	b.readOffset = n
	b.parseOffset = len("consumed")

	b.shift()
	assert.Equal(t, b.parseOffset, 0)
	assert.Equal(t, b.readOffset, len("REMAINING"))
	assert.Equal(t, string(b.window()), "REMAINING")
}

func TestConnBufferShiftOverlapping(t *testing.T) {
	b := newConnBuffer()
	n := copy(b.buf, "abXXXXXXXXXX") // tail longer than the consumed head
	b.readOffset = n
	b.parseOffset = 2

	b.shift()
	assert.Equal(t, string(b.window()), "XXXXXXXXXX")
}

func TestConnBufferShiftNothingConsumed(t *testing.T) {
	b := newConnBuffer()
	n := copy(b.buf, "partial")
	b.readOffset = n

	b.shift()
	assert.Equal(t, b.readOffset, n)
	assert.Equal(t, string(b.window()), "partial")
}

func TestConnBufferInvariants(t *testing.T) {
	b := newConnBuffer()
	steps := []func(){
		func() { b.readOffset += copy(b.free(), "GET / HTTP/1.1\r\n\r\n") },
		func() { b.parseOffset += 10 },
		func() { b.shift() },
		func() { b.grow(9000) },
		func() { b.shift() },
	}
	for _, step := range steps {
		step()
		assert.True(t, 0 <= b.parseOffset)
		assert.True(t, b.parseOffset <= b.readOffset)
		assert.True(t, b.readOffset <= len(b.buf))
		assert.True(t, len(b.buf) <= maxBufferCapacity)
	}
}
