package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingPushPop(t *testing.T) {
	var r Ring
	require.True(t, r.IsEmpty())

	require.True(t, r.Push(1))
	require.True(t, r.Push(2))
	require.Equal(t, 2, r.Available())

	b, ok := r.Pop()
	require.True(t, ok)
	require.Equal(t, byte(1), b)
	b, ok = r.Pop()
	require.True(t, ok)
	require.Equal(t, byte(2), b)

	_, ok = r.Pop()
	require.False(t, ok)
}

func TestRingOccupancyBound(t *testing.T) {
	var r Ring
	for i := 0; i < RingSize; i++ {
		require.True(t, r.Push(byte(i)))
	}
	require.Equal(t, RingSize, r.Available())
	require.Equal(t, 0, r.Free())
	require.False(t, r.Push(0xFF), "full ring must reject")

	out := make([]byte, RingSize+4)
	n := r.Read(out)
	require.Equal(t, RingSize, n)
	for i := 0; i < RingSize; i++ {
		require.Equal(t, byte(i), out[i])
	}
	require.True(t, r.IsEmpty())
}

func TestRingCounterWrap(t *testing.T) {
	var r Ring
	// Drive the uint8 counters well past 255.
	for round := 0; round < 40; round++ {
		n := r.Write([]byte{byte(round), byte(round + 1), byte(round + 2)})
		require.Equal(t, 3, n)
		buf := make([]byte, 3)
		require.Equal(t, 3, r.Read(buf))
		require.Equal(t, []byte{byte(round), byte(round + 1), byte(round + 2)}, buf)
		require.LessOrEqual(t, r.Available(), RingSize)
	}
}

func TestRingPartialWrite(t *testing.T) {
	var r Ring
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	require.Equal(t, RingSize, r.Write(data))
	require.Equal(t, 0, r.Write(data))

	r.Reset()
	require.True(t, r.IsEmpty())
	require.Equal(t, RingSize, r.Free())
}
