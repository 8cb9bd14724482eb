package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterruptsPendingUntilEnabled(t *testing.T) {
	var ic Interrupts
	var order []int
	for v := 0; v < numVectors; v++ {
		vec := v
		ic.Attach(vec, func() {
			require.False(t, ic.Enabled(), "handlers run masked")
			order = append(order, vec)
		})
	}

	ic.Raise(VecTWI)
	ic.Raise(VecPinGroup1)
	require.Empty(t, order)

	ic.Enable()
	require.Equal(t, []int{VecPinGroup1, VecTWI}, order)
	require.True(t, ic.Enabled())

	s := ic.Disable()
	ic.Raise(VecTimer)
	require.Len(t, order, 2)
	ic.Restore(s)
	require.Equal(t, []int{VecPinGroup1, VecTWI, VecTimer}, order)
	require.Equal(t, uint32(1), ic.Delivered(VecTimer))
}

func TestInterruptsNestedRaise(t *testing.T) {
	var ic Interrupts
	var order []int
	ic.Attach(VecUARTTx, func() {
		order = append(order, VecUARTTx)
		if len(order) < 3 {
			ic.Raise(VecUARTTx)
		}
	})
	ic.Enable()
	ic.Raise(VecUARTTx)
	require.Len(t, order, 3)
}

func TestInterruptsFrozen(t *testing.T) {
	var ic Interrupts
	ran := false
	ic.Attach(VecTimer, func() { ran = true })
	ic.Enable()
	ic.freeze()

	ic.Raise(VecTimer)
	ic.Restore(1)
	ic.Enable()
	require.False(t, ran)
	require.False(t, ic.Enabled())
}
