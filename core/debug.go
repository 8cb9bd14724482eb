package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a runtime event for post-mortem analysis
type TraceEvent struct {
	Kind   uint8  // Event kind (Evt*)
	Arg    uint8  // Kind-dependent small argument (slot, pin, code)
	Millis uint16 // Virtual clock at the event
	Value  uint16 // Kind-dependent value
}

// Event kinds
const (
	EvtTaskArm   = 1 // Task armed: Arg=slot, Value=deadline
	EvtTaskFire  = 2 // Task fired: Arg=slot, Value=deadline
	EvtFatal     = 3 // Fatal: Arg=code
	EvtTWIDone   = 4 // Bus transaction finished: Arg=address, Value=result
	EvtRxOverrun = 5 // UART byte dropped: Value=overrun count
	EvtBoot      = 6 // Boot: Arg=reset cause, Value=boot count
)

// TraceRingSize is the number of events kept.
const TraceRingSize = 32

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, glog, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Trace is a fixed ring of the most recent runtime events. Record is safe
// from interrupt context.
type Trace struct {
	irq  InterruptController
	ring [TraceRingSize]TraceEvent
	head uint8
}

// Record captures an event in the ring, overwriting the oldest.
func (t *Trace) Record(kind, arg uint8, millis, value uint16) {
	s := t.irq.Disable()
	defer t.irq.Restore(s)

	t.ring[t.head%TraceRingSize] = TraceEvent{
		Kind:   kind,
		Arg:    arg,
		Millis: millis,
		Value:  value,
	}
	t.head++
}

// Events returns the recorded events, oldest first.
func (t *Trace) Events() []TraceEvent {
	s := t.irq.Disable()
	defer t.irq.Restore(s)

	var out []TraceEvent
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := t.ring[(t.head+i)%TraceRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump writes the trace through the debug writer (call on halt)
func (t *Trace) Dump() {
	if !debugEnabled || debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Dump ===")
	start := t.head
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := &t.ring[(start+i)%TraceRingSize]
		if evt.Kind == 0 {
			continue
		}
		debugPrintln("[TRACE] " + eventName(evt.Kind) +
			" arg=" + itoa(int(evt.Arg)) +
			" ms=" + itoa(int(evt.Millis)) +
			" v=" + itoa(int(evt.Value)))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// Clear empties the trace.
func (t *Trace) Clear() {
	for i := range t.ring {
		t.ring[i] = TraceEvent{}
	}
	t.head = 0
}

func eventName(kind uint8) string {
	switch kind {
	case EvtTaskArm:
		return "TASK_ARM"
	case EvtTaskFire:
		return "TASK_FIRE"
	case EvtFatal:
		return "FATAL!"
	case EvtTWIDone:
		return "TWI_DONE"
	case EvtRxOverrun:
		return "RX_OVERRUN"
	case EvtBoot:
		return "BOOT"
	default:
		return "UNKNOWN"
	}
}
