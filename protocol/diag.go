package protocol

// SyncByte precedes the fatal code a halting device writes to its serial
// link.
const SyncByte = 0x7E

// DiagValidator reports whether a byte following SyncByte is a plausible
// fatal code. Ordinary console traffic may contain SyncByte too.
type DiagValidator func(code byte) bool

// DiagScanner separates halt diagnostics from console text in a serial
// byte stream.
type DiagScanner struct {
	valid   DiagValidator
	pending bool // SyncByte seen, waiting for the code
	text    []byte
}

// NewDiagScanner creates a scanner. A nil validator accepts every code.
func NewDiagScanner(valid DiagValidator) *DiagScanner {
	if valid == nil {
		valid = func(byte) bool { return true }
	}
	return &DiagScanner{valid: valid}
}

// Feed consumes data, returning the console text seen and any fatal codes
// found. The returned text slice is reused by the next call.
func (s *DiagScanner) Feed(data []byte) (text []byte, codes []byte) {
	s.text = s.text[:0]
	for _, b := range data {
		if s.pending {
			s.pending = false
			if s.valid(b) {
				codes = append(codes, b)
				continue
			}
			// Not a diagnostic after all
			s.text = append(s.text, SyncByte)
		}
		if b == SyncByte {
			s.pending = true
			continue
		}
		s.text = append(s.text, b)
	}
	return s.text, codes
}

// Reset drops a partially seen diagnostic
func (s *DiagScanner) Reset() {
	s.pending = false
	s.text = s.text[:0]
}
