package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagScannerSplitsCodes(t *testing.T) {
	s := NewDiagScanner(func(c byte) bool { return c == 0x24 })

	text, codes := s.Feed([]byte("ok\n"))
	require.Equal(t, "ok\n", string(text))
	require.Empty(t, codes)

	text, codes = s.Feed([]byte{'a', SyncByte, 0x24, 'b'})
	require.Equal(t, "ab", string(text))
	require.Equal(t, []byte{0x24}, codes)
}

func TestDiagScannerAcrossFeeds(t *testing.T) {
	s := NewDiagScanner(nil)

	text, codes := s.Feed([]byte{'x', SyncByte})
	require.Equal(t, "x", string(text))
	require.Empty(t, codes)

	_, codes = s.Feed([]byte{0x31})
	require.Equal(t, []byte{0x31}, codes)
}

func TestDiagScannerRejectsInvalid(t *testing.T) {
	s := NewDiagScanner(func(c byte) bool { return false })

	text, codes := s.Feed([]byte{SyncByte, 'z'})
	require.Equal(t, []byte{SyncByte, 'z'}, text)
	require.Empty(t, codes)
}
