package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	require.Equal(t, "/dev/ttyUSB0", cfg.Device)
	require.Equal(t, 115200, cfg.Baud)
	require.Equal(t, 100, cfg.ReadTimeout)
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.ErrorIs(t, err, ErrNoConfig)
}

func TestClosedPort(t *testing.T) {
	p := &NativePort{}
	_, err := p.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.Write([]byte{1})
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, p.Flush(), ErrClosed)
	require.NoError(t, p.Close())
}
