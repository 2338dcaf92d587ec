package RichConn

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnRichReadTimeout(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c := NewConnRich(a, 20*time.Millisecond, 0)
	buf := make([]byte, 1)
	_, err := c.Read(buf)
	require.Error(t, err)
	ne, ok := err.(net.Error)
	require.True(t, ok)
	require.True(t, ne.Timeout())
}

func TestReaderWriterStickyError(t *testing.T) {
	a, b := net.Pipe()
	b.Close()

	rw := NewReaderWriter(NewConnRich(a, 0, 0), 16)
	err := rw.WriteFlush([]byte("OPTIONS * RTSP/1.0\r\n\r\n"))
	require.Error(t, err)
	_, err2 := rw.Write([]byte("x"))
	require.Equal(t, err, err2)
	a.Close()
}
