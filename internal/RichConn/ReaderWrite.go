package RichConn

import (
	"bufio"
	"io"
)

// ReaderWriter is a buffered pair whose writer remembers the first error, so
// a broken connection fails every later write the same way.
type ReaderWriter struct {
	*bufio.ReadWriter
	writeErr error
}

func NewReaderWriter(rw io.ReadWriter, bufSize int) *ReaderWriter {
	return &ReaderWriter{
		ReadWriter: bufio.NewReadWriter(bufio.NewReaderSize(rw, bufSize), bufio.NewWriterSize(rw, bufSize)),
	}
}

func (pThis *ReaderWriter) Write(p []byte) (int, error) {
	if pThis.writeErr != nil {
		return 0, pThis.writeErr
	}
	n, err := pThis.Writer.Write(p)
	if err != nil {
		pThis.writeErr = err
	}
	return n, err
}

// WriteFlush writes p and flushes it in one step.
func (pThis *ReaderWriter) WriteFlush(p []byte) error {
	if _, err := pThis.Write(p); err != nil {
		return err
	}
	return pThis.Flush()
}

func (pThis *ReaderWriter) Flush() error {
	if pThis.writeErr != nil {
		return pThis.writeErr
	}
	if pThis.Writer.Buffered() == 0 {
		return nil
	}
	if err := pThis.Writer.Flush(); err != nil {
		pThis.writeErr = err
		return err
	}
	return nil
}
