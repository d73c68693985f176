package device

import (
	"errors"
	"time"
)

// mockTransport serves canned reports from a FIFO queue. Timed reads
// (the flush path) report no data so queued handshake replies are not
// consumed early; blocking reads pop the queue. An empty queue behaves
// like a silent device.
type mockTransport struct {
	queue  [][]byte
	writes [][]byte

	failReads  bool
	failWrites bool
	closed     bool
}

var errMockIO = errors.New("mock transport failure")

func (m *mockTransport) push(chunks ...[]byte) {
	m.queue = append(m.queue, chunks...)
}

func (m *mockTransport) Write(p []byte) (int, error) {
	if m.failWrites {
		return 0, errMockIO
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	m.writes = append(m.writes, buf)
	return len(p), nil
}

func (m *mockTransport) Read(p []byte, timeout time.Duration) (int, error) {
	if m.failReads {
		return 0, errMockIO
	}
	if timeout > 0 {
		return 0, nil
	}
	if len(m.queue) == 0 {
		return 0, nil
	}
	chunk := m.queue[0]
	m.queue = m.queue[1:]
	return copy(p, chunk), nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}
