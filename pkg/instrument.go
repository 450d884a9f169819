package scope

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// QueryReadCap is the largest text response accepted from a query.
const QueryReadCap = 1024 * 1024

// Instrument is the control link to the oscilloscope. Implementations are
// owned by a single acquisition loop and need not be safe for concurrent use.
type Instrument interface {
	// Write sends one command without waiting for a response.
	Write(command string) error
	// Query sends a command and returns the response, up to QueryReadCap bytes.
	Query(command string) ([]byte, error)
	// ReadRaw reads exactly n bytes of a pending binary response.
	ReadRaw(n int) ([]byte, error)
	Close() error
}

// BulkReader is implemented by links that can drain a binary response whose
// size is not announced, such as a file transfer.
type BulkReader interface {
	ReadAvailable(limit int) ([]byte, error)
}

// SocketInstrument talks SCPI over a raw TCP socket.
type SocketInstrument struct {
	Address string
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func DialInstrument(ctx context.Context, address string, timeout time.Duration) (*SocketInstrument, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ErrTransport{Command: "dial " + address, Err: err}
	}
	return NewSocketInstrument(conn, timeout), nil
}

// NewSocketInstrument wraps an established connection.
func NewSocketInstrument(conn net.Conn, timeout time.Duration) *SocketInstrument {
	return &SocketInstrument{
		Address: conn.RemoteAddr().String(),
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, 64*1024),
		timeout: timeout,
	}
}

func (s *SocketInstrument) deadline() time.Time {
	if s.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.timeout)
}

func (s *SocketInstrument) Write(command string) error {
	if err := s.conn.SetWriteDeadline(s.deadline()); err != nil {
		return &ErrTransport{Command: command, Err: err}
	}
	if _, err := io.WriteString(s.conn, command+"\n"); err != nil {
		return &ErrTransport{Command: command, Err: err}
	}
	return nil
}

func (s *SocketInstrument) Query(command string) ([]byte, error) {
	if err := s.Write(command); err != nil {
		return nil, err
	}
	if err := s.conn.SetReadDeadline(s.deadline()); err != nil {
		return nil, &ErrTransport{Command: command, Err: err}
	}
	response := make([]byte, 0, 128)
	for len(response) < QueryReadCap {
		b, err := s.reader.ReadByte()
		if err != nil {
			return response, &ErrTransport{Command: command, Err: err}
		}
		response = append(response, b)
		if b == '\n' {
			break
		}
	}
	return response, nil
}

func (s *SocketInstrument) ReadRaw(n int) ([]byte, error) {
	if err := s.conn.SetReadDeadline(s.deadline()); err != nil {
		return nil, &ErrTransport{Command: "read", Err: err}
	}
	buffer := make([]byte, n)
	read, err := io.ReadFull(s.reader, buffer)
	if err != nil {
		return buffer[:read], &ErrTransport{Command: fmt.Sprintf("read %d bytes", n), Err: err}
	}
	return buffer, nil
}

// ReadAvailable reads until the link stays silent for the configured timeout
// or limit bytes have arrived.
func (s *SocketInstrument) ReadAvailable(limit int) ([]byte, error) {
	data := make([]byte, 0, 16*1024)
	chunk := make([]byte, 16*1024)
	for len(data) < limit {
		if err := s.conn.SetReadDeadline(s.deadline()); err != nil {
			return data, &ErrTransport{Command: "read", Err: err}
		}
		n, err := s.reader.Read(chunk[:min(len(chunk), limit-len(data))])
		data = append(data, chunk[:n]...)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) && len(data) > 0 {
				return data, nil
			}
			return data, &ErrTransport{Command: "read", Err: err}
		}
	}
	return data, nil
}

func (s *SocketInstrument) Close() error {
	return s.conn.Close()
}
