package wire

import "fmt"

// ProtocolError reports a malformed frame or payload: bad length prefix,
// invalid JSON, an unknown message type, or a missing declared member.
// The peer sent bytes we could read but not understand.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// TransportError reports an I/O failure while moving a frame: timeout,
// short read, dropped connection. The caller decides whether to retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
