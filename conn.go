package halcyon

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/halcyon-irc/halcyon/ircmsg"
)

// readPollTimeout bounds how long a single Think() call may wait for bytes
// on the socket. It must stay short enough that Think never blocks for a
// perceptible amount of time (SPEC_FULL.md §5).
const readPollTimeout = 50 * time.Millisecond

// handshakeBudget is the maximum wall-clock time the registration state
// machine is allowed to take before HandshakeTimeout fires.
const handshakeBudget = 45 * time.Second

// transport wraps a plain or TLS net.Conn with the non-blocking,
// short-timeout read discipline Think() needs, plus the line framer that
// turns its byte stream into discrete messages.
type transport struct {
	conn    net.Conn
	framer  ircmsg.Framer
	scratch [4096]byte

	// logWrite, if set, is called with every outbound line after it has
	// been written successfully. It lets a single hook cover both
	// Client.send and the registration state machine's direct writes.
	logWrite func(line string)
}

// dial resolves and connects to cfg's host:port, performing a TLS
// handshake (with SNI set to the target hostname) when cfg.SSL() is set.
func dial(cfg *Config) (*transport, error) {
	addr := net.JoinHostPort(cfg.Hostname(), strconv.Itoa(cfg.Port()))

	rawConn, err := net.DialTimeout("tcp", addr, 15*time.Second)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}

	if !cfg.SSL() {
		return &transport{conn: rawConn}, nil
	}

	tlsConf := &tls.Config{ServerName: cfg.Hostname()}
	if certFile, keyFile := cfg.Certificate(), cfg.Key(); certFile != "" && keyFile != "" {
		cert, cerr := tls.LoadX509KeyPair(certFile, keyFile)
		if cerr != nil {
			// Certificate loading failures do not prevent a
			// non-authenticating TLS session: the failure is logged and the
			// handshake proceeds without a client certificate.
			logrus.WithError(cerr).Warn("halcyon: could not load client certificate; continuing without it")
		} else {
			tlsConf.Certificates = []tls.Certificate{cert}
		}
	}

	tlsConn := tls.Client(rawConn, tlsConf)
	tlsConn.SetDeadline(time.Now().Add(15 * time.Second))
	if err := tlsConn.Handshake(); err != nil {
		rawConn.Close()
		return nil, &TransportError{Op: "tls-handshake", Err: err}
	}
	tlsConn.SetDeadline(time.Time{})

	return &transport{conn: tlsConn}, nil
}

// poll performs at most one non-blocking read and returns every complete
// line the framer can now produce. A read timeout (no data currently
// available) is not an error; it yields zero lines.
func (t *transport) poll() ([]string, error) {
	t.conn.SetReadDeadline(time.Now().Add(readPollTimeout))
	n, err := t.conn.Read(t.scratch[:])
	if n > 0 {
		t.framer.Feed(t.scratch[:n])
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			// No data within the poll window; not a failure.
		} else {
			return t.drain(), &TransportError{Op: "read", Err: err}
		}
	}

	return t.drain(), nil
}

// drain extracts every complete line currently buffered in the framer.
func (t *transport) drain() []string {
	var lines []string
	for {
		line, ok, err := t.framer.Next()
		if err != nil {
			// LineTooLong: the framer has already resynced; keep draining.
			continue
		}
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

// writeLine sends one CRLF-terminated line. The caller must have already
// sanitised arguments (no embedded CR/LF); Message.Bytes() strips any that
// slip through.
func (t *transport) writeLine(raw []byte) error {
	_, err := t.conn.Write(append(raw, '\r', '\n'))
	if err != nil {
		return &TransportError{Op: "write", Err: errors.WithStack(err)}
	}
	if t.logWrite != nil {
		t.logWrite(string(raw))
	}
	return nil
}

func (t *transport) close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
