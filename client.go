package halcyon

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halcyon-irc/halcyon/ircmsg"
	"github.com/halcyon-irc/halcyon/ircutil"
)

// Hooks is the client's event surface: a set of optional callbacks invoked
// synchronously from within Think(). Any hook left nil is simply skipped.
// Handlers registered via Client.Handle run alongside these for raw,
// command-keyed dispatch.
type Hooks struct {
	OnConnect          func(c *Client)
	OnDisconnect       func(c *Client, err error)
	OnReconnectAttempt func(c *Client, final bool)
	OnRaw              func(c *Client, msg *ircmsg.Message)
	OnNumeric          func(c *Client, msg *ircmsg.Message)
	OnError            func(c *Client, message string)
	OnChat             func(c *Client, src *ircmsg.Source, target, text string)
	OnNotice           func(c *Client, src *ircmsg.Source, target, text string)
	OnServerNotice     func(c *Client, target, text string)
	OnCTCP             func(c *Client, src *ircmsg.Source, target string, ctcp ircutil.CTCP)
	OnInvite           func(c *Client, src *ircmsg.Source, channel string)
	OnJoin             func(c *Client, channel string, src *ircmsg.Source)
	OnPart             func(c *Client, channel string, src *ircmsg.Source, reason string)
	OnKick             func(c *Client, channel string, src *ircmsg.Source, kicked, reason string)
	OnNick             func(c *Client, src *ircmsg.Source, to string)
	OnQuit             func(c *Client, src *ircmsg.Source, reason string)
	OnMode             func(c *Client, channel string, src *ircmsg.Source, modes []CMode)
}

// Client is a single, cooperatively-scheduled IRC connection: shadow
// channel/user state, a hookable event surface, and rehash-aware
// configuration, all driven by repeated Think() calls (SPEC_FULL.md §5). It
// spawns no goroutines of its own.
type Client struct {
	mu sync.RWMutex

	cfg       *Config
	tables    *Tables
	transport *transport
	reg       *registration
	reconnect *reconnectController
	handlers  *caller
	logger    *logrus.Logger

	rawLog     io.Writer
	rawLogFile *os.File

	Cmd   *Commands
	Hooks Hooks

	connected     bool
	currentNick   string
	stayDead      bool
	serverCreated time.Time
}

// ServerCreated returns the server's self-reported start time, parsed from
// RPL_CREATED, or the zero Time if none has been seen yet.
func (c *Client) ServerCreated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCreated
}

// New builds a client from cfg. It does not dial; the first Think() call
// performs the initial connection attempt.
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		tables:      NewTables(),
		handlers:    newCaller(),
		logger:      newLogger(cfg),
		currentNick: cfg.Nick(),
		reconnect:   newReconnectController(cfg.MaxReconnectAttempts(), time.Duration(cfg.AutoReconnectDelaySeconds())*time.Second),
	}
	c.Cmd = &Commands{c: c}
	c.setupRawLog(cfg)
	c.registerBuiltins()
	return c, nil
}

// setupRawLog wires the per-client raw-line log (SPEC_FULL.md §7): every
// inbound and outbound line is appended to LogFile when set, and echoed to
// stderr when PrintOutput is set. Either, both, or neither sink may be
// active; a LogFile that fails to open only produces a warning, since it
// must never prevent the client from connecting.
func (c *Client) setupRawLog(cfg *Config) {
	var sinks []io.Writer
	if path := cfg.LogFile(); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("could not open raw-line log file")
		} else {
			c.rawLogFile = f
			sinks = append(sinks, f)
		}
	}
	if cfg.PrintOutput() {
		sinks = append(sinks, os.Stderr)
	}
	if len(sinks) > 0 {
		c.rawLog = io.MultiWriter(sinks...)
	}
}

// logRawLine appends one raw wire line to the configured raw-line sinks, if
// any are active. direction is "->" for outbound, "<-" for inbound.
func (c *Client) logRawLine(direction, line string) {
	if c.rawLog == nil {
		return
	}
	io.WriteString(c.rawLog, time.Now().Format(time.RFC3339)+" "+direction+" "+line+"\n")
}

func newLogger(cfg *Config) *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel()); err == nil {
		l.SetLevel(lvl)
	}
	if cfg.LogFormat() == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Handle registers a raw handler for a command (or AllEvents). It returns
// an id usable with Unhandle.
func (c *Client) Handle(cmd string, h Handler) int { return c.handlers.AddHandler(cmd, h) }

// HandleFunc is the function-literal form of Handle.
func (c *Client) HandleFunc(cmd string, f func(c *Client, msg *ircmsg.Message)) int {
	return c.handlers.AddHandlerFunc(cmd, f)
}

// Unhandle removes a previously registered handler.
func (c *Client) Unhandle(cmd string, id int) { c.handlers.RemoveHandler(cmd, id) }

// CurrentNick returns the client's last-known nickname.
func (c *Client) CurrentNick() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentNick
}

func (c *Client) setCurrentNick(n string) {
	c.mu.Lock()
	c.currentNick = n
	c.mu.Unlock()
}

// Tables exposes the shadow channel/user state.
func (c *Client) Tables() *Tables { return c.tables }

// IsConnected reports whether the socket is currently established (which
// may be mid-registration, not necessarily Ready).
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsReady reports whether the registration handshake has completed.
func (c *Client) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg != nil && c.reg.state == regReady
}

// Think performs at most one bounded unit of work: either attempting (or
// continuing) a connection, or draining and dispatching whatever lines are
// currently available on the socket. It never blocks longer than the
// transport's short read-poll timeout and never starts a goroutine.
func (c *Client) Think(ctx context.Context) (Status, error) {
	c.mu.Lock()
	dead := c.stayDead || c.reconnect.isDead()
	c.mu.Unlock()
	if dead {
		return DeadDropMe, nil
	}

	if !c.IsConnected() {
		return c.attemptConnect()
	}

	lines, err := c.transport.poll()
	for _, line := range lines {
		c.logRawLine("<-", line)
		msg := ircmsg.Parse(line)
		c.route(msg)
	}

	if err != nil {
		c.handleDisconnect(err)
		return Alive, err
	}

	if !c.IsReady() && c.reg.expired() {
		herr := &HandshakeTimeout{Budget: handshakeBudget.String()}
		c.handleDisconnect(herr)
		return Alive, herr
	}

	select {
	case <-ctx.Done():
		return Alive, ctx.Err()
	default:
	}

	return Alive, nil
}

func (c *Client) route(msg *ircmsg.Message) {
	c.mu.RLock()
	reg := c.reg
	c.mu.RUnlock()

	if reg != nil && reg.state != regReady {
		ready, err := reg.handle(msg, c.transport, c.cfg, c.tables.Caps)
		if err != nil {
			c.logger.WithError(err).Warn("registration write failed")
		}
		if ready {
			c.reconnect.onHandshakeSuccess()
			if fn := c.Hooks.OnConnect; fn != nil {
				fn(c)
			}
		}
		// 005/CAP lines are still useful to general handlers (ISUPPORT
		// tracking, logging), so fall through to dispatch even pre-Ready.
	}

	c.handlers.dispatch(c, msg)
}

func (c *Client) attemptConnect() (Status, error) {
	now := time.Now()
	if !c.reconnect.readyToAttempt(now) {
		return Alive, nil
	}

	t, err := dial(c.cfg)
	if err != nil {
		if exhausted := c.reconnect.recordAttempt(); exhausted {
			if fn := c.Hooks.OnReconnectAttempt; fn != nil {
				fn(c, true)
			}
			return DeadDropMe, err
		}
		if fn := c.Hooks.OnReconnectAttempt; fn != nil {
			fn(c, false)
		}
		c.reconnect.onDisconnect(false)
		return Alive, err
	}

	t.logWrite = func(line string) { c.logRawLine("->", line) }

	c.mu.Lock()
	c.transport = t
	c.reg = newRegistration(c.cfg)
	c.connected = true
	c.mu.Unlock()

	if err := c.reg.begin(t, c.cfg); err != nil {
		c.handleDisconnect(err)
		return Alive, err
	}
	return Alive, nil
}

func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	if c.transport != nil {
		c.transport.close()
	}
	c.connected = false
	c.tables.Reset()
	c.mu.Unlock()

	if fn := c.Hooks.OnDisconnect; fn != nil {
		fn(c, err)
	}
	c.reconnect.onDisconnect(c.stayDead)
}

// send renders and writes one outbound message, enforcing the configured
// inter-message flood delay if set.
func (c *Client) send(msg *ircmsg.Message) error {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()
	if t == nil {
		return &TransportError{Op: "write", Err: errNotConnected}
	}
	if delay := c.cfg.FloodDelayMillis(); delay > 0 {
		time.Sleep(time.Duration(delay) * time.Millisecond)
	}
	return t.writeLine(msg.Bytes())
}

// Join is a convenience alias for Cmd.Join.
func (c *Client) Join(channels ...string) error {
	return c.Cmd.Join(channels...)
}

// disconnect closes the socket and, if stayDead is true, suppresses any
// further reconnect attempts.
func (c *Client) disconnect(stayDead bool) {
	c.mu.Lock()
	c.stayDead = stayDead
	c.mu.Unlock()
	c.handleDisconnect(nil)
}

// Close disconnects without sending QUIT, permanently stops reconnects, and
// releases the raw-line log file if one was opened.
func (c *Client) Close() error {
	c.disconnect(true)
	if c.rawLogFile != nil {
		return c.rawLogFile.Close()
	}
	return nil
}

var errNotConnected = &notConnectedError{}

type notConnectedError struct{}

func (*notConnectedError) Error() string { return "halcyon: not connected" }

// fireOnJoin, fireOnPart, etc. translate a parsed builtin event into the
// corresponding Hooks callback, if the caller set one.

func (c *Client) fireOnJoin(channel string, src *ircmsg.Source) {
	if fn := c.Hooks.OnJoin; fn != nil {
		fn(c, channel, src)
	}
}

func (c *Client) fireOnPart(channel string, src *ircmsg.Source, reason string) {
	if fn := c.Hooks.OnPart; fn != nil {
		fn(c, channel, src, reason)
	}
}

func (c *Client) fireOnKick(channel string, src *ircmsg.Source, kicked, reason string) {
	if fn := c.Hooks.OnKick; fn != nil {
		fn(c, channel, src, kicked, reason)
	}
}

func (c *Client) fireOnQuit(src *ircmsg.Source, reason string) {
	if fn := c.Hooks.OnQuit; fn != nil {
		fn(c, src, reason)
	}
}

func (c *Client) fireOnNick(src *ircmsg.Source, to string) {
	if fn := c.Hooks.OnNick; fn != nil {
		fn(c, src, to)
	}
}

func (c *Client) fireOnMode(channel string, src *ircmsg.Source, modes []CMode) {
	if fn := c.Hooks.OnMode; fn != nil {
		fn(c, channel, src, modes)
	}
}

func (c *Client) fireOnInvite(src *ircmsg.Source, channel string) {
	if fn := c.Hooks.OnInvite; fn != nil {
		fn(c, src, channel)
	}
}

func (c *Client) fireOnError(message string) {
	if fn := c.Hooks.OnError; fn != nil {
		fn(c, message)
	}
}

func (c *Client) fireOnChat(src *ircmsg.Source, target, text string) {
	if fn := c.Hooks.OnChat; fn != nil {
		fn(c, src, target, text)
	}
}

func (c *Client) fireOnNotice(src *ircmsg.Source, target, text string) {
	if fn := c.Hooks.OnNotice; fn != nil {
		fn(c, src, target, text)
	}
}

func (c *Client) fireOnServerNotice(target, text string) {
	if fn := c.Hooks.OnServerNotice; fn != nil {
		fn(c, target, text)
	}
}

func (c *Client) fireOnCTCP(src *ircmsg.Source, target string, ctcp ircutil.CTCP) {
	if fn := c.Hooks.OnCTCP; fn != nil {
		fn(c, src, target, ctcp)
	}
}

func (c *Client) fireOnRaw(msg *ircmsg.Message) {
	if fn := c.Hooks.OnRaw; fn != nil {
		fn(c, msg)
	}
}

func (c *Client) fireOnNumeric(msg *ircmsg.Message) {
	if fn := c.Hooks.OnNumeric; fn != nil {
		fn(c, msg)
	}
}
