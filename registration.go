package halcyon

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/halcyon-irc/halcyon/ircmsg"
)

// regState is a step in the registration handshake (SPEC_FULL.md §4.4).
type regState int

const (
	regOffline regState = iota
	regSocketConnected
	regCapNegotiating
	regSaslAuthenticating
	regAwaitingWelcome
	regAwaitingMotdEnd
	regReady
)

func (s regState) String() string {
	switch s {
	case regOffline:
		return "offline"
	case regSocketConnected:
		return "socket-connected"
	case regCapNegotiating:
		return "cap-negotiating"
	case regSaslAuthenticating:
		return "sasl-authenticating"
	case regAwaitingWelcome:
		return "awaiting-welcome"
	case regAwaitingMotdEnd:
		return "awaiting-motd-end"
	case regReady:
		return "ready"
	}
	return "unknown"
}

// registration drives the CAP/SASL/NICK/USER dance from a freshly dialed
// socket through to RPL_ENDOFMOTD (376) or ERR_NOMOTD (422). It holds no
// goroutines; every state transition happens inside a Think() tick in
// response to either a freshly parsed line or the handshake deadline.
type registration struct {
	state      regState
	deadline   time.Time
	nick       string
	discrim    int // appended to Nick on 433/436 collisions
	sawCapLS   bool
	saslDone   bool
}

func newRegistration(cfg *Config) *registration {
	return &registration{nick: cfg.Nick()}
}

// begin sends the opening CAP LS / NICK / USER burst and arms the handshake
// deadline. Per IRCv3, CAP LS must precede NICK/USER so the server holds
// registration open until CAP END.
func (r *registration) begin(t *transport, cfg *Config) error {
	r.state = regSocketConnected
	r.deadline = time.Now().Add(handshakeBudget)

	if err := t.writeLine((&ircmsg.Message{Command: "CAP", Params: []string{"LS", "302"}}).Bytes()); err != nil {
		return err
	}
	r.state = regCapNegotiating

	if pass := cfg.Get("ServerPassword", ""); pass != "" {
		if err := t.writeLine((&ircmsg.Message{Command: "PASS", Params: []string{pass}}).Bytes()); err != nil {
			return err
		}
	}
	if err := t.writeLine((&ircmsg.Message{Command: "NICK", Params: []string{r.nick}}).Bytes()); err != nil {
		return err
	}
	user := cfg.Get("User", r.nick)
	real := cfg.Realname()
	return t.writeLine((&ircmsg.Message{
		Command:     "USER",
		Params:      []string{user, "0", "*"},
		Trailing:    real,
		HasTrailing: true,
	}).Bytes())
}

// expired reports whether the handshake has overrun its budget.
func (r *registration) expired() bool {
	return r.state != regReady && time.Now().After(r.deadline)
}

// handle processes one inbound line during registration. It returns true
// once the handshake reaches regReady; the caller should stop routing lines
// here and hand them to the steady-state dispatcher instead.
func (r *registration) handle(msg *ircmsg.Message, t *transport, cfg *Config, caps *Capabilities) (ready bool, err error) {
	switch msg.Command {
	case "CAP":
		err = r.handleCAP(msg, t, cfg)
	case "AUTHENTICATE":
		err = r.handleAuthenticate(msg, t, cfg)
	case "903", "904", "905", "906", "907":
		// SASL success (903) or failure (904-907); either way CAP END
		// must follow to unblock registration.
		r.saslDone = true
		err = t.writeLine((&ircmsg.Message{Command: "CAP", Params: []string{"END"}}).Bytes())
		if err == nil {
			r.state = regAwaitingWelcome
		}
	case "433", "436": // ERR_NICKNAMEINUSE / ERR_NICKCOLLISION
		r.discrim++
		r.nick = cfg.Nick() + strconv.Itoa(r.discrim)
		err = t.writeLine((&ircmsg.Message{Command: "NICK", Params: []string{r.nick}}).Bytes())
	case "001": // RPL_WELCOME
		if msg.Source != nil {
			caps.SetServerName(msg.Source.Name)
		}
		r.state = regAwaitingMotdEnd
	case "004": // RPL_YOURHOST
		if msg.Source != nil {
			caps.SetServerName(msg.Source.Name)
		}
	case "005": // RPL_ISUPPORT
		if len(msg.Params) > 1 {
			caps.Merge(msg.Params[1:])
		}
	case "376", "422": // RPL_ENDOFMOTD / ERR_NOMOTD
		r.state = regReady
		return true, nil
	}
	return false, err
}

func (r *registration) handleCAP(msg *ircmsg.Message, t *transport, cfg *Config) error {
	if len(msg.Params) < 2 {
		return nil
	}
	sub := strings.ToUpper(msg.Params[1])

	switch sub {
	case "LS":
		r.sawCapLS = true
		// Multi-line CAP LS 302 continues while Params[2] == "*"; we only
		// act once the final line arrives (no "*" continuation marker).
		if len(msg.Params) >= 3 && msg.Params[2] == "*" {
			return nil
		}
		offered := msg.Trailing
		if offered == "" && len(msg.Params) >= 3 {
			offered = msg.Params[len(msg.Params)-1]
		}
		var want []string
		if cfg.SASLEnabled() && hasToken(offered, "sasl") {
			want = append(want, "sasl")
		}
		if len(want) == 0 {
			return t.writeLine((&ircmsg.Message{Command: "CAP", Params: []string{"END"}}).Bytes())
		}
		return t.writeLine((&ircmsg.Message{
			Command:     "CAP",
			Params:      []string{"REQ"},
			Trailing:    strings.Join(want, " "),
			HasTrailing: true,
		}).Bytes())

	case "ACK":
		if hasToken(msg.Trailing, "sasl") {
			r.state = regSaslAuthenticating
			return t.writeLine((&ircmsg.Message{Command: "AUTHENTICATE", Params: []string{"PLAIN"}}).Bytes())
		}
		return t.writeLine((&ircmsg.Message{Command: "CAP", Params: []string{"END"}}).Bytes())

	case "NAK":
		// Requested capability refused; proceed unauthenticated.
		return t.writeLine((&ircmsg.Message{Command: "CAP", Params: []string{"END"}}).Bytes())
	}
	return nil
}

// handleAuthenticate answers the server's "+" continuation prompt with the
// base64 SASL PLAIN payload: NUL account NUL password.
func (r *registration) handleAuthenticate(msg *ircmsg.Message, t *transport, cfg *Config) error {
	if len(msg.Params) == 0 || msg.Params[0] != "+" {
		return nil
	}
	payload := "\x00" + cfg.SASLAccount() + "\x00" + cfg.SASLPassword()
	enc := base64.StdEncoding.EncodeToString([]byte(payload))
	return t.writeLine((&ircmsg.Message{Command: "AUTHENTICATE", Params: []string{enc}}).Bytes())
}

func hasToken(haystack, needle string) bool {
	for _, f := range strings.Fields(haystack) {
		f = strings.TrimPrefix(f, "-")
		f = strings.TrimPrefix(f, "=")
		if strings.EqualFold(f, needle) {
			return true
		}
	}
	return false
}
