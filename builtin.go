package halcyon

import (
	"strings"

	"github.com/araddon/dateparse"

	"github.com/halcyon-irc/halcyon/ircmsg"
	"github.com/halcyon-irc/halcyon/ircutil"
)

// registerBuiltins wires the always-on handlers that keep Tables and the
// hook surface (SPEC_FULL.md §4.5) in sync with the wire. Callers may add
// their own handlers on top via Client.Handle.
func (c *Client) registerBuiltins() {
	h := c.handlers

	h.AddHandlerFunc("PING", handlePING)
	h.AddHandlerFunc("JOIN", handleJOIN)
	h.AddHandlerFunc("PART", handlePART)
	h.AddHandlerFunc("KICK", handleKICK)
	h.AddHandlerFunc("QUIT", handleQUIT)
	h.AddHandlerFunc("NICK", handleNICK)
	h.AddHandlerFunc("MODE", handleMODE)
	h.AddHandlerFunc("INVITE", handleINVITE)
	h.AddHandlerFunc("ERROR", handleERROR)
	h.AddHandlerFunc("PRIVMSG", handlePRIVMSG)
	h.AddHandlerFunc("NOTICE", handleNOTICE)
	h.AddHandlerFunc("353", handleNAMES)    // RPL_NAMREPLY
	h.AddHandlerFunc("366", handleEndNames) // RPL_ENDOFNAMES
	h.AddHandlerFunc("003", handleCreated)  // RPL_CREATED
	h.AddHandlerFunc(AllEvents, handleRaw)
}

// handleCreated extracts the server's reported start time out of the
// free-form RPL_CREATED greeting ("This server was created ..."). Server
// operators format that sentence inconsistently enough across ircds that a
// strict layout can't be assumed, so a loose date parser does the work.
func handleCreated(c *Client, msg *ircmsg.Message) {
	ts, err := dateparse.ParseAny(msg.Trailing)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.serverCreated = ts
	c.mu.Unlock()
}

func handlePING(c *Client, msg *ircmsg.Message) {
	reply := &ircmsg.Message{Command: "PONG", Trailing: msg.Trailing, HasTrailing: msg.HasTrailing}
	if len(msg.Params) > 0 {
		reply.Params = msg.Params
	}
	c.send(reply)
}

func handleJOIN(c *Client, msg *ircmsg.Message) {
	if msg.Source == nil || len(msg.Params) == 0 {
		return
	}
	channel := msg.Params[0]

	if strings.EqualFold(msg.Source.Name, c.CurrentNick()) {
		c.tables.EnsureChannel(channel)
	}
	c.tables.AddMember(channel, msg.Source.Name, msg.Source.User, msg.Source.Host, "")

	c.fireOnJoin(channel, msg.Source)
}

func handlePART(c *Client, msg *ircmsg.Message) {
	if msg.Source == nil || len(msg.Params) == 0 {
		return
	}
	channel := msg.Params[0]

	if strings.EqualFold(msg.Source.Name, c.CurrentNick()) {
		c.tables.DropChannel(channel)
	} else {
		c.tables.RemoveMember(channel, msg.Source.Name)
	}

	c.fireOnPart(channel, msg.Source, msg.Trailing)
}

func handleKICK(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	channel, kicked := msg.Params[0], msg.Params[1]

	if strings.EqualFold(kicked, c.CurrentNick()) {
		c.tables.DropChannel(channel)
		if c.cfg.AutoJoinOnKick() {
			c.Join(channel)
		}
	} else {
		c.tables.RemoveMember(channel, kicked)
	}

	c.fireOnKick(channel, msg.Source, kicked, msg.Trailing)
}

func handleQUIT(c *Client, msg *ircmsg.Message) {
	if msg.Source == nil {
		return
	}
	c.tables.DropUserEverywhere(msg.Source.Name)
	c.fireOnQuit(msg.Source, msg.Trailing)
}

func handleNICK(c *Client, msg *ircmsg.Message) {
	if msg.Source == nil || len(msg.Params) == 0 {
		return
	}
	to := msg.Params[0]
	if msg.HasTrailing && msg.Trailing != "" {
		to = msg.Trailing
	}
	c.tables.RenameUser(msg.Source.Name, to)
	if strings.EqualFold(msg.Source.Name, c.CurrentNick()) {
		c.setCurrentNick(to)
	}
	c.fireOnNick(msg.Source, to)
}

func handleMODE(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	target := msg.Params[0]
	if !ircutil.IsValidChannel(target) {
		return // user-mode lines carry no channel membership semantics here.
	}
	caps := c.tables.Caps.snapshot()
	modes := parseModeString(caps, msg.Params[1], msg.Params[2:])
	c.tables.applyModeEvent(target, modes)
	c.fireOnMode(target, msg.Source, modes)
}

func handleINVITE(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	c.fireOnInvite(msg.Source, msg.Params[1])
}

func handleERROR(c *Client, msg *ircmsg.Message) {
	c.fireOnError(msg.Trailing)
}

func handlePRIVMSG(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) == 0 {
		return
	}
	if ctcp, ok := ircutil.Decode(msg.Command, msg.Trailing); ok {
		c.fireOnCTCP(msg.Source, msg.Params[0], ctcp)
		return
	}
	c.fireOnChat(msg.Source, msg.Params[0], msg.Trailing)
}

func handleNOTICE(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) == 0 {
		return
	}
	if msg.Source == nil || msg.Source.IsServer() {
		c.fireOnServerNotice(msg.Params[0], msg.Trailing)
		return
	}
	if ctcp, ok := ircutil.Decode(msg.Command, msg.Trailing); ok {
		c.fireOnCTCP(msg.Source, msg.Params[0], ctcp)
		return
	}
	c.fireOnNotice(msg.Source, msg.Params[0], msg.Trailing)
}

// handleNAMES absorbs one RPL_NAMREPLY (353) burst line into the named
// channel's member table. Params are typically [nick, "=", #channel] with
// the member list in Trailing.
func handleNAMES(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) < 3 {
		return
	}
	channel := msg.Params[2]
	ch := c.tables.EnsureChannel(channel)
	ch.AddingNames = true

	sigils := c.tables.Caps.snapshot().prefixes
	for _, tok := range strings.Fields(msg.Trailing) {
		prefixRun, nick := parseNamePrefix(tok, sigils)
		if nick == "" {
			continue
		}
		username, host := "", ""
		if i := strings.IndexByte(nick, '!'); i >= 0 {
			if src := ircmsg.ParseSource(nick); src != nil {
				nick, username, host = src.Name, src.User, src.Host
			}
		}
		c.tables.AddMember(channel, nick, username, host, prefixRun)
	}
}

func handleEndNames(c *Client, msg *ircmsg.Message) {
	if len(msg.Params) < 2 {
		return
	}
	if ch := c.tables.Channel(msg.Params[1]); ch != nil {
		ch.AddingNames = false
	}
}

// handleRaw always fires last (AllEvents), after any command-specific
// handler has already updated Tables, giving OnRaw a consistent view.
func handleRaw(c *Client, msg *ircmsg.Message) {
	c.fireOnRaw(msg)
	if msg.IsNumeric() {
		c.fireOnNumeric(msg)
	}
}
