package halcyon

import (
	"fmt"

	"github.com/halcyon-irc/halcyon/ircmsg"
	"github.com/halcyon-irc/halcyon/ircutil"
)

// ErrInvalidTarget is returned by a Commands method when given a nickname
// or channel name that fails validation before anything is sent.
type ErrInvalidTarget struct {
	Target string
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("halcyon: invalid target: %q", e.Target)
}

// Commands is the outbound send surface: one method per IRC command the
// client needs to issue, handing a rendered line to the client's transport.
// Nick, Join, Part, Message, Action, Notice and Topic validate their
// nickname or channel argument first; the other methods send as given.
type Commands struct {
	c *Client
}

// Raw sends a pre-built message, writing it directly to the transport. It
// is the single choke point every other Commands method funnels through.
func (cmd *Commands) Raw(msg *ircmsg.Message) error {
	return cmd.c.send(msg)
}

// SendRaw parses and sends a single raw protocol line.
func (cmd *Commands) SendRaw(raw string) error {
	return cmd.Raw(ircmsg.Parse(raw))
}

// SendRawf formats and sends a single raw protocol line.
func (cmd *Commands) SendRawf(format string, a ...interface{}) error {
	return cmd.SendRaw(fmt.Sprintf(format, a...))
}

// Nick requests a nickname change.
func (cmd *Commands) Nick(name string) error {
	if !ircutil.IsValidNick(name) {
		return &ErrInvalidTarget{Target: name}
	}
	return cmd.Raw(&ircmsg.Message{Command: "NICK", Params: []string{name}})
}

// Join enters channels, batching them into as few JOIN lines as the
// 512-byte wire budget allows.
func (cmd *Commands) Join(channels ...string) error {
	const budget = 510 - len("JOIN") - 1

	var buf string
	for i, ch := range channels {
		if !ircutil.IsValidChannel(ch) {
			return &ErrInvalidTarget{Target: ch}
		}

		candidate := ch
		if buf != "" {
			candidate = buf + "," + ch
		}
		if len(candidate) > budget && buf != "" {
			if err := cmd.Raw(&ircmsg.Message{Command: "JOIN", Params: []string{buf}}); err != nil {
				return err
			}
			buf = ch
		} else {
			buf = candidate
		}

		if i == len(channels)-1 && buf != "" {
			return cmd.Raw(&ircmsg.Message{Command: "JOIN", Params: []string{buf}})
		}
	}
	return nil
}

// Part leaves a channel, optionally with a part message.
func (cmd *Commands) Part(channel, message string) error {
	if !ircutil.IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}
	if message == "" {
		message = cmd.c.cfg.AutoPartMessage()
	}
	msg := &ircmsg.Message{Command: "PART", Params: []string{channel}}
	if message != "" {
		msg.Trailing, msg.HasTrailing = message, true
	}
	return cmd.Raw(msg)
}

// Message sends a PRIVMSG to a nick or channel.
func (cmd *Commands) Message(target, text string) error {
	if !ircutil.IsValidNick(target) && !ircutil.IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}
	return cmd.Raw(&ircmsg.Message{Command: "PRIVMSG", Params: []string{target}, Trailing: text, HasTrailing: true})
}

// Messagef formats and sends a PRIVMSG.
func (cmd *Commands) Messagef(target, format string, a ...interface{}) error {
	return cmd.Message(target, fmt.Sprintf(format, a...))
}

// Action sends a CTCP ACTION (/me) to a nick or channel.
func (cmd *Commands) Action(target, text string) error {
	if !ircutil.IsValidNick(target) && !ircutil.IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}
	return cmd.Raw(&ircmsg.Message{
		Command:     "PRIVMSG",
		Params:      []string{target},
		Trailing:    ircutil.Encode("ACTION", text),
		HasTrailing: true,
	})
}

// Notice sends a NOTICE to a nick or channel.
func (cmd *Commands) Notice(target, text string) error {
	if !ircutil.IsValidNick(target) && !ircutil.IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}
	return cmd.Raw(&ircmsg.Message{Command: "NOTICE", Params: []string{target}, Trailing: text, HasTrailing: true})
}

// Noticef formats and sends a NOTICE.
func (cmd *Commands) Noticef(target, format string, a ...interface{}) error {
	return cmd.Notice(target, fmt.Sprintf(format, a...))
}

// Topic sets channel's topic.
func (cmd *Commands) Topic(channel, text string) error {
	if !ircutil.IsValidChannel(channel) {
		return &ErrInvalidTarget{Target: channel}
	}
	return cmd.Raw(&ircmsg.Message{Command: "TOPIC", Params: []string{channel}, Trailing: text, HasTrailing: true})
}

// Mode sends a MODE change.
func (cmd *Commands) Mode(target, modes string, args ...string) error {
	params := append([]string{target, modes}, args...)
	return cmd.Raw(&ircmsg.Message{Command: "MODE", Params: params})
}

// Invite invites a nick to a channel.
func (cmd *Commands) Invite(nick, channel string) error {
	return cmd.Raw(&ircmsg.Message{Command: "INVITE", Params: []string{nick, channel}})
}

// Kick removes a user from a channel.
func (cmd *Commands) Kick(channel, nick, reason string) error {
	msg := &ircmsg.Message{Command: "KICK", Params: []string{channel, nick}}
	if reason != "" {
		msg.Trailing, msg.HasTrailing = reason, true
	}
	return cmd.Raw(msg)
}

// Pong answers a PING.
func (cmd *Commands) Pong(token string) error {
	return cmd.Raw(&ircmsg.Message{Command: "PONG", Trailing: token, HasTrailing: true})
}

// Quit disconnects from the server. The reconnect controller treats a
// client-initiated Quit as stay-dead: no further attempts follow.
func (cmd *Commands) Quit(message string) error {
	if message == "" {
		message = cmd.c.cfg.QuitMessage()
	}
	msg := &ircmsg.Message{Command: "QUIT"}
	if message != "" {
		msg.Trailing, msg.HasTrailing = message, true
	}
	err := cmd.Raw(msg)
	cmd.c.disconnect(true)
	return err
}

// MessageChannels sends text to every tracked channel whose Type is >=
// threshold, returning the number of channels successfully sent to. It
// stops and returns that count alongside the first error encountered.
func (cmd *Commands) MessageChannels(threshold int, text string) (int, error) {
	sent := 0
	for _, ch := range cmd.c.tables.Channels() {
		if ch.Type < threshold {
			continue
		}
		if err := cmd.Message(ch.Name, text); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// MessageAllChannels broadcasts text to every tracked channel regardless of
// Type; the threshold-0 convenience case of MessageChannels.
func (cmd *Commands) MessageAllChannels(text string) (int, error) {
	return cmd.MessageChannels(0, text)
}
