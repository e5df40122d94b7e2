package ircutil

import "strings"

// Delim is the prefix and suffix byte wrapping a CTCP-formatted message,
// per the CTCP specification (http://www.irchelp.org/protocol/ctcpspec.html).
const Delim byte = 0x01

// CTCP holds the decoded contents of a CTCP-framed PRIVMSG or NOTICE.
type CTCP struct {
	Command string // e.g. PING, TIME, VERSION, ACTION.
	Text    string // raw arguments following the command, if any.
	Reply   bool   // true if this was carried over NOTICE (a CTCP reply).
}

// Decode extracts a CTCP payload from a PRIVMSG/NOTICE trailing argument.
// It returns ok=false if trailing does not look like a CTCP-framed message.
func Decode(command, trailing string) (c CTCP, ok bool) {
	if len(trailing) < 3 {
		return CTCP{}, false
	}
	if command != "PRIVMSG" && command != "NOTICE" {
		return CTCP{}, false
	}
	if trailing[0] != Delim || trailing[len(trailing)-1] != Delim {
		return CTCP{}, false
	}

	body := trailing[1 : len(trailing)-1]
	idx := strings.IndexByte(body, ' ')
	if idx < 0 {
		return CTCP{Command: strings.ToUpper(body), Reply: command == "NOTICE"}, true
	}

	return CTCP{
		Command: strings.ToUpper(body[:idx]),
		Text:    body[idx+1:],
		Reply:   command == "NOTICE",
	}, true
}

// Encode wraps a CTCP command and optional text in CTCP delimiters, ready
// to be used as the trailing argument of a PRIVMSG/NOTICE.
func Encode(command, text string) string {
	var b strings.Builder
	b.WriteByte(Delim)
	b.WriteString(strings.ToUpper(command))
	if text != "" {
		b.WriteByte(' ')
		b.WriteString(text)
	}
	b.WriteByte(Delim)
	return b.String()
}

// IsAction reports whether a PRIVMSG trailing argument is a CTCP ACTION
// (i.e. a "/me" message).
func IsAction(command, trailing string) bool {
	c, ok := Decode(command, trailing)
	return ok && command == "PRIVMSG" && c.Command == "ACTION"
}

// StripAction returns the text of a CTCP ACTION, or trailing unchanged if
// it is not one.
func StripAction(command, trailing string) string {
	c, ok := Decode(command, trailing)
	if !ok || c.Command != "ACTION" {
		return trailing
	}
	return c.Text
}
