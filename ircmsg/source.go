// Package ircmsg implements the IRC line framer and message parser: pure,
// allocation-light transforms from a byte stream into structured messages
// and back. Nothing in this package performs I/O.
package ircmsg

import (
	"bytes"
	"strings"
)

const (
	prefixByte byte = 0x3a // ":" -- prefix marker or final trailing argument
	userByte   byte = 0x21 // "!" -- nick/user separator
	hostByte   byte = 0x40 // "@" -- user/host separator
)

// Source represents the sender of a message: <servername> | <nick> [ "!" <user> ] [ "@" <host> ].
type Source struct {
	// Name is the nickname, server name, or service name.
	Name string
	// User is commonly referred to as the "ident".
	User string
	// Host is the hostname or IP address of the sender. Not authoritative;
	// servers may spoof or cloak it.
	Host string
}

// ParseSource splits a raw prefix string into its component parts.
func ParseSource(raw string) *Source {
	src := new(Source)

	user := strings.IndexByte(raw, userByte)
	host := strings.IndexByte(raw, hostByte)

	switch {
	case user > 0 && host > user:
		src.Name = raw[:user]
		src.User = raw[user+1 : host]
		src.Host = raw[host+1:]
	case user > 0:
		src.Name = raw[:user]
		src.User = raw[user+1:]
	case host > 0:
		src.Name = raw[:host]
		src.Host = raw[host+1:]
	default:
		src.Name = raw
	}

	return src
}

// Len returns the length of the serialized form of the source.
func (s *Source) Len() int {
	n := len(s.Name)
	if len(s.User) > 0 {
		n += 1 + len(s.User)
	}
	if len(s.Host) > 0 {
		n += 1 + len(s.Host)
	}
	return n
}

// String returns the wire representation of the source.
func (s *Source) String() string {
	var b strings.Builder
	b.Grow(s.Len())
	s.writeTo(&b)
	return b.String()
}

// Bytes returns the wire representation of the source.
func (s *Source) Bytes() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(s.Len())
	s.writeTo(buf)
	return buf.Bytes()
}

// IsHostmask reports whether the source looks like a full user hostmask
// (nick!user@host), as opposed to a bare server or nick-only prefix.
func (s *Source) IsHostmask() bool {
	return len(s.User) > 0 && len(s.Host) > 0
}

// IsServer reports whether the source looks like a server name: no user,
// no host.
func (s *Source) IsServer() bool {
	return len(s.User) == 0 && len(s.Host) == 0
}

type stringWriter interface {
	WriteString(string) (int, error)
	WriteByte(byte) error
}

func (s *Source) writeTo(w stringWriter) {
	w.WriteString(s.Name)
	if len(s.User) > 0 {
		w.WriteByte(userByte)
		w.WriteString(s.User)
	}
	if len(s.Host) > 0 {
		w.WriteByte(hostByte)
		w.WriteString(s.Host)
	}
}
