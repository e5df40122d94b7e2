// Package ircutil holds small, dependency-free helpers shared across the
// client: nickname/channel validation, CTCP framing, and case-folding.
package ircutil

import "bytes"

// chanPrefixes lists the channel-prefix octets accepted by IsValidChannel.
// '*' is included alongside the RFC set since it's commonly seen in the
// wild (e.g. ZNC's virtual channels).
var chanPrefixes = []byte{'!', '#', '&', '*', '+'}

// chanBadOctets lists octets that may never appear in a channel name,
// regardless of position.
var chanBadOctets = []byte{0x00, 0x07, '\r', '\n', ' ', ',', ':'}

// IsValidChannel reports whether s is a syntactically valid channel name.
func IsValidChannel(s string) bool {
	if len(s) <= 1 || len(s) > 50 {
		return false
	}
	if bytes.IndexByte(chanPrefixes, s[0]) == -1 {
		return false
	}

	if s[0] == '!' {
		// !<5-char-id><name>: minimum prefix(1) + id(5) + name(1).
		if len(s) < 7 {
			return false
		}
		for i := 1; i < 6; i++ {
			if (s[i] < '0' || s[i] > '9') && (s[i] < 'A' || s[i] > 'Z') {
				return false
			}
		}
	}

	for i := 1; i < len(s); i++ {
		if bytes.IndexByte(chanBadOctets, s[i]) != -1 {
			return false
		}
	}

	return true
}

// IsValidNick reports whether s is a syntactically valid nickname.
func IsValidNick(s string) bool {
	if len(s) == 0 {
		return false
	}

	// First character: letters and _\[]{}^|
	if s[0] < 0x41 || s[0] > 0x7D {
		return false
	}

	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < 0x41 || c > 0x7D) && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}

	return true
}
