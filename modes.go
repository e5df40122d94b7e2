package halcyon

import "strings"

// CMode is one parsed unit of a MODE command: a polarity, a letter, and
// (if the letter's class requires one) the argument it consumed.
type CMode struct {
	Add    bool
	Letter byte
	Arg    string

	// IsPrefix is true when Letter is one of the server's advertised
	// prefix-mode letters (e.g. 'o', 'v'), as opposed to a generic channel
	// mode. Only prefix modes mutate channel/member state; the rest are
	// classified only so their arguments are consumed correctly.
	IsPrefix bool
}

// classify reports whether a mode letter consumes an argument in the given
// polarity, per the CHANMODES A/B/C/D classes plus the PREFIX letters:
//
//	prefix letter           -> always consumes an argument (the target nick)
//	type A (list) or B      -> always consumes an argument
//	type C                  -> consumes an argument only when being set (+)
//	type D or unrecognised  -> never consumes an argument
func classify(caps capSnapshot, add bool, letter byte) (hasArg, isPrefix bool) {
	if strings.IndexByte(caps.prefixModes, letter) >= 0 {
		return true, true
	}
	if strings.IndexByte(caps.modeA, letter) >= 0 {
		return true, false
	}
	if strings.IndexByte(caps.modeB, letter) >= 0 {
		return true, false
	}
	if strings.IndexByte(caps.modeC, letter) >= 0 {
		return add, false
	}
	return false, false
}

// parseModeString walks a modestring ("+o-v", etc.) and its trailing
// arguments, producing one CMode per letter. Arguments are consumed
// left-to-right as each letter's class demands; a letter whose class
// demands an argument that isn't available is dropped from the result
// (mode argument underflow: there is no target to apply it to).
func parseModeString(caps capSnapshot, flags string, args []string) []CMode {
	var out []CMode
	add := true
	argIdx := 0

	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}

		letter := flags[i]
		hasArg, isPrefix := classify(caps, add, letter)

		m := CMode{Add: add, Letter: letter, IsPrefix: isPrefix}
		if hasArg && argIdx < len(args) {
			m.Arg = args[argIdx]
			argIdx++
		} else if hasArg {
			// Underflow: no argument left to consume. Drop the mode
			// rather than apply it against an unknown target.
			continue
		}

		out = append(out, m)
	}

	return out
}

// applyModeEvent applies a parsed MODE line to channel/member state. Only
// prefix-class modes have a visible effect, per the data model in
// SPEC_FULL.md §3 (generic channel modes like +n/+t are classified for
// argument bookkeeping but are not themselves tracked).
func (t *Tables) applyModeEvent(channelName string, modes []CMode) {
	for _, m := range modes {
		if !m.IsPrefix || m.Arg == "" {
			continue
		}
		t.ApplyMemberMode(channelName, m.Arg, m.Letter, m.Add)
	}
}
