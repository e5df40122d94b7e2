package halcyon

import (
	"reflect"
	"testing"
)

func defaultCaps() capSnapshot {
	return NewCapabilities().snapshot()
}

func TestParseModeStringPrefixAlwaysConsumesArg(t *testing.T) {
	caps := defaultCaps()
	modes := parseModeString(caps, "+o", []string{"alice"})

	want := []CMode{{Add: true, Letter: 'o', Arg: "alice", IsPrefix: true}}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("got %+v, want %+v", modes, want)
	}
}

func TestParseModeStringTypeCOnlyConsumesOnSet(t *testing.T) {
	caps := defaultCaps() // ModeC = "l" (channel user limit)
	modes := parseModeString(caps, "+l-l", []string{"50"})

	want := []CMode{
		{Add: true, Letter: 'l', Arg: "50"},
		{Add: false, Letter: 'l'},
	}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("got %+v, want %+v", modes, want)
	}
}

func TestParseModeStringTypeDNeverConsumesArg(t *testing.T) {
	caps := defaultCaps() // ModeD includes "n"
	modes := parseModeString(caps, "+ns", nil)

	want := []CMode{
		{Add: true, Letter: 'n'},
		{Add: true, Letter: 's'},
	}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("got %+v, want %+v", modes, want)
	}
}

func TestParseModeStringDropsOnArgumentUnderflow(t *testing.T) {
	caps := defaultCaps()
	// +o demands an argument, none supplied; +n follows with none needed.
	modes := parseModeString(caps, "+on", nil)

	want := []CMode{{Add: true, Letter: 'n'}}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("got %+v, want %+v (underflowed +o should be dropped, not misattributed)", modes, want)
	}
}

func TestParseModeStringMixedPolarityAndArgs(t *testing.T) {
	caps := defaultCaps()
	modes := parseModeString(caps, "+ov-v", []string{"alice", "bob", "carol"})

	want := []CMode{
		{Add: true, Letter: 'o', Arg: "alice", IsPrefix: true},
		{Add: true, Letter: 'v', Arg: "bob", IsPrefix: true},
		{Add: false, Letter: 'v', Arg: "carol", IsPrefix: true},
	}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("got %+v, want %+v", modes, want)
	}
}

func TestApplyModeEventIgnoresNonPrefixModes(t *testing.T) {
	tb := NewTables()
	tb.AddMember("#go", "alice", "a", "h", "")

	tb.applyModeEvent("#go", []CMode{{Add: true, Letter: 'n'}})

	m := tb.Channel("#go").Member("alice")
	if got := m.Prefixes(); got != "" {
		t.Fatalf("a non-prefix mode should not touch member state, got prefixes %q", got)
	}
}

func TestApplyModeEventAppliesPrefixModes(t *testing.T) {
	tb := NewTables()
	tb.AddMember("#go", "alice", "a", "h", "")

	tb.applyModeEvent("#go", []CMode{{Add: true, Letter: 'o', Arg: "alice", IsPrefix: true}})

	m := tb.Channel("#go").Member("alice")
	if got := m.Prefixes(); got != "@" {
		t.Fatalf("prefixes = %q, want %q", got, "@")
	}
}
