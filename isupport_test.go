package halcyon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapabilitiesDefaults(t *testing.T) {
	c := NewCapabilities()
	require.Equal(t, DefaultPrefixModes, c.PrefixModes)
	require.Equal(t, DefaultPrefixes, c.Prefixes)
}

func TestCapabilitiesMergePrefix(t *testing.T) {
	c := NewCapabilities()
	c.Merge([]string{"PREFIX=(qaohv)~&@%+"})

	require.Equal(t, "qaohv", c.PrefixModes)
	require.Equal(t, "~&@%+", c.Prefixes)
}

func TestCapabilitiesMergeIgnoresMalformedPrefix(t *testing.T) {
	c := NewCapabilities()
	before := c.PrefixModes
	c.Merge([]string{"PREFIX=garbage"})

	require.Equal(t, before, c.PrefixModes, "malformed PREFIX value should not overwrite existing state")
}

func TestCapabilitiesMergeChanModes(t *testing.T) {
	c := NewCapabilities()
	c.Merge([]string{"CHANMODES=eIb,k,l,imnpstaqrDdRcCNu"})

	require.Equal(t, "eIb", c.ModeA)
	require.Equal(t, "k", c.ModeB)
	require.Equal(t, "l", c.ModeC)
	require.Equal(t, "imnpstaqrDdRcCNu", c.ModeD)
}

func TestCapabilitiesGetBareToken(t *testing.T) {
	c := NewCapabilities()
	c.Merge([]string{"EXCEPTS", "NETWORK=Testnet"})

	v, ok := c.Get("EXCEPTS")
	require.True(t, ok)
	require.Empty(t, v)

	v, ok = c.Get("NETWORK")
	require.True(t, ok)
	require.Equal(t, "Testnet", v)
}

func TestParseNamePrefixSplitsSigils(t *testing.T) {
	prefix, nick := parseNamePrefix("@+alice", "@+")
	require.Equal(t, "@+", prefix)
	require.Equal(t, "alice", nick)

	prefix, nick = parseNamePrefix("bob", "@+")
	require.Empty(t, prefix)
	require.Equal(t, "bob", nick)
}
