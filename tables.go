package halcyon

import (
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/halcyon-irc/halcyon/ircutil"
)

// User is a globally-known IRC user: someone observed via JOIN, a NAMES
// burst, WHO, or a message prefix. A User is jointly owned by the client's
// user table and every Member entry across every channel that references
// it; it is evicted once channelCount reaches zero.
type User struct {
	mu sync.RWMutex

	Nickname string
	Username string
	Hostname string

	channelCount int
}

// Nick returns the user's current nickname.
func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Nickname
}

// ChannelCount returns the number of channels this client currently shares
// with the user.
func (u *User) ChannelCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.channelCount
}

func (u *User) fill(username, hostname string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if username != "" {
		u.Username = username
	}
	if hostname != "" {
		u.Hostname = hostname
	}
}

// Member is a channel's reference to a global User, plus the ordered mode
// sigils (e.g. "@+") that user currently holds in that one channel.
type Member struct {
	User *User

	mu        sync.RWMutex
	heldModes map[byte]bool
	prefixes  string
}

// Prefixes returns the member's sigil string, ordered most-significant
// first per the server's advertised prefix priority.
func (m *Member) Prefixes() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefixes
}

// HasMode reports whether the member currently holds the given raw
// prefix-mode letter (e.g. 'o' for op), not its sigil.
func (m *Member) HasMode(letter byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.heldModes[letter]
}

// applyMode adds or removes a held prefix-mode letter and recomputes the
// cached sigil string. Adding a mode the member already holds, or removing
// one it doesn't, is a no-op (invariant: idempotent re-adds leave prefixes
// unchanged).
func (m *Member) applyMode(letter byte, add bool, caps capSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.heldModes == nil {
		m.heldModes = make(map[byte]bool)
	}

	if add {
		if m.heldModes[letter] {
			return
		}
		m.heldModes[letter] = true
	} else {
		if !m.heldModes[letter] {
			return
		}
		delete(m.heldModes, letter)
	}

	var b strings.Builder
	for i := 0; i < len(caps.prefixModes); i++ {
		letter := caps.prefixModes[i]
		if m.heldModes[letter] {
			b.WriteByte(caps.prefixes[i])
		}
	}
	m.prefixes = b.String()
}

// Channel is a single IRC channel as observed by this client.
type Channel struct {
	Name string
	Type int

	Members cmap.ConcurrentMap // casefolded nick -> *Member

	// AddingNames is set between RPL_NAMREPLY (353) bursts and cleared at
	// RPL_ENDOFNAMES (366).
	AddingNames bool
}

// Len returns the number of known members.
func (ch *Channel) Len() int {
	return ch.Members.Count()
}

// Member looks up a member by nickname.
func (ch *Channel) Member(nick string) *Member {
	v, ok := ch.Members.Get(ircutil.Casefold(nick))
	if !ok {
		return nil
	}
	return v.(*Member)
}

// SetType assigns the caller-defined classification used to gate broadcast
// helpers (see MessageChannels).
func (ch *Channel) SetType(t int) {
	ch.Type = t
}

// Tables is the client's shadow model of the server: the global user table
// and the per-channel membership tables, plus the server's advertised
// capability block. It is owned by exactly one Client and must not be
// mutated from outside it; the maps are lock-striped (concurrent-map)
// purely so read-only inspection from within a synchronous hook cannot
// race the goroutine-free Think() loop's own map traffic.
type Tables struct {
	Caps *Capabilities

	users    cmap.ConcurrentMap // casefolded nick -> *User
	channels cmap.ConcurrentMap // casefolded name -> *Channel
}

// NewTables returns an empty shadow state.
func NewTables() *Tables {
	return &Tables{
		Caps:     NewCapabilities(),
		users:    cmap.New(),
		channels: cmap.New(),
	}
}

// Reset clears all tracked users and channels, e.g. before a reconnect
// rebuilds state from scratch.
func (t *Tables) Reset() {
	t.users = cmap.New()
	t.channels = cmap.New()
}

// User looks up a globally-known user by nickname.
func (t *Tables) User(nick string) *User {
	v, ok := t.users.Get(ircutil.Casefold(nick))
	if !ok {
		return nil
	}
	return v.(*User)
}

// Channel looks up a known channel by name.
func (t *Tables) Channel(name string) *Channel {
	v, ok := t.channels.Get(ircutil.Casefold(name))
	if !ok {
		return nil
	}
	return v.(*Channel)
}

// Channels returns a snapshot slice of every known channel.
func (t *Tables) Channels() []*Channel {
	out := make([]*Channel, 0, t.channels.Count())
	for entry := range t.channels.IterBuffered() {
		out = append(out, entry.Val.(*Channel))
	}
	return out
}

// UserCount returns the number of globally-tracked users.
func (t *Tables) UserCount() int {
	return t.users.Count()
}

// ensureUser returns the existing User by nickname, or creates one.
func (t *Tables) ensureUser(nick, username, hostname string) *User {
	key := ircutil.Casefold(nick)
	if v, ok := t.users.Get(key); ok {
		u := v.(*User)
		u.fill(username, hostname)
		return u
	}
	u := &User{Nickname: nick, Username: username, Hostname: hostname}
	t.users.Set(key, u)
	return u
}

// EnsureChannel returns the existing Channel by name, or creates one with
// the default type and an empty member table.
func (t *Tables) EnsureChannel(name string) *Channel {
	key := ircutil.Casefold(name)
	if v, ok := t.channels.Get(key); ok {
		return v.(*Channel)
	}
	ch := &Channel{Name: name, Members: cmap.New()}
	t.channels.Set(key, ch)
	return ch
}

// AddMember ensures both the channel and the named user exist, then adds
// (or replaces the prefixes of, if already present) that user as a member
// of the channel, incrementing the user's channel count on first add.
func (t *Tables) AddMember(channelName, nick, username, hostname string, initialModes string) *Member {
	ch := t.EnsureChannel(channelName)
	u := t.ensureUser(nick, username, hostname)

	key := ircutil.Casefold(nick)
	caps := t.Caps.snapshot()
	if v, ok := ch.Members.Get(key); ok {
		m := v.(*Member)
		m.mu.Lock()
		m.heldModes = make(map[byte]bool)
		m.prefixes = ""
		m.mu.Unlock()
		for i := 0; i < len(initialModes); i++ {
			if letter, ok := modeLetterForSigil(caps, initialModes[i]); ok {
				m.applyMode(letter, true, caps)
			}
		}
		return m
	}

	m := &Member{User: u, heldModes: make(map[byte]bool)}
	// initialModes here is a sigil run (e.g. "@+"), not raw mode letters;
	// translate each sigil back to its mode letter before recording it.
	for i := 0; i < len(initialModes); i++ {
		if letter, ok := modeLetterForSigil(caps, initialModes[i]); ok {
			m.applyMode(letter, true, caps)
		}
	}

	ch.Members.Set(key, m)
	u.mu.Lock()
	u.channelCount++
	u.mu.Unlock()

	return m
}

// RemoveMember removes a member from a channel, decrementing the user's
// channel count and evicting the user from the global table once it
// reaches zero.
func (t *Tables) RemoveMember(channelName, nick string) {
	ch := t.Channel(channelName)
	if ch == nil {
		return
	}
	key := ircutil.Casefold(nick)
	v, ok := ch.Members.Get(key)
	if !ok {
		return
	}
	member := v.(*Member)
	ch.Members.Remove(key)

	member.User.mu.Lock()
	member.User.channelCount--
	evict := member.User.channelCount <= 0
	member.User.mu.Unlock()

	if evict {
		t.users.Remove(ircutil.Casefold(member.User.Nick()))
	}
}

// DropChannel removes a channel entirely, decrementing every member's
// channel count (and evicting now-orphaned users) as if each had parted.
func (t *Tables) DropChannel(name string) {
	ch := t.Channel(name)
	if ch == nil {
		return
	}
	for entry := range ch.Members.IterBuffered() {
		m := entry.Val.(*Member)
		m.User.mu.Lock()
		m.User.channelCount--
		evict := m.User.channelCount <= 0
		m.User.mu.Unlock()
		if evict {
			t.users.Remove(ircutil.Casefold(m.User.Nick()))
		}
	}
	t.channels.Remove(ircutil.Casefold(name))
}

// DropUserEverywhere removes a user from every channel it's a member of
// (e.g. on QUIT), then from the global table.
func (t *Tables) DropUserEverywhere(nick string) {
	key := ircutil.Casefold(nick)
	for entry := range t.channels.IterBuffered() {
		ch := entry.Val.(*Channel)
		ch.Members.Remove(key)
	}
	t.users.Remove(key)
}

// RenameUser rekeys a user in the global table and in every channel's
// membership table, preserving the user's per-channel prefixes.
func (t *Tables) RenameUser(from, to string) {
	fromKey, toKey := ircutil.Casefold(from), ircutil.Casefold(to)

	if v, ok := t.users.Get(fromKey); ok {
		u := v.(*User)
		u.mu.Lock()
		u.Nickname = to
		u.mu.Unlock()
		t.users.Remove(fromKey)
		t.users.Set(toKey, u)
	}

	for entry := range t.channels.IterBuffered() {
		ch := entry.Val.(*Channel)
		if v, ok := ch.Members.Get(fromKey); ok {
			ch.Members.Remove(fromKey)
			ch.Members.Set(toKey, v)
		}
	}
}

// ApplyMemberMode flips a prefix-mode letter on a channel member.
func (t *Tables) ApplyMemberMode(channelName, nick string, letter byte, add bool) {
	ch := t.Channel(channelName)
	if ch == nil {
		return
	}
	m := ch.Member(nick)
	if m == nil {
		return
	}
	m.applyMode(letter, add, t.Caps.snapshot())
}

func modeLetterForSigil(caps capSnapshot, sigil byte) (byte, bool) {
	i := strings.IndexByte(caps.prefixes, sigil)
	if i < 0 || i >= len(caps.prefixModes) {
		return 0, false
	}
	return caps.prefixModes[i], true
}
