package halcyon

import "github.com/halcyon-irc/halcyon/ircconf"

// Config is a thin, typed view over a primary/fallback ircconf.Binding (see
// SPEC_FULL.md §4.11). Every accessor re-reads the binding on each call, so
// a rehash that swaps Binding.Primary or Binding.Fallback in place takes
// effect on the very next lookup without the client caching stale values.
type Config struct {
	*ircconf.Binding
}

// NewConfig wraps a primary/fallback section pair.
func NewConfig(primary, fallback *ircconf.Section) *Config {
	return &Config{Binding: &ircconf.Binding{Primary: primary, Fallback: fallback}}
}

func (c *Config) Hostname() string { return c.Get("Hostname", "") }
func (c *Config) Nick() string     { return c.Get("Nick", "") }
func (c *Config) Realname() string { return c.Get("Realname", c.Nick()) }

func (c *Config) SSL() bool { return c.Bool("SSL", false) }

func (c *Config) Port() int {
	def := 6667
	if c.SSL() {
		def = 6697
	}
	return c.Int("Port", def)
}

func (c *Config) Certificate() string { return c.Get("Certificate", "") }
func (c *Config) Key() string         { return c.Get("Key", "") }

func (c *Config) SASLAccount() string  { return c.Get("SASL.Account", "") }
func (c *Config) SASLPassword() string { return c.Get("SASL.Password", "") }
func (c *Config) SASLEnabled() bool {
	return c.SASLAccount() != "" && c.SASLPassword() != ""
}

func (c *Config) AutoReconnectDelaySeconds() int { return c.Int("AutoReconnectDelay", 30) }
func (c *Config) MaxReconnectAttempts() int      { return c.Int("MaxReconnectAttempts", -1) }
func (c *Config) AutoJoinOnKick() bool           { return c.Bool("AutoJoinOnKick", false) }
func (c *Config) AutoPartMessage() string        { return c.Get("AutoPartMessage", "") }

func (c *Config) LogFile() string    { return c.Get("LogFile", "") }
func (c *Config) PrintOutput() bool  { return c.Bool("PrintOutput", false) }
func (c *Config) LogLevel() string   { return c.Get("LogLevel", "info") }
func (c *Config) LogFormat() string  { return c.Get("LogFormat", "text") }
func (c *Config) QuitMessage() string {
	return c.Get("QuitMessage", "")
}
func (c *Config) FloodDelayMillis() int { return c.Int("FloodDelayMillis", 0) }

// Validate checks the configuration keys that must be present for the
// client to be constructible at all. Per SPEC_FULL.md §7, a ConfigError
// here means the client is born Dead rather than attempting to connect.
func (c *Config) Validate() error {
	if c.Hostname() == "" {
		return &ConfigError{Key: "Hostname"}
	}
	if c.Nick() == "" {
		return &ConfigError{Key: "Nick"}
	}
	return nil
}
