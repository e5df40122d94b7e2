package halcyon

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"github.com/halcyon-irc/halcyon/ircconf"
	"github.com/halcyon-irc/halcyon/ircmsg"
)

func pipeTransport() (*transport, *bufio.Reader, net.Conn) {
	client, server := net.Pipe()
	return &transport{conn: client}, bufio.NewReader(server), server
}

func testConfig(t *testing.T, extra map[string]string) *Config {
	t.Helper()
	s := ircconf.NewSection("")
	s.Set("Hostname", "irc.example.org")
	s.Set("Nick", "halcyon")
	for k, v := range extra {
		s.Set(k, v)
	}
	return NewConfig(s, nil)
}

func readLines(t *testing.T, r *bufio.Reader, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			out = append(out, strings.TrimRight(line, "\r\n"))
		}
	}()
	<-done
	return out
}

func TestRegistrationBeginSendsCapNickUser(t *testing.T) {
	tr, r, server := pipeTransport()
	defer server.Close()
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)

	go func() {
		if err := reg.begin(tr, cfg); err != nil {
			t.Errorf("begin: %v", err)
		}
	}()

	lines := readLines(t, r, 3)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	if lines[0] != "CAP LS 302" {
		t.Fatalf("first line = %q, want CAP LS 302", lines[0])
	}
	if lines[1] != "NICK halcyon" {
		t.Fatalf("second line = %q, want NICK halcyon", lines[1])
	}
	if !strings.HasPrefix(lines[2], "USER halcyon 0 * :") {
		t.Fatalf("third line = %q, want USER burst", lines[2])
	}
	if reg.state != regCapNegotiating {
		t.Fatalf("state = %v, want cap-negotiating", reg.state)
	}
}

func TestRegistrationCapLsWithoutSaslEndsImmediately(t *testing.T) {
	tr, r, server := pipeTransport()
	defer server.Close()
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)
	reg.state = regCapNegotiating

	msg := ircmsg.Parse("CAP * LS :multi-prefix")
	go func() {
		if _, err := reg.handle(msg, tr, cfg, NewCapabilities()); err != nil {
			t.Errorf("handle: %v", err)
		}
	}()

	lines := readLines(t, r, 1)
	if len(lines) != 1 || lines[0] != "CAP END" {
		t.Fatalf("got %v, want [CAP END]", lines)
	}
}

func TestRegistrationCapLsWithSaslRequestsIt(t *testing.T) {
	tr, r, server := pipeTransport()
	defer server.Close()
	cfg := testConfig(t, map[string]string{"SASL.Account": "acct", "SASL.Password": "pw"})
	reg := newRegistration(cfg)
	reg.state = regCapNegotiating

	msg := ircmsg.Parse("CAP * LS :multi-prefix sasl")
	go func() {
		if _, err := reg.handle(msg, tr, cfg, NewCapabilities()); err != nil {
			t.Errorf("handle: %v", err)
		}
	}()

	lines := readLines(t, r, 1)
	if len(lines) != 1 || lines[0] != "CAP REQ :sasl" {
		t.Fatalf("got %v, want [CAP REQ :sasl]", lines)
	}
}

func TestRegistrationSaslAckThenAuthenticate(t *testing.T) {
	tr, r, server := pipeTransport()
	defer server.Close()
	cfg := testConfig(t, map[string]string{"SASL.Account": "acct", "SASL.Password": "pw"})
	reg := newRegistration(cfg)
	reg.state = regCapNegotiating

	go func() {
		ack := ircmsg.Parse("CAP * ACK :sasl")
		if _, err := reg.handle(ack, tr, cfg, NewCapabilities()); err != nil {
			t.Errorf("handle ack: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	if lines[0] != "AUTHENTICATE PLAIN" {
		t.Fatalf("got %v, want [AUTHENTICATE PLAIN]", lines)
	}
	if reg.state != regSaslAuthenticating {
		t.Fatalf("state = %v, want sasl-authenticating", reg.state)
	}

	go func() {
		prompt := ircmsg.Parse("AUTHENTICATE +")
		if _, err := reg.handle(prompt, tr, cfg, NewCapabilities()); err != nil {
			t.Errorf("handle prompt: %v", err)
		}
	}()
	lines = readLines(t, r, 1)
	if !strings.HasPrefix(lines[0], "AUTHENTICATE ") || lines[0] == "AUTHENTICATE +" {
		t.Fatalf("expected base64 payload, got %q", lines[0])
	}
}

func TestRegistrationNickCollisionRetries(t *testing.T) {
	tr, r, server := pipeTransport()
	defer server.Close()
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)

	go func() {
		msg := ircmsg.Parse(":irc.example.org 433 * halcyon :Nickname is already in use.")
		if _, err := reg.handle(msg, tr, cfg, NewCapabilities()); err != nil {
			t.Errorf("handle: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	if lines[0] != "NICK halcyon1" {
		t.Fatalf("got %v, want [NICK halcyon1]", lines)
	}
	if reg.nick != "halcyon1" {
		t.Fatalf("nick = %q, want halcyon1", reg.nick)
	}
}

func TestRegistrationReachesReadyAtEndOfMotd(t *testing.T) {
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)
	reg.state = regAwaitingMotdEnd

	caps := NewCapabilities()
	ready, err := reg.handle(ircmsg.Parse(":irc.example.org 376 halcyon :End of /MOTD command."), nil, cfg, caps)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !ready {
		t.Fatal("expected ready=true at end of MOTD")
	}
	if reg.state != regReady {
		t.Fatalf("state = %v, want ready", reg.state)
	}
}

func TestRegistrationWelcomeStoresServerName(t *testing.T) {
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)
	reg.state = regCapNegotiating
	caps := NewCapabilities()

	_, err := reg.handle(ircmsg.Parse(":srv 001 halcyon :Welcome to the network"), nil, cfg, caps)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if caps.ServerName != "srv" {
		t.Fatalf("ServerName = %q, want %q", caps.ServerName, "srv")
	}
	if reg.state != regAwaitingMotdEnd {
		t.Fatalf("state = %v, want awaiting-motd-end", reg.state)
	}
}

func TestRegistrationMergesISupport(t *testing.T) {
	cfg := testConfig(t, nil)
	reg := newRegistration(cfg)
	reg.state = regAwaitingWelcome
	caps := NewCapabilities()

	_, err := reg.handle(ircmsg.Parse(":irc.example.org 005 halcyon PREFIX=(ov)@+ CHANTYPES=# :are supported"), nil, cfg, caps)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if caps.Prefixes != "@+" {
		t.Fatalf("Prefixes = %q, want @+", caps.Prefixes)
	}
}
