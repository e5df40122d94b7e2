package halcyon

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/halcyon-irc/halcyon/ircconf"
)

func newTestClient(t *testing.T) (*Client, *bufio.Reader) {
	t.Helper()
	tr, r, server := pipeTransport()
	t.Cleanup(func() { server.Close() })

	s := ircconf.NewSection("")
	s.Set("Hostname", "irc.example.org")
	s.Set("Nick", "halcyon")
	cfg := NewConfig(s, nil)

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.transport = tr
	c.connected = true
	return c, r
}

func TestCommandsPartSendsPartNotJoin(t *testing.T) {
	c, r := newTestClient(t)
	go func() {
		if err := c.Cmd.Part("#go", "bye"); err != nil {
			t.Errorf("Part: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	if lines[0] != "PART #go :bye" {
		t.Fatalf("got %q, want %q", lines[0], "PART #go :bye")
	}
}

func TestCommandsMessageRejectsInvalidTarget(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.Cmd.Message("not a valid target!", "hi")
	if err == nil {
		t.Fatal("expected an error for an invalid target")
	}
	if _, ok := err.(*ErrInvalidTarget); !ok {
		t.Fatalf("got %T, want *ErrInvalidTarget", err)
	}
}

func TestCommandsActionEncodesCTCP(t *testing.T) {
	c, r := newTestClient(t)
	go func() {
		if err := c.Cmd.Action("#go", "waves"); err != nil {
			t.Errorf("Action: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	want := "PRIVMSG #go :\x01ACTION waves\x01"
	if lines[0] != want {
		t.Fatalf("got %q, want %q", lines[0], want)
	}
}

func TestCommandsJoinBatchesMultipleChannels(t *testing.T) {
	c, r := newTestClient(t)
	go func() {
		if err := c.Cmd.Join("#a", "#b", "#c"); err != nil {
			t.Errorf("Join: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	if lines[0] != "JOIN #a,#b,#c" {
		t.Fatalf("got %q", lines[0])
	}
}

func TestCommandsMessageChannelsReturnsCountSent(t *testing.T) {
	c, r := newTestClient(t)
	c.tables.EnsureChannel("#a").SetType(1)
	c.tables.EnsureChannel("#b").SetType(2)
	c.tables.EnsureChannel("#c").SetType(0)

	done := make(chan struct{})
	var sent int
	var err error
	go func() {
		sent, err = c.Cmd.MessageChannels(1, "hi")
		close(done)
	}()

	lines := readLines(t, r, 2)
	<-done
	if err != nil {
		t.Fatalf("MessageChannels: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
}

func TestCommandsMessageAllChannelsIncludesEveryType(t *testing.T) {
	c, r := newTestClient(t)
	c.tables.EnsureChannel("#a").SetType(0)

	done := make(chan struct{})
	var sent int
	var err error
	go func() {
		sent, err = c.Cmd.MessageAllChannels("hi")
		close(done)
	}()

	readLines(t, r, 1)
	<-done
	if err != nil {
		t.Fatalf("MessageAllChannels: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
}

func TestCommandsQuitMarksStayDead(t *testing.T) {
	c, r := newTestClient(t)
	go func() {
		if err := c.Cmd.Quit("done"); err != nil {
			t.Errorf("Quit: %v", err)
		}
	}()
	lines := readLines(t, r, 1)
	if !strings.HasPrefix(lines[0], "QUIT :done") {
		t.Fatalf("got %q", lines[0])
	}
	status, _ := c.Think(context.Background())
	if status != DeadDropMe {
		t.Fatalf("status = %v, want DeadDropMe after Quit", status)
	}
}
