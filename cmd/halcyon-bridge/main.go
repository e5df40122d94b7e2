// Command halcyon-bridge is a minimal driver program showing how an
// external service owns the Think() loop: it loads configuration from
// TOML, builds a Client, and polls it on a ticker instead of handing it a
// goroutine of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halcyon-irc/halcyon"
	"github.com/halcyon-irc/halcyon/ircconf"
	"github.com/halcyon-irc/halcyon/ircmsg"
)

func main() {
	configPath := flag.String("config", "bridge.toml", "path to a TOML configuration file")
	flag.Parse()

	root, err := ircconf.LoadTOML(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "halcyon-bridge:", err)
		os.Exit(1)
	}

	cfg := halcyon.NewConfig(root.ChildOrCreate("Server"), root)
	client, err := halcyon.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "halcyon-bridge:", err)
		os.Exit(1)
	}

	client.Hooks.OnConnect = func(c *halcyon.Client) {
		logrus.Info("registration complete")
		c.Join(splitChannels(cfg.Get("AutoJoin", ""))...)
	}
	client.Hooks.OnDisconnect = func(c *halcyon.Client, err error) {
		logrus.WithError(err).Warn("disconnected")
	}
	client.Hooks.OnChat = func(c *halcyon.Client, src *ircmsg.Source, target, text string) {
		logrus.WithFields(logrus.Fields{"from": src.Name, "target": target}).Info(text)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			client.Close()
			return
		case <-ticker.C:
			status, err := client.Think(ctx)
			if err != nil {
				logrus.WithError(err).Debug("think")
			}
			if status == halcyon.DeadDropMe {
				return
			}
		}
	}
}

func splitChannels(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
}
