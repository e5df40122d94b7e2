package halcyon

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/halcyon-irc/halcyon/ircmsg"
)

// Handler reacts to a dispatched Message. Implementations run synchronously
// on the Think() goroutine and must not block.
type Handler interface {
	Execute(c *Client, msg *ircmsg.Message)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(c *Client, msg *ircmsg.Message)

// Execute calls f.
func (f HandlerFunc) Execute(c *Client, msg *ircmsg.Message) { f(c, msg) }

// AllEvents is the wildcard command name: handlers registered under it run
// for every dispatched message, in addition to any command-specific ones.
const AllEvents = "*"

// caller is a command-name to registered-handler-set registry. Unlike the
// teacher's dual foreground/background Caller, every handler here runs
// synchronously and in registration order, since SPEC_FULL.md §5 forbids
// spawning goroutines out of the dispatch path.
type caller struct {
	mu       sync.RWMutex
	handlers cmap.ConcurrentMap // command -> []handlerEntry
	nextID   int
}

type handlerEntry struct {
	id      int
	handler Handler
}

func newCaller() *caller {
	return &caller{handlers: cmap.New()}
}

// AddHandler registers h to run whenever a message matching cmd (or
// AllEvents) is dispatched. It returns an id usable with RemoveHandler.
func (c *caller) AddHandler(cmd string, h Handler) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID

	var list []handlerEntry
	if v, ok := c.handlers.Get(cmd); ok {
		list = v.([]handlerEntry)
	}
	list = append(list, handlerEntry{id: id, handler: h})
	c.handlers.Set(cmd, list)
	return id
}

// AddHandlerFunc is a convenience wrapper around AddHandler for function
// literals.
func (c *caller) AddHandlerFunc(cmd string, f func(c *Client, msg *ircmsg.Message)) int {
	return c.AddHandler(cmd, HandlerFunc(f))
}

// RemoveHandler unregisters a previously added handler by id.
func (c *caller) RemoveHandler(cmd string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.handlers.Get(cmd)
	if !ok {
		return
	}
	list := v.([]handlerEntry)
	out := list[:0]
	for _, e := range list {
		if e.id != id {
			out = append(out, e)
		}
	}
	c.handlers.Set(cmd, out)
}

// dispatch runs every handler registered for msg.Command, then every
// AllEvents handler.
func (c *caller) dispatch(cl *Client, msg *ircmsg.Message) {
	c.run(cl, msg, msg.Command)
	if msg.Command != AllEvents {
		c.run(cl, msg, AllEvents)
	}
}

func (c *caller) run(cl *Client, msg *ircmsg.Message, cmd string) {
	v, ok := c.handlers.Get(cmd)
	if !ok {
		return
	}
	for _, e := range v.([]handlerEntry) {
		c.safeExecute(e.handler, cl, msg)
	}
}

// safeExecute recovers a panic inside a single handler so one misbehaving
// hook cannot take down the Think() loop.
func (c *caller) safeExecute(h Handler, cl *Client, msg *ircmsg.Message) {
	defer func() {
		if r := recover(); r != nil && cl.logger != nil {
			cl.logger.WithField("panic", r).Error("recovered panic in handler")
		}
	}()
	h.Execute(cl, msg)
}
