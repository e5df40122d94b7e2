// Package halcyon is a foundation library for building IRC-connected
// network services: a long-lived, self-healing client that maintains
// shadow channel/user state, authenticates over SASL PLAIN during
// registration, and exposes a hookable event surface.
//
// The client is cooperatively scheduled rather than goroutine-driven: an
// external caller repeatedly invokes Client.Think, and the client performs
// one bounded unit of work (a connection attempt, or draining whatever is
// currently on the socket) per call. See Thinker for the contract this
// implies for anything embedding a Client in a larger service loop.
package halcyon
