// Package rate throttles clients that keep presenting handles which do not
// resolve to a live session.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:<ip>", where prefix is the session prefix with "-rl" appended so
// counters never share a namespace with session records.
package rate
