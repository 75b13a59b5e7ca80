// Package session coordinates a named session binding N agent identities.
//
// Start stamps session_start on every member chain and drives all pairwise
// handshakes; the session only becomes active once every pair has
// completed, so stamping is rejected until full pairwise trust exists.
// Stamp records unilateral or co-signed interaction events, End stamps
// session_end everywhere, and Export produces a self-contained audit for
// verification.
package session
