// Package verify audits exported session state.
//
// All functions are pure reads over audit data: per-chain hash linkage and
// signatures, agent-id/public-key binding, mutual signature embedding in
// handshake records, interaction cross-links between chains, and fork
// detection between rival chains claiming one owner. Findings are reported
// as data, never as Go errors; tamper evidence must reach the caller.
package verify
