package threadjit

// armDispMax is ARM64's maximum forward branch/call displacement, in
// instructions (2**25 - 1). acquire uses this as a placement heuristic
// on every architecture, not just ARM64: half of it, in bytes, is the
// distance past which a freshly mmapped page is "suboptimal" even for an
// x86-64 build, since the same threader binary is frequently built and
// tested across both targets.
const armDispMax = 33554431

// armDispMin is the corresponding maximum backward displacement.
const armDispMin = -33554432
