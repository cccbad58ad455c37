package types

// Version is the canonical project version.
// The CLI and the emitted-event contract share this version
// (lockstep versioning).
const Version = "0.3.0"
