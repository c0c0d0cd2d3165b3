package featureflags

// LegacyHardDelete switches per-side conversation hiding over to the legacy
// destructive behavior that removes the conversation row and its messages
// for both participants. Off by default; soft hiding is the supported path.
const LegacyHardDelete = "legacy_hard_delete"
