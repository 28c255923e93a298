package domain

// JournalID identifies a shared journal and the live room bound to it.
type JournalID string

func (j JournalID) String() string { return string(j) }

// UserID identifies an account as issued by the token service.
type UserID string

func (u UserID) String() string { return string(u) }

// ConnectionID is opaque and unique within the process.
type ConnectionID string
