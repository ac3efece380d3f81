package store

// Message is one persisted history row.
type Message struct {
	// ID is the system generated unique identifier.
	ID int64

	UID       string
	Content   string
	Sender    string
	Recipient string
	ModeHint  string
	CreatedTs int64
}

// FindMessage filters a history listing. Nil fields match everything.
type FindMessage struct {
	UID       *string
	Sender    *string
	Recipient *string

	// Pagination. Offset is only applied together with Limit.
	Limit  *int
	Offset *int

	// Ascending orders oldest first; the default is newest first.
	Ascending bool
}
