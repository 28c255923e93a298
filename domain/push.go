package domain

// PushKind tells the notification service which template to render.
type PushKind string

const (
	PushNewMessage PushKind = "new_message"
	PushReaction   PushKind = "reaction_updated"
)

// PushSummary is the short description sent to an offline partner.
type PushSummary struct {
	Kind      PushKind  `json:"kind"`
	JournalID JournalID `json:"journal_id"`
	FromUser  UserID    `json:"from_user"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
}

// PushJob is one queued offline notification.
type PushJob struct {
	UserID    UserID
	JournalID JournalID
	Summary   PushSummary
}
