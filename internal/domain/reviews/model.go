package reviews

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

type Review struct {
	ID string

	UserID      string
	DisplayName string
	Rating      int // 1..5
	Body        string

	Status Status

	CreatedAt   time.Time
	ModeratedAt *time.Time
	ModeratedBy string // email del admin
}
