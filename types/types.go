package types

import "time"

type Student struct {
	UserID      int64         `json:"user_id"`
	Name        string        `json:"name"`
	Phone       string        `json:"phone"`
	Username    string        `json:"username,omitempty"`
	GroupID     *int64        `json:"group_id,omitempty"`
	LastPayment *time.Time    `json:"last_payment,omitempty"`
	NextPayment *time.Time    `json:"next_payment,omitempty"`
	PaymentDays *int          `json:"payment_days,omitempty"`
	Status      StudentStatus `json:"status"`
	AddedAt     time.Time     `json:"added_at"`
}

type Group struct {
	GroupID int64     `json:"group_id"`
	Title   string    `json:"title"`
	AddedAt time.Time `json:"added_at"`
}

// Session is the in-progress dialogue state of one administrator.
// Data holds the field values collected so far, keyed by step.
type Session struct {
	ID        string            `json:"id"`
	AdminID   int64             `json:"admin_id"`
	Action    Action            `json:"action"`
	Step      Step              `json:"step"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ReminderJob is a persisted one-shot reminder, at most one per student.
type ReminderJob struct {
	StudentID int64     `json:"student_id"`
	FireAt    time.Time `json:"fire_at"`
}

type StudentStore interface {
	CreateStudent(s Student) error
	// GetStudent returns (nil, nil) when no such student exists.
	GetStudent(userID int64) (*Student, error)
	ListStudents() ([]Student, error)
	ListGroupStudents(groupID int64) ([]Student, error)
	RecordPayment(userID int64, paidAt, nextPayment time.Time, days int) error
	MarkOverdue(userID int64) error
}

type GroupStore interface {
	UpsertGroup(g Group) error
	// GetGroup returns (nil, nil) when no such group exists.
	GetGroup(groupID int64) (*Group, error)
	ListGroups() ([]Group, error)
	CountGroupStudents(groupID int64) (int, error)
}

type SessionStore interface {
	// GetSession returns (nil, nil) when the administrator has no session.
	GetSession(adminID int64) (*Session, error)
	SaveSession(session *Session) error
	ClearSession(adminID int64) error
}

type ReminderJobStore interface {
	SaveJob(job ReminderJob) error
	DeleteJob(studentID int64) error
	ListJobs() ([]ReminderJob, error)
}
