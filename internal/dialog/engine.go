// Package dialog implements the administrator's multi-step dialogues:
// add student, mark payment and send group reminder. Each inbound text
// is interpreted against the session's Action and Step cursor; bad
// input re-prompts without touching the session, so the operator can
// simply try again.
package dialog

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/internal/reports"
	"github.com/ulugbekdev/tolov-bot/types"
)

// ReminderScheduler plans the one-shot per-student reminder. Scheduling
// an id that already has a job replaces it.
type ReminderScheduler interface {
	Schedule(studentID int64, fireAt time.Time)
	Cancel(studentID int64)
}

// UsernameResolver looks a display handle up from the messaging
// identity service. Absence of a handle is a valid state, not an error.
type UsernameResolver interface {
	Username(ctx context.Context, userID int64) (string, error)
}

// Messenger sends one outbound text to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Session scratch-data keys.
const (
	dataName      = "name"
	dataPhone     = "phone"
	dataUserID    = "user_id"
	dataStudentID = "student_id"
)

type Engine struct {
	students  types.StudentStore
	groups    types.GroupStore
	sessions  types.SessionStore
	reminders ReminderScheduler
	resolver  UsernameResolver
	messenger Messenger
	now       func() time.Time
}

func NewEngine(
	students types.StudentStore,
	groups types.GroupStore,
	sessions types.SessionStore,
	reminders ReminderScheduler,
	resolver UsernameResolver,
	messenger Messenger,
) *Engine {
	return &Engine{
		students:  students,
		groups:    groups,
		sessions:  sessions,
		reminders: reminders,
		resolver:  resolver,
		messenger: messenger,
		now:       time.Now,
	}
}

func (e *Engine) start(adminID int64, action types.Action, step types.Step) error {
	session := &types.Session{
		AdminID: adminID,
		Action:  action,
		Step:    step,
		Data:    map[string]string{},
	}
	return e.sessions.SaveSession(session)
}

// StartAddStudent opens the add-student dialogue at the name step.
func (e *Engine) StartAddStudent(adminID int64) ([]string, error) {
	if err := e.start(adminID, types.ActionAddStudent, types.StepName); err != nil {
		return nil, err
	}
	return []string{messages.PromptStudentName()}, nil
}

// StartMarkPayment lists the roster and opens the mark-payment
// dialogue. An empty roster refuses to open the flow.
func (e *Engine) StartMarkPayment(adminID int64) ([]string, error) {
	students, err := e.students.ListStudents()
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return []string{messages.RosterEmpty()}, nil
	}
	titles, err := e.groupTitles()
	if err != nil {
		return nil, err
	}
	if err := e.start(adminID, types.ActionMarkPayment, types.StepSelectStudent); err != nil {
		return nil, err
	}
	return []string{reports.PaymentSelectionList(students, titles)}, nil
}

// StartGroupReminder lists the groups and opens the send-reminder
// dialogue. Without groups there is nothing to select.
func (e *Engine) StartGroupReminder(adminID int64) ([]string, error) {
	groups, err := e.groups.ListGroups()
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []string{messages.NoGroups()}, nil
	}
	if err := e.start(adminID, types.ActionSendReminder, types.StepSelectGroup); err != nil {
		return nil, err
	}
	return []string{messages.ChooseReminderGroup(groups)}, nil
}

// HandleText feeds one inbound text into the active dialogue. handled
// is false when the administrator has no flow in progress; the caller
// treats that as a router no-op.
func (e *Engine) HandleText(ctx context.Context, adminID int64, text string) (replies []string, handled bool, err error) {
	session, err := e.sessions.GetSession(adminID)
	if err != nil {
		return nil, false, err
	}
	if session == nil || session.Action == types.ActionNone {
		return nil, false, nil
	}

	text = strings.TrimSpace(text)

	switch session.Action {
	case types.ActionAddStudent:
		replies, err = e.advanceAddStudent(ctx, session, text)
	case types.ActionMarkPayment:
		replies, err = e.advanceMarkPayment(session, text)
	case types.ActionSendReminder:
		replies, err = e.advanceSendReminder(ctx, session, text)
	default:
		return nil, false, nil
	}
	return replies, true, err
}

func (e *Engine) advanceAddStudent(ctx context.Context, session *types.Session, text string) ([]string, error) {
	switch session.Step {
	case types.StepName:
		if text == "" {
			return []string{messages.PromptStudentName()}, nil
		}
		session.Data[dataName] = text
		session.Step = types.StepPhone
		if err := e.sessions.SaveSession(session); err != nil {
			return nil, err
		}
		return []string{messages.PromptStudentPhone()}, nil

	case types.StepPhone:
		if text == "" {
			return []string{messages.PromptStudentPhone()}, nil
		}
		session.Data[dataPhone] = text
		session.Step = types.StepUserID
		if err := e.sessions.SaveSession(session); err != nil {
			return nil, err
		}
		return []string{messages.PromptStudentUserID()}, nil

	case types.StepUserID:
		userID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return []string{messages.ErrUserIDFormat()}, nil
		}
		groups, err := e.groups.ListGroups()
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			// Dead end: a student cannot be created without a group.
			if err := e.sessions.ClearSession(session.AdminID); err != nil {
				return nil, err
			}
			return []string{messages.NoGroupsAbort()}, nil
		}
		session.Data[dataUserID] = strconv.FormatInt(userID, 10)
		session.Step = types.StepGroup
		if err := e.sessions.SaveSession(session); err != nil {
			return nil, err
		}
		return []string{messages.ChooseStudentGroup(groups)}, nil

	case types.StepGroup:
		groupID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return []string{messages.ErrGroupIDFormat()}, nil
		}
		group, err := e.groups.GetGroup(groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return []string{messages.GroupNotFound()}, nil
		}
		return e.commitAddStudent(ctx, session, group)
	}
	return nil, nil
}

func (e *Engine) commitAddStudent(ctx context.Context, session *types.Session, group *types.Group) ([]string, error) {
	userID, err := strconv.ParseInt(session.Data[dataUserID], 10, 64)
	if err != nil {
		// Corrupt scratch data; start over rather than guess.
		_ = e.sessions.ClearSession(session.AdminID)
		return []string{messages.ErrorDefault()}, nil
	}

	username := ""
	if e.resolver != nil {
		if u, err := e.resolver.Username(ctx, userID); err == nil {
			username = u
		}
	}

	groupID := group.GroupID
	student := types.Student{
		UserID:   userID,
		Name:     session.Data[dataName],
		Phone:    session.Data[dataPhone],
		Username: username,
		GroupID:  &groupID,
		Status:   types.StatusActive,
		AddedAt:  e.now().UTC(),
	}
	if err := e.students.CreateStudent(student); err != nil {
		return nil, err
	}
	if err := e.sessions.ClearSession(session.AdminID); err != nil {
		return nil, err
	}
	return []string{messages.StudentAdded(student, group.Title)}, nil
}

func (e *Engine) advanceMarkPayment(session *types.Session, text string) ([]string, error) {
	switch session.Step {
	case types.StepSelectStudent:
		userID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return []string{messages.ErrNumberRequired()}, nil
		}
		student, err := e.students.GetStudent(userID)
		if err != nil {
			return nil, err
		}
		if student == nil {
			return []string{messages.StudentNotFound()}, nil
		}
		groupTitle := e.groupTitleOf(student)
		session.Data[dataStudentID] = strconv.FormatInt(userID, 10)
		session.Step = types.StepPaymentDays
		if err := e.sessions.SaveSession(session); err != nil {
			return nil, err
		}
		return []string{messages.AskPaymentDays(*student, groupTitle)}, nil

	case types.StepPaymentDays:
		days, err := strconv.Atoi(text)
		if err != nil || days <= 0 {
			return []string{messages.ErrPaymentDays()}, nil
		}
		userID, err := strconv.ParseInt(session.Data[dataStudentID], 10, 64)
		if err != nil {
			_ = e.sessions.ClearSession(session.AdminID)
			return []string{messages.ErrorDefault()}, nil
		}
		student, err := e.students.GetStudent(userID)
		if err != nil {
			return nil, err
		}
		if student == nil {
			return []string{messages.StudentNotFound()}, nil
		}

		now := e.now().UTC()
		nextPayment := now.Add(time.Duration(days) * 24 * time.Hour)
		if err := e.students.RecordPayment(userID, now, nextPayment, days); err != nil {
			return nil, err
		}
		e.reminders.Schedule(userID, nextPayment)

		if err := e.sessions.ClearSession(session.AdminID); err != nil {
			return nil, err
		}
		return []string{messages.PaymentMarked(student.Name, userID, now, nextPayment, days)}, nil
	}
	return nil, nil
}

func (e *Engine) advanceSendReminder(ctx context.Context, session *types.Session, text string) ([]string, error) {
	if session.Step != types.StepSelectGroup {
		return nil, nil
	}
	groupID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return []string{messages.ErrNumberRequired()}, nil
	}
	group, err := e.groups.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return []string{messages.GroupNotFound()}, nil
	}
	if err := e.sessions.ClearSession(session.AdminID); err != nil {
		return nil, err
	}
	return e.dispatchGroupReminder(ctx, group)
}

// dispatchGroupReminder partitions the group's students by days left
// and broadcasts one composite message. A transport failure is the one
// external error surfaced to the administrator with its raw detail.
func (e *Engine) dispatchGroupReminder(ctx context.Context, group *types.Group) ([]string, error) {
	students, err := e.students.ListGroupStudents(group.GroupID)
	if err != nil {
		return nil, err
	}
	p := reports.PartitionStudents(students, e.now().UTC())

	if p.Actionable() == 0 {
		return []string{reports.NothingToRemind(group.Title, len(p.Current))}, nil
	}

	replies := []string{messages.PreparingReminders(group.Title)}
	body := reports.GroupReminderMessage(p)
	if err := e.messenger.SendText(ctx, group.GroupID, body); err != nil {
		log.Printf("Group reminder broadcast to %d failed: %v", group.GroupID, err)
		replies = append(replies, messages.GroupBroadcastFailed(group.Title, group.GroupID, err))
		return replies, nil
	}
	replies = append(replies, reports.ReminderSummary(group.Title, p))
	return replies, nil
}

func (e *Engine) groupTitles() (map[int64]string, error) {
	groups, err := e.groups.ListGroups()
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(groups))
	for _, g := range groups {
		titles[g.GroupID] = g.Title
	}
	return titles, nil
}

func (e *Engine) groupTitleOf(st *types.Student) string {
	if st.GroupID == nil {
		return "Belgilanmagan"
	}
	group, err := e.groups.GetGroup(*st.GroupID)
	if err != nil || group == nil {
		return "Belgilanmagan"
	}
	return group.Title
}
