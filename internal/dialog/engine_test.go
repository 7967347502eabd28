package dialog

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/types"
)

const adminID int64 = 42

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeStudentStore struct {
	students map[int64]*types.Student
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: map[int64]*types.Student{}}
}

func (s *fakeStudentStore) CreateStudent(st types.Student) error {
	s.students[st.UserID] = &st
	return nil
}

func (s *fakeStudentStore) GetStudent(userID int64) (*types.Student, error) {
	st, ok := s.students[userID]
	if !ok {
		return nil, nil
	}
	copied := *st
	return &copied, nil
}

func (s *fakeStudentStore) ListStudents() ([]types.Student, error) {
	var out []types.Student
	for _, st := range s.students {
		out = append(out, *st)
	}
	return out, nil
}

func (s *fakeStudentStore) ListGroupStudents(groupID int64) ([]types.Student, error) {
	var out []types.Student
	for _, st := range s.students {
		if st.GroupID != nil && *st.GroupID == groupID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (s *fakeStudentStore) RecordPayment(userID int64, paidAt, nextPayment time.Time, days int) error {
	st, ok := s.students[userID]
	if !ok {
		return errors.New("no such student")
	}
	st.LastPayment = &paidAt
	st.NextPayment = &nextPayment
	st.PaymentDays = &days
	st.Status = types.StatusPaid
	return nil
}

func (s *fakeStudentStore) MarkOverdue(userID int64) error {
	st, ok := s.students[userID]
	if !ok {
		return errors.New("no such student")
	}
	st.Status = types.StatusOverdue
	return nil
}

type fakeGroupStore struct {
	groups map[int64]*types.Group
	order  []int64
}

func newFakeGroupStore(groups ...types.Group) *fakeGroupStore {
	s := &fakeGroupStore{groups: map[int64]*types.Group{}}
	for _, g := range groups {
		copied := g
		s.groups[g.GroupID] = &copied
		s.order = append(s.order, g.GroupID)
	}
	return s
}

func (s *fakeGroupStore) UpsertGroup(g types.Group) error {
	if _, ok := s.groups[g.GroupID]; !ok {
		s.order = append(s.order, g.GroupID)
	}
	s.groups[g.GroupID] = &g
	return nil
}

func (s *fakeGroupStore) GetGroup(groupID int64) (*types.Group, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, nil
	}
	copied := *g
	return &copied, nil
}

func (s *fakeGroupStore) ListGroups() ([]types.Group, error) {
	var out []types.Group
	for _, id := range s.order {
		out = append(out, *s.groups[id])
	}
	return out, nil
}

func (s *fakeGroupStore) CountGroupStudents(groupID int64) (int, error) {
	return 0, nil
}

type fakeSessionStore struct {
	sessions map[int64]*types.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[int64]*types.Session{}}
}

func (s *fakeSessionStore) GetSession(adminID int64) (*types.Session, error) {
	session, ok := s.sessions[adminID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) SaveSession(session *types.Session) error {
	copied := *session
	s.sessions[session.AdminID] = &copied
	return nil
}

func (s *fakeSessionStore) ClearSession(adminID int64) error {
	delete(s.sessions, adminID)
	return nil
}

type scheduledCall struct {
	studentID int64
	fireAt    time.Time
}

type fakeScheduler struct {
	scheduled []scheduledCall
	canceled  []int64
}

func (s *fakeScheduler) Schedule(studentID int64, fireAt time.Time) {
	s.scheduled = append(s.scheduled, scheduledCall{studentID: studentID, fireAt: fireAt})
}

func (s *fakeScheduler) Cancel(studentID int64) {
	s.canceled = append(s.canceled, studentID)
}

type fakeResolver struct {
	username string
	err      error
}

func (r *fakeResolver) Username(ctx context.Context, userID int64) (string, error) {
	return r.username, r.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

func (m *fakeMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type fixture struct {
	engine    *Engine
	students  *fakeStudentStore
	groups    *fakeGroupStore
	sessions  *fakeSessionStore
	scheduler *fakeScheduler
	resolver  *fakeResolver
	messenger *fakeMessenger
}

func newFixture(groups ...types.Group) *fixture {
	f := &fixture{
		students:  newFakeStudentStore(),
		groups:    newFakeGroupStore(groups...),
		sessions:  newFakeSessionStore(),
		scheduler: &fakeScheduler{},
		resolver:  &fakeResolver{},
		messenger: &fakeMessenger{},
	}
	f.engine = NewEngine(f.students, f.groups, f.sessions, f.scheduler, f.resolver, f.messenger)
	f.engine.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) send(t *testing.T, text string) []string {
	t.Helper()
	replies, handled, err := f.engine.HandleText(context.Background(), adminID, text)
	require.NoError(t, err)
	require.True(t, handled)
	return replies
}

func TestHandleTextWithoutSession(t *testing.T) {
	f := newFixture()
	replies, handled, err := f.engine.HandleText(context.Background(), adminID, "hello")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, replies)
}

func TestAddStudentFullFlow(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})
	f.resolver.username = "testuser"

	replies, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, messages.PromptStudentName(), replies[0])

	replies = f.send(t, "Test User")
	assert.Equal(t, []string{messages.PromptStudentPhone()}, replies)

	replies = f.send(t, "+998900000000")
	assert.Equal(t, []string{messages.PromptStudentUserID()}, replies)

	replies = f.send(t, "555")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Matematika")

	replies = f.send(t, "10")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Test User")
	assert.Contains(t, replies[0], "@testuser")

	st, err := f.students.GetStudent(555)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Test User", st.Name)
	assert.Equal(t, "+998900000000", st.Phone)
	assert.Equal(t, "testuser", st.Username)
	require.NotNil(t, st.GroupID)
	assert.Equal(t, int64(10), *st.GroupID)
	assert.Equal(t, types.StatusActive, st.Status)
	assert.Nil(t, st.NextPayment)
	assert.Nil(t, st.LastPayment)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestAddStudentUsernameLookupFailureIsNotFatal(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})
	f.resolver.err = errors.New("chat not found")

	_, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)
	f.send(t, "Test User")
	f.send(t, "+998900000000")
	f.send(t, "555")
	replies := f.send(t, "10")

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Username topilmadi")

	st, err := f.students.GetStudent(555)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Empty(t, st.Username)
}

func TestAddStudentInvalidUserIDReprompts(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})

	_, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)
	f.send(t, "Test User")
	f.send(t, "+998900000000")

	replies := f.send(t, "abc")
	assert.Equal(t, []string{messages.ErrUserIDFormat()}, replies)

	// The cursor stays on the same step and nothing is written.
	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, types.ActionAddStudent, session.Action)
	assert.Equal(t, types.StepUserID, session.Step)
	assert.Empty(t, f.students.students)

	// Valid input afterwards continues normally.
	replies = f.send(t, "555")
	assert.Contains(t, replies[0], "Matematika")
}

func TestAddStudentUnknownGroupReprompts(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})

	_, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)
	f.send(t, "Test User")
	f.send(t, "+998900000000")
	f.send(t, "555")

	replies := f.send(t, "999")
	assert.Equal(t, []string{messages.GroupNotFound()}, replies)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, types.StepGroup, session.Step)
}

func TestAddStudentAbortsWhenNoGroups(t *testing.T) {
	f := newFixture()

	_, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)
	f.send(t, "Test User")
	f.send(t, "+998900000000")

	replies := f.send(t, "555")
	assert.Equal(t, []string{messages.NoGroupsAbort()}, replies)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, f.students.students)
}

func TestStartMarkPaymentRefusesEmptyRoster(t *testing.T) {
	f := newFixture()

	replies, err := f.engine.StartMarkPayment(adminID)
	require.NoError(t, err)
	assert.Equal(t, []string{messages.RosterEmpty()}, replies)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMarkPaymentFullFlow(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})
	groupID := int64(10)
	require.NoError(t, f.students.CreateStudent(types.Student{
		UserID:  555,
		Name:    "Test User",
		Phone:   "+998900000000",
		GroupID: &groupID,
		Status:  types.StatusActive,
	}))

	replies, err := f.engine.StartMarkPayment(adminID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Test User")

	replies = f.send(t, "555")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Necha kunlik to'lov?")

	replies = f.send(t, "30")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "31.01.2024")
	assert.Contains(t, replies[0], "30 kun (1 oy)")

	st, err := f.students.GetStudent(555)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, types.StatusPaid, st.Status)
	require.NotNil(t, st.NextPayment)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), *st.NextPayment)
	require.NotNil(t, st.LastPayment)
	assert.Equal(t, fixedNow, *st.LastPayment)
	require.NotNil(t, st.PaymentDays)
	assert.Equal(t, 30, *st.PaymentDays)

	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, int64(555), f.scheduler.scheduled[0].studentID)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), f.scheduler.scheduled[0].fireAt)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMarkPaymentRejectsBadInput(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})
	require.NoError(t, f.students.CreateStudent(types.Student{UserID: 555, Name: "Test User"}))

	_, err := f.engine.StartMarkPayment(adminID)
	require.NoError(t, err)

	replies := f.send(t, "abc")
	assert.Equal(t, []string{messages.ErrNumberRequired()}, replies)

	replies = f.send(t, "777")
	assert.Equal(t, []string{messages.StudentNotFound()}, replies)

	f.send(t, "555")

	for _, bad := range []string{"abc", "0", "-5"} {
		replies = f.send(t, bad)
		assert.Equal(t, []string{messages.ErrPaymentDays()}, replies)
	}
	assert.Empty(t, f.scheduler.scheduled)

	replies = f.send(t, "30")
	assert.Contains(t, replies[0], "MUVAFFAQIYATLI")
	require.Len(t, f.scheduler.scheduled, 1)
}

func TestGroupReminderDispatch(t *testing.T) {
	f := newFixture(types.Group{GroupID: -100, Title: "Matematika"})
	groupID := int64(-100)
	for i, days := range []int{-3, 0, 2, 10} {
		next := fixedNow.Add(time.Duration(days) * 24 * time.Hour)
		require.NoError(t, f.students.CreateStudent(types.Student{
			UserID:      int64(i + 1),
			Name:        "Student " + strconv.Itoa(i+1),
			GroupID:     &groupID,
			NextPayment: &next,
			Status:      types.StatusPaid,
		}))
	}

	replies, err := f.engine.StartGroupReminder(adminID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Matematika")

	replies = f.send(t, "-100")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "tayyorlanmoqda")
	assert.Contains(t, replies[1], "Jami: 3 ta o'quvchi")

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, groupID, f.messenger.sent[0].chatID)
	assert.Contains(t, f.messenger.sent[0].text, "Student 1")
	assert.NotContains(t, f.messenger.sent[0].text, "Student 4")

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGroupReminderBroadcastFailure(t *testing.T) {
	f := newFixture(types.Group{GroupID: -100, Title: "Matematika"})
	f.messenger.err = errors.New("bot was kicked")
	groupID := int64(-100)
	next := fixedNow.Add(-24 * time.Hour)
	require.NoError(t, f.students.CreateStudent(types.Student{
		UserID: 1, Name: "Student", GroupID: &groupID, NextPayment: &next,
	}))

	_, err := f.engine.StartGroupReminder(adminID)
	require.NoError(t, err)

	replies := f.send(t, "-100")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1], "bot was kicked")

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGroupReminderAllCurrent(t *testing.T) {
	f := newFixture(types.Group{GroupID: -100, Title: "Matematika"})
	groupID := int64(-100)
	next := fixedNow.Add(30 * 24 * time.Hour)
	require.NoError(t, f.students.CreateStudent(types.Student{
		UserID: 1, Name: "Student", GroupID: &groupID, NextPayment: &next, Status: types.StatusPaid,
	}))

	_, err := f.engine.StartGroupReminder(adminID)
	require.NoError(t, err)

	replies := f.send(t, "-100")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "eslatish kerak bo'lgan o'quvchi yo'q")
	assert.Empty(t, f.messenger.sent)
}

func TestStartGroupReminderWithoutGroups(t *testing.T) {
	f := newFixture()

	replies, err := f.engine.StartGroupReminder(adminID)
	require.NoError(t, err)
	assert.Equal(t, []string{messages.NoGroups()}, replies)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestStartingNewFlowReplacesOldSession(t *testing.T) {
	f := newFixture(types.Group{GroupID: 10, Title: "Matematika"})
	require.NoError(t, f.students.CreateStudent(types.Student{UserID: 555, Name: "Test User"}))

	_, err := f.engine.StartAddStudent(adminID)
	require.NoError(t, err)

	_, err = f.engine.StartMarkPayment(adminID)
	require.NoError(t, err)

	session, err := f.sessions.GetSession(adminID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, types.ActionMarkPayment, session.Action)
	assert.Equal(t, types.StepSelectStudent, session.Step)
}
