package reports

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulugbekdev/tolov-bot/types"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func studentDueIn(userID int64, name string, days int) types.Student {
	next := testNow.Add(time.Duration(days) * 24 * time.Hour)
	return types.Student{
		UserID:      userID,
		Name:        name,
		Phone:       "+998900000000",
		NextPayment: &next,
		Status:      types.StatusPaid,
	}
}

func TestDaysLeft(t *testing.T) {
	cases := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"one hour overdue", -time.Hour, -1},
		{"three days overdue", -72 * time.Hour, -3},
		{"due in 23 hours counts as today", 23 * time.Hour, 0},
		{"due right now", 0, 0},
		{"due in 25 hours", 25 * time.Hour, 1},
		{"due in exactly 7 days", 7 * 24 * time.Hour, 7},
		{"due in 8 days", 8 * 24 * time.Hour, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysLeft(testNow.Add(tc.offset), testNow))
		})
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketOverdue, BucketFor(-1))
	assert.Equal(t, BucketDueToday, BucketFor(0))
	assert.Equal(t, BucketDueSoon, BucketFor(1))
	assert.Equal(t, BucketDueSoon, BucketFor(7))
	assert.Equal(t, BucketCurrent, BucketFor(8))
}

func TestPartitionStudents(t *testing.T) {
	students := []types.Student{
		studentDueIn(1, "Overdue Late", -5),
		studentDueIn(2, "Overdue Recent", -1),
		studentDueIn(3, "Today", 0),
		studentDueIn(4, "Soon Far", 7),
		studentDueIn(5, "Soon Near", 2),
		studentDueIn(6, "Current", 30),
		{UserID: 7, Name: "No Date"},
	}

	p := PartitionStudents(students, testNow)

	require.Len(t, p.Overdue, 2)
	require.Len(t, p.DueToday, 1)
	require.Len(t, p.DueSoon, 2)
	require.Len(t, p.Current, 1)

	// Every student lands in exactly one bucket; the dateless one in none.
	assert.Equal(t, 6, p.Actionable()+len(p.Current))

	// Most overdue first, soonest due first.
	assert.Equal(t, int64(1), p.Overdue[0].Student.UserID)
	assert.Equal(t, int64(2), p.Overdue[1].Student.UserID)
	assert.Equal(t, int64(5), p.DueSoon[0].Student.UserID)
	assert.Equal(t, int64(4), p.DueSoon[1].Student.UserID)
}

func TestGroupReminderMessage(t *testing.T) {
	students := []types.Student{
		studentDueIn(1, "Kechikkan Ali", -3),
		studentDueIn(2, "Bugun Vali", 0),
		studentDueIn(3, "Yaqin Sardor", 2),
		studentDueIn(4, "Tolagan Aziz", 10),
	}
	p := PartitionStudents(students, testNow)
	msg := GroupReminderMessage(p)

	assert.Contains(t, msg, "MUDDATI O'TGAN")
	assert.Contains(t, msg, "Kechikkan Ali")
	assert.Contains(t, msg, "3 kun kechikkan")
	assert.Contains(t, msg, "BUGUN TO'LOV")
	assert.Contains(t, msg, "Bugun Vali")
	assert.Contains(t, msg, "YAQIN MUDDAT")
	assert.Contains(t, msg, "2 kun qoldi")

	// Current students never appear in the broadcast.
	assert.NotContains(t, msg, "Tolagan Aziz")

	// Overdue section comes before today, today before soon.
	overdueAt := strings.Index(msg, "MUDDATI O'TGAN")
	todayAt := strings.Index(msg, "BUGUN TO'LOV")
	soonAt := strings.Index(msg, "YAQIN MUDDAT")
	assert.Less(t, overdueAt, todayAt)
	assert.Less(t, todayAt, soonAt)
}

func TestGroupReminderMessageMentionPrefersUsername(t *testing.T) {
	st := studentDueIn(1, "Ali Valiyev", -1)
	st.Username = "alivaliyev"
	p := PartitionStudents([]types.Student{st}, testNow)
	msg := GroupReminderMessage(p)

	assert.Contains(t, msg, "@alivaliyev")
	assert.NotContains(t, msg, "Ali Valiyev")
}

func TestGroupReminderMessageSkipsEmptySections(t *testing.T) {
	p := PartitionStudents([]types.Student{studentDueIn(1, "Bugun Vali", 0)}, testNow)
	msg := GroupReminderMessage(p)

	assert.Contains(t, msg, "BUGUN TO'LOV")
	assert.NotContains(t, msg, "MUDDATI O'TGAN")
	assert.NotContains(t, msg, "YAQIN MUDDAT")
}

func TestNothingToRemind(t *testing.T) {
	msg := NothingToRemind("Matematika", 4)
	assert.Contains(t, msg, "Matematika")
	assert.Contains(t, msg, "4 ta")
}

func TestDaysRemainingListSortedAscending(t *testing.T) {
	students := []types.Student{
		studentDueIn(1, "Uchinchi", 5),
		studentDueIn(2, "Birinchi", -2),
		studentDueIn(3, "Ikkinchi", 0),
	}
	msg := DaysRemainingList(students, nil, testNow)

	first := strings.Index(msg, "Birinchi")
	second := strings.Index(msg, "Ikkinchi")
	third := strings.Index(msg, "Uchinchi")
	require.NotEqual(t, -1, first)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, msg, "KECHIKDI (2 kun)")
	assert.Contains(t, msg, "BUGUN TO'LOV")
	assert.Contains(t, msg, "Jami: 3 ta o'quvchi")
}

func TestDaysRemainingListEmpty(t *testing.T) {
	msg := DaysRemainingList([]types.Student{{UserID: 1, Name: "No Date"}}, nil, testNow)
	assert.Contains(t, msg, "Hech kimga to'lov belgilanmagan")
}

func TestStats(t *testing.T) {
	students := []types.Student{
		studentDueIn(1, "A", -1),
		studentDueIn(2, "B", 0),
		studentDueIn(3, "C", 3),
		studentDueIn(4, "D", 30),
	}
	msg := Stats(students, 2, testNow)

	assert.Contains(t, msg, "Jami o'quvchilar: 4 ta")
	assert.Contains(t, msg, "Guruhlar soni: 2 ta")
	assert.Contains(t, msg, "To'lagan: 1 ta")
	assert.Contains(t, msg, "Kechikkan: 1 ta")
	assert.Contains(t, msg, "25.0%")
}

func TestStatsEmptyRosterOmitsPercent(t *testing.T) {
	msg := Stats(nil, 0, testNow)
	assert.NotContains(t, msg, "%")
}

func TestRosterList(t *testing.T) {
	groupID := int64(100)
	st := studentDueIn(1, "Ali Valiyev", 3)
	st.GroupID = &groupID
	titles := map[int64]string{100: "Matematika"}

	msg := RosterList([]types.Student{st}, titles, testNow)
	assert.Contains(t, msg, "Ali Valiyev")
	assert.Contains(t, msg, "Matematika")
	assert.Contains(t, msg, "3 kun qoldi")

	empty := RosterList(nil, titles, testNow)
	assert.Contains(t, empty, "Ro'yxat bo'sh")
}

func TestGroupList(t *testing.T) {
	groups := []types.Group{{GroupID: 100, Title: "Matematika"}}
	msg := GroupList(groups, map[int64]int{100: 7})
	assert.Contains(t, msg, "Matematika")
	assert.Contains(t, msg, "O'quvchilar: 7 ta")

	empty := GroupList(nil, nil)
	assert.Contains(t, empty, "/setgroup")
}
