// Package reports renders students and groups into the administrator's
// summaries and the group reminder broadcast. Everything here is a pure
// read of the records passed in.
package reports

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/types"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

const noGroupLabel = "Guruhsiz"

// DaysLeft is the whole number of days until the payment date, floored:
// 23 hours from now is 0 (due today), one hour overdue is -1.
func DaysLeft(nextPayment, now time.Time) int {
	return int(math.Floor(nextPayment.Sub(now).Hours() / 24))
}

type Bucket int

const (
	BucketOverdue Bucket = iota
	BucketDueToday
	BucketDueSoon
	BucketCurrent
)

func BucketFor(daysLeft int) Bucket {
	switch {
	case daysLeft < 0:
		return BucketOverdue
	case daysLeft == 0:
		return BucketDueToday
	case daysLeft <= 7:
		return BucketDueSoon
	default:
		return BucketCurrent
	}
}

type Entry struct {
	Student  types.Student
	DaysLeft int
}

// Partition splits students with a payment date into the four buckets.
// Overdue, DueToday and DueSoon are sorted ascending by days left, so
// the most overdue and the soonest due come first.
type Partition struct {
	Overdue  []Entry
	DueToday []Entry
	DueSoon  []Entry
	Current  []Entry
}

func PartitionStudents(students []types.Student, now time.Time) Partition {
	var p Partition
	for _, st := range students {
		if st.NextPayment == nil {
			continue
		}
		e := Entry{Student: st, DaysLeft: DaysLeft(*st.NextPayment, now)}
		switch BucketFor(e.DaysLeft) {
		case BucketOverdue:
			p.Overdue = append(p.Overdue, e)
		case BucketDueToday:
			p.DueToday = append(p.DueToday, e)
		case BucketDueSoon:
			p.DueSoon = append(p.DueSoon, e)
		case BucketCurrent:
			p.Current = append(p.Current, e)
		}
	}
	sortByDays(p.Overdue)
	sortByDays(p.DueSoon)
	sortByDays(p.Current)
	return p
}

func sortByDays(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DaysLeft < entries[j].DaysLeft
	})
}

// Actionable counts the students worth reminding about.
func (p Partition) Actionable() int {
	return len(p.Overdue) + len(p.DueToday) + len(p.DueSoon)
}

func mention(st types.Student) string {
	if st.Username != "" {
		return "@" + messages.Escape(st.Username)
	}
	return messages.Escape(st.Name)
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// GroupReminderMessage renders the broadcast body: one section per
// non-empty bucket, overdue first, current students omitted entirely.
func GroupReminderMessage(p Partition) string {
	var b strings.Builder
	b.WriteString("📢 <b>OYLIK TO'LOV ESLATMALARI</b>\n")
	b.WriteString(divider + "\n\n")

	if len(p.Overdue) > 0 {
		b.WriteString("🔴 <b>MUDDATI O'TGAN:</b>\n\n")
		for _, e := range p.Overdue {
			fmt.Fprintf(&b, "▪️ %s\n   ⚠️ %d kun kechikkan\n   📅 %s\n\n",
				mention(e.Student), -e.DaysLeft, formatDate(*e.Student.NextPayment))
		}
	}

	if len(p.DueToday) > 0 {
		b.WriteString("🟡 <b>BUGUN TO'LOV:</b>\n\n")
		for _, e := range p.DueToday {
			fmt.Fprintf(&b, "▪️ %s\n   📅 %s\n\n",
				mention(e.Student), formatDate(*e.Student.NextPayment))
		}
	}

	if len(p.DueSoon) > 0 {
		b.WriteString("🟠 <b>YAQIN MUDDAT (7 kun ichida):</b>\n\n")
		for _, e := range p.DueSoon {
			fmt.Fprintf(&b, "▪️ %s\n   ⏰ %d kun qoldi\n   📅 %s\n\n",
				mention(e.Student), e.DaysLeft, formatDate(*e.Student.NextPayment))
		}
	}

	b.WriteString(divider + "\n")
	b.WriteString("💡 To'lovlarni o'z vaqtida amalga oshiring!")
	return b.String()
}

// ReminderSummary is the report the administrator gets after a
// successful broadcast.
func ReminderSummary(groupTitle string, p Partition) string {
	return fmt.Sprintf(
		"✅ %s guruhiga eslatma yuborildi!\n\n"+
			"📊 Jami: %d ta o'quvchi\n"+
			"🔴 Kechikkan: %d\n"+
			"🟡 Bugun: %d\n"+
			"🟠 7 kun ichida: %d",
		messages.Escape(groupTitle), p.Actionable(), len(p.Overdue), len(p.DueToday), len(p.DueSoon))
}

func NothingToRemind(groupTitle string, currentCount int) string {
	return fmt.Sprintf(
		"ℹ️ %s guruhida eslatish kerak bo'lgan o'quvchi yo'q.\n\n"+
			"✅ To'lagan: %d ta\n"+
			"Barcha o'quvchilar o'z vaqtida to'lovni amalga oshirgan.",
		messages.Escape(groupTitle), currentCount)
}

func groupTitleFor(st types.Student, groupTitles map[int64]string) string {
	if st.GroupID == nil {
		return noGroupLabel
	}
	if title, ok := groupTitles[*st.GroupID]; ok {
		return title
	}
	return noGroupLabel
}

// RosterList is the full student listing with a days-left glyph per
// student.
func RosterList(students []types.Student, groupTitles map[int64]string, now time.Time) string {
	var b strings.Builder
	b.WriteString("📋 <b>O'QUVCHILAR RO'YXATI</b>\n")
	b.WriteString(divider + "\n\n")

	for _, st := range students {
		statusEmoji := "⚠️"
		if st.Status == types.StatusPaid {
			statusEmoji = "✅"
		}
		nextDate := "Belgilanmagan"
		if st.NextPayment != nil {
			nextDate = formatDate(*st.NextPayment)
		}

		fmt.Fprintf(&b, "%s %s\n   🆔 ID: %d\n   📱 %s\n   📱 Guruh: %s\n   📅 Keyingi to'lov: %s\n",
			statusEmoji, messages.Escape(st.Name), st.UserID, messages.Escape(st.Phone),
			messages.Escape(groupTitleFor(st, groupTitles)), nextDate)

		if st.NextPayment != nil {
			daysLeft := DaysLeft(*st.NextPayment, now)
			switch {
			case daysLeft < 0:
				fmt.Fprintf(&b, "   🔴 %d kun kechikkan\n", -daysLeft)
			case daysLeft == 0:
				b.WriteString("   🟡 Bugun to'lov\n")
			default:
				fmt.Fprintf(&b, "   ⏰ %d kun qoldi\n", daysLeft)
			}
		}
		b.WriteString("\n")
	}

	if len(students) == 0 {
		b.WriteString("Ro'yxat bo'sh")
	} else {
		b.WriteString(divider + "\n")
		fmt.Fprintf(&b, "📊 Jami: %d ta o'quvchi", len(students))
	}
	return b.String()
}

// PaymentSelectionList opens the mark-payment flow: the roster plus the
// instruction to type a student id.
func PaymentSelectionList(students []types.Student, groupTitles map[int64]string) string {
	var b strings.Builder
	b.WriteString("💰 <b>TO'LOV BELGILASH</b>\n\n")
	b.WriteString("O'quvchilar ro'yxati:\n\n")
	for i, st := range students {
		fmt.Fprintf(&b, "%d. %s\n   🆔 ID: %d\n   📱 %s\n   📱 Guruh: %s\n\n",
			i+1, messages.Escape(st.Name), st.UserID, messages.Escape(st.Phone),
			messages.Escape(groupTitleFor(st, groupTitles)))
	}
	b.WriteString(divider + "\n")
	b.WriteString("O'quvchining Telegram ID sini kiriting:")
	return b.String()
}

// DaysRemainingList lists every student with a payment date, globally
// sorted by days left ascending.
func DaysRemainingList(students []types.Student, groupTitles map[int64]string, now time.Time) string {
	var b strings.Builder
	b.WriteString("⏰ <b>TO'LOVGA QOLGAN KUNLAR</b>\n")
	b.WriteString(divider + "\n\n")

	var entries []Entry
	for _, st := range students {
		if st.NextPayment == nil {
			continue
		}
		entries = append(entries, Entry{Student: st, DaysLeft: DaysLeft(*st.NextPayment, now)})
	}
	sortByDays(entries)

	if len(entries) == 0 {
		b.WriteString("Hech kimga to'lov belgilanmagan")
		return b.String()
	}

	for _, e := range entries {
		emoji := "🟢"
		status := fmt.Sprintf("%d kun qoldi", e.DaysLeft)
		switch {
		case e.DaysLeft < 0:
			emoji = "🔴"
			status = fmt.Sprintf("KECHIKDI (%d kun)", -e.DaysLeft)
		case e.DaysLeft == 0:
			emoji = "🟡"
			status = "BUGUN TO'LOV"
		case e.DaysLeft <= 7:
			emoji = "🟠"
		}
		fmt.Fprintf(&b, "%s %s\n   📱 %s\n   📱 Guruh: %s\n   📅 %s\n   ⏱ %s\n\n",
			emoji, messages.Escape(e.Student.Name), messages.Escape(e.Student.Phone),
			messages.Escape(groupTitleFor(e.Student, groupTitles)),
			formatDate(*e.Student.NextPayment), status)
	}

	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "📊 Jami: %d ta o'quvchi", len(entries))
	return b.String()
}

// Stats renders the aggregate bucket counts and the paid percentage
// over the whole roster.
func Stats(students []types.Student, groupCount int, now time.Time) string {
	p := PartitionStudents(students, now)

	var b strings.Builder
	b.WriteString("📊 <b>UMUMIY STATISTIKA</b>\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "👥 Jami o'quvchilar: %d ta\n", len(students))
	fmt.Fprintf(&b, "📱 Guruhlar soni: %d ta\n\n", groupCount)

	b.WriteString("TO'LOV HOLATI:\n")
	fmt.Fprintf(&b, "✅ To'lagan: %d ta\n", len(p.Current))
	fmt.Fprintf(&b, "🟠 7 kun ichida: %d ta\n", len(p.DueSoon))
	fmt.Fprintf(&b, "🟡 Bugun to'lov: %d ta\n", len(p.DueToday))
	fmt.Fprintf(&b, "🔴 Kechikkan: %d ta\n\n", len(p.Overdue))

	if len(students) > 0 {
		paidPercent := float64(len(p.Current)) / float64(len(students)) * 100
		fmt.Fprintf(&b, "📈 To'lagan foiz: %.1f%%\n", paidPercent)
	}
	b.WriteString(divider)
	return b.String()
}

// GroupList lists every registered group with its student count.
func GroupList(groups []types.Group, counts map[int64]int) string {
	var b strings.Builder
	b.WriteString("📱 <b>GURUHLAR RO'YXATI</b>\n")
	b.WriteString(divider + "\n\n")

	for i, g := range groups {
		fmt.Fprintf(&b, "%d. %s\n   🆔 ID: %d\n   👥 O'quvchilar: %d ta\n\n",
			i+1, messages.Escape(g.Title), g.GroupID, counts[g.GroupID])
	}

	if len(groups) == 0 {
		b.WriteString("Hech qanday guruh topilmadi.\n\n")
		b.WriteString("Guruhga botni qo'shing va /setgroup komandasini yuboring.")
	} else {
		b.WriteString(divider + "\n")
		fmt.Fprintf(&b, "📊 Jami: %d ta guruh", len(groups))
	}
	return b.String()
}
