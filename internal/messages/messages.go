package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/ulugbekdev/tolov-bot/types"
)

const ParseModeHTML = "HTML"

const divider = "━━━━━━━━━━━━━━━━━━━━"

// Main menu button labels. The free-text router matches these verbatim.
const (
	BtnAddStudent    = "➕ O'quvchi qo'shish"
	BtnMarkPayment   = "💰 To'lov belgilash"
	BtnListStudents  = "📋 O'quvchilar ro'yxati"
	BtnDaysRemaining = "⏰ Qolgan kunlar"
	BtnGroupReminder = "📨 Guruhga to'lovlarni eslatish"
	BtnStats         = "📊 Statistika"
	BtnListGroups    = "📱 Guruhlar ro'yxati"
	BtnSetGroupHelp  = "⚙️ Joriy guruhni o'rnatish"
)

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func StartAdmin() string {
	return "🤖 <b>Assalomu alaykum, Admin!</b>\n\n" +
		"To'lov boshqaruv tizimiga xush kelibsiz.\n" +
		"Quyidagi tugmalardan foydalaning:"
}

func StartStudent() string {
	return "Assalomu alaykum! Sizning to'lovlaringiz adminlar tomonidan nazorat qilinadi."
}

func ErrorDefault() string {
	return "🚫 <b>Xatolik yuz berdi</b>\nQaytadan urinib ko'ring."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Komanda topilmadi</b>"
}

func PromptStudentName() string {
	return "👤 O'quvchining to'liq ismini kiriting:\n\n" +
		"Misol: Abdullayev Ali"
}

func PromptStudentPhone() string {
	return "📱 Telefon raqamini kiriting:\n\n" +
		"Misol: +998901234567"
}

func PromptStudentUserID() string {
	return "🆔 Telegram ID ni kiriting:\n\n" +
		"ID ni qanday topish mumkin:\n" +
		"1. @userinfobot ga /start yuboring\n" +
		"2. O'quvchining xabarini forward qiling\n" +
		"3. ID ni ko'chirib oling"
}

func ErrUserIDFormat() string {
	return "❌ <b>Xato format!</b>\n\n" +
		"ID faqat raqamlardan iborat bo'lishi kerak.\n" +
		"Misol: 123456789"
}

func ErrGroupIDFormat() string {
	return "❌ <b>Xato format!</b>\n\nGuruh ID faqat raqam bo'lishi kerak."
}

func ErrNumberRequired() string {
	return "❌ Faqat raqam kiriting!"
}

func ErrPaymentDays() string {
	return "❌ Faqat musbat raqam kiriting!\n\nMisol: 30"
}

func GroupNotFound() string {
	return "❌ <b>Bu guruh topilmadi!</b>\n\nIltimos, mavjud guruh ID sini kiriting."
}

func StudentNotFound() string {
	return "❌ Bu ID bazada topilmadi. Qaytadan kiriting:"
}

// NoGroupsAbort is sent when add-student reaches the group step with an
// empty groups collection; the flow is aborted at that point.
func NoGroupsAbort() string {
	return "❌ <b>Guruhlar topilmadi!</b>\n\nAvval guruh qo'shing."
}

func NoGroups() string {
	return "❌ <b>Guruhlar topilmadi!</b>\n\n" +
		"Avval guruh qo'shing:\n" +
		"1. Botni guruhga qo'shing\n" +
		"2. /setgroup kommandasini guruhda yuboring"
}

func ChooseStudentGroup(groups []types.Group) string {
	var b strings.Builder
	b.WriteString("📱 <b>GURUHNI TANLANG</b>\n\n")
	for i, g := range groups {
		fmt.Fprintf(&b, "%d. %s\n   🆔 ID: %d\n\n", i+1, Escape(g.Title), g.GroupID)
	}
	b.WriteString(divider + "\n")
	b.WriteString("O'quvchini qaysi guruhga qo'shmoqchisiz?\nGuruh ID sini kiriting:")
	return b.String()
}

func ChooseReminderGroup(groups []types.Group) string {
	var b strings.Builder
	b.WriteString("📨 <b>GURUHGA TO'LOV ESLATMASI</b>\n\n")
	b.WriteString("Qaysi guruhga eslatma yuborishni xohlaysiz?\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "🆔 Guruh ID: %d\n📱 Nomi: %s\n\n", g.GroupID, Escape(g.Title))
	}
	b.WriteString(divider + "\n")
	b.WriteString("Guruh ID sini kiriting:")
	return b.String()
}

func StudentAdded(st types.Student, groupTitle string) string {
	tail := "⚠️ Username topilmadi"
	if st.Username != "" {
		tail = "🔗 Username: @" + Escape(st.Username)
	}
	return fmt.Sprintf(
		"✅ <b>O'quvchi muvaffaqiyatli qo'shildi!</b>\n\n"+
			"👤 Ism: %s\n"+
			"🆔 Telegram ID: %d\n"+
			"📱 Telefon: %s\n"+
			"📱 Guruh: %s\n%s",
		Escape(st.Name), st.UserID, Escape(st.Phone), Escape(groupTitle), tail)
}

func AskPaymentDays(st types.Student, groupTitle string) string {
	return fmt.Sprintf(
		"👤 %s\n🆔 ID: %d\n📱 Guruh: %s\n\n"+
			"📅 Necha kunlik to'lov?\n\n"+
			"Misol:\n30 - 1 oylik\n90 - 3 oylik\n180 - 6 oylik",
		Escape(st.Name), st.UserID, Escape(groupTitle))
}

func PaymentMarked(name string, userID int64, paidAt, nextPayment time.Time, days int) string {
	return fmt.Sprintf(
		"✅ <b>TO'LOV MUVAFFAQIYATLI BELGILANDI!</b>\n\n"+
			"👤 O'quvchi: %s\n"+
			"🆔 ID: %d\n"+
			"📅 To'lov sanasi: %s\n"+
			"⏰ Keyingi to'lov: %s\n"+
			"📆 Muddat: %d kun (%d oy)",
		Escape(name), userID, formatDate(paidAt), formatDate(nextPayment), days, days/30)
}

func RosterEmpty() string {
	return "❌ O'quvchilar ro'yxati bo'sh!\n\nAvval o'quvchi qo'shing."
}

func PreparingReminders(groupTitle string) string {
	return fmt.Sprintf("⏳ %s guruhi uchun eslatmalar tayyorlanmoqda...", Escape(groupTitle))
}

func GroupBroadcastFailed(groupTitle string, groupID int64, err error) string {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return fmt.Sprintf(
		"❌ <b>Xatolik yuz berdi!</b>\n\n"+
			"Guruh: %s\n"+
			"ID: %d\n"+
			"Xato: %s\n\n"+
			"Botni guruhda admin qilganingizga ishonch hosil qiling.",
		Escape(groupTitle), groupID, Escape(detail))
}

// DirectReminder is the message a student receives when the payment
// term runs out.
func DirectReminder(name string) string {
	return fmt.Sprintf(
		"⏰ <b>TO'LOV ESLATMASI</b>\n\n"+
			"Hurmatli %s,\n"+
			"Sizning to'lov muddatingiz tugadi!\n\n"+
			"📅 To'lov sanasi: Bugun\n"+
			"📱 Admin bilan bog'laning.",
		Escape(name))
}

func GroupRegistered(title string, groupID int64) string {
	return fmt.Sprintf(
		"✅ <b>Guruh muvaffaqiyatli qo'shildi!</b>\n\n"+
			"📱 Guruh: %s\n"+
			"🆔 ID: %d\n\n"+
			"Endi bu guruhga o'quvchilarni biriktirishingiz mumkin.",
		Escape(title), groupID)
}

func SetGroupOnlyInGroup() string {
	return "❌ Bu funksiya faqat guruhda ishlaydi!\n\n" +
		"Botni guruhga qo'shing va u yerda /setgroup kommandasini yuboring."
}

func SetGroupHelp() string {
	return "⚙️ <b>Guruhni o'rnatish:</b>\n\n" +
		"1. Botni guruhga qo'shing\n" +
		"2. Botni admin qiling\n" +
		"3. Guruhda /setgroup kommandasini yuboring\n\n" +
		"Shundan keyin o'quvchilarni shu guruhga biriktirishingiz mumkin."
}
