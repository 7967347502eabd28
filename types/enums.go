package types

type StudentStatus string

const (
	StatusActive  StudentStatus = "active"
	StatusPaid    StudentStatus = "paid"
	StatusOverdue StudentStatus = "overdue"
)

// Action is the multi-step dialogue an administrator session is running.
type Action string

const (
	ActionNone         Action = ""
	ActionAddStudent   Action = "add_student"
	ActionMarkPayment  Action = "mark_payment"
	ActionSendReminder Action = "send_reminder"
)

// Step is the cursor inside an Action's dialogue.
type Step string

const (
	StepNone Step = ""

	StepName   Step = "name"
	StepPhone  Step = "phone"
	StepUserID Step = "user_id"
	StepGroup  Step = "group"

	StepSelectStudent Step = "select_student"
	StepPaymentDays   Step = "payment_days"

	StepSelectGroup Step = "select_group"
)
