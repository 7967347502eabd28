// Package scheduler runs the one-shot payment reminders. Each student
// has at most one pending job; scheduling again replaces the timer and
// the persisted job, so only the latest payment date ever fires.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/types"
)

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Scheduler struct {
	students types.StudentStore
	jobs     types.ReminderJobStore
	notifier Notifier

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(students types.StudentStore, jobs types.ReminderJobStore, notifier Notifier) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		students: students,
		jobs:     jobs,
		notifier: notifier,
		timers:   make(map[int64]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start re-arms every persisted job. Jobs whose fire time has already
// passed (the bot was down) fire immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	jobs, err := s.jobs.ListJobs()
	if err != nil {
		log.Printf("Reminder recovery: failed to list jobs: %v", err)
		return
	}
	for _, job := range jobs {
		s.arm(job.StudentID, job.FireAt)
	}
	if len(jobs) > 0 {
		log.Printf("Reminder recovery: re-armed %d job(s)", len(jobs))
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	log.Println("Reminder scheduler stopped")
}

// Schedule persists and arms a reminder for the student, replacing any
// prior job for the same id.
func (s *Scheduler) Schedule(studentID int64, fireAt time.Time) {
	if err := s.jobs.SaveJob(types.ReminderJob{StudentID: studentID, FireAt: fireAt}); err != nil {
		log.Printf("Failed to persist reminder job for student %d: %v", studentID, err)
	}
	s.arm(studentID, fireAt)
}

// Cancel drops the student's pending reminder. Canceling an absent job
// is a no-op.
func (s *Scheduler) Cancel(studentID int64) {
	s.mu.Lock()
	if timer, ok := s.timers[studentID]; ok {
		timer.Stop()
		delete(s.timers, studentID)
	}
	s.mu.Unlock()

	if err := s.jobs.DeleteJob(studentID); err != nil {
		log.Printf("Failed to delete reminder job for student %d: %v", studentID, err)
	}
}

func (s *Scheduler) arm(studentID int64, fireAt time.Time) {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if old, ok := s.timers[studentID]; ok {
		old.Stop()
	}
	s.timers[studentID] = time.AfterFunc(delay, func() {
		s.fire(studentID)
	})
	s.mu.Unlock()
}

// fire delivers the reminder. The student may have been removed since
// scheduling; that is a silent no-op. A failed send is logged only —
// the status update still happens, the payment really is overdue.
func (s *Scheduler) fire(studentID int64) {
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	delete(s.timers, studentID)
	s.mu.Unlock()

	if err := s.jobs.DeleteJob(studentID); err != nil {
		log.Printf("Failed to delete fired reminder job for student %d: %v", studentID, err)
	}

	student, err := s.students.GetStudent(studentID)
	if err != nil {
		log.Printf("Reminder for student %d: lookup failed: %v", studentID, err)
		return
	}
	if student == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	if err := s.notifier.SendText(ctx, studentID, messages.DirectReminder(student.Name)); err != nil {
		log.Printf("Reminder send to student %d failed: %v", studentID, err)
	}

	if err := s.students.MarkOverdue(studentID); err != nil {
		log.Printf("Failed to mark student %d overdue: %v", studentID, err)
	}
}
