package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/internal/reports"
)

type menuAction int

const (
	menuAddStudent menuAction = iota
	menuMarkPayment
	menuListStudents
	menuDaysRemaining
	menuGroupReminder
	menuStats
	menuListGroups
	menuSetGroupHelp
)

// menuActions maps each reply-keyboard button to its action. Free text
// that is not a button falls through to the dialogue engine.
var menuActions = map[string]menuAction{
	messages.BtnAddStudent:    menuAddStudent,
	messages.BtnMarkPayment:   menuMarkPayment,
	messages.BtnListStudents:  menuListStudents,
	messages.BtnDaysRemaining: menuDaysRemaining,
	messages.BtnGroupReminder: menuGroupReminder,
	messages.BtnStats:         menuStats,
	messages.BtnListGroups:    menuListGroups,
	messages.BtnSetGroupHelp:  menuSetGroupHelp,
}

func (h *Handlers) handleMenuAction(ctx context.Context, b *bot.Bot, chatID int64, action menuAction) {
	var replies []string
	var err error

	switch action {
	case menuAddStudent:
		replies, err = h.engine.StartAddStudent(h.adminID)
	case menuMarkPayment:
		replies, err = h.engine.StartMarkPayment(h.adminID)
	case menuGroupReminder:
		replies, err = h.engine.StartGroupReminder(h.adminID)
	case menuListStudents:
		replies, err = h.rosterReport()
	case menuDaysRemaining:
		replies, err = h.daysRemainingReport()
	case menuStats:
		replies, err = h.statsReport()
	case menuListGroups:
		replies, err = h.groupListReport()
	case menuSetGroupHelp:
		replies = []string{messages.SetGroupHelp()}
	}

	if err != nil {
		log.Printf("Menu action failed for admin %d: %v", h.adminID, err)
		h.reply(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	for _, text := range replies {
		h.reply(ctx, b, chatID, text)
	}
}

func (h *Handlers) rosterReport() ([]string, error) {
	students, err := h.students.ListStudents()
	if err != nil {
		return nil, err
	}
	titles, err := h.groupTitles()
	if err != nil {
		return nil, err
	}
	return []string{reports.RosterList(students, titles, time.Now().UTC())}, nil
}

func (h *Handlers) daysRemainingReport() ([]string, error) {
	students, err := h.students.ListStudents()
	if err != nil {
		return nil, err
	}
	titles, err := h.groupTitles()
	if err != nil {
		return nil, err
	}
	return []string{reports.DaysRemainingList(students, titles, time.Now().UTC())}, nil
}

func (h *Handlers) statsReport() ([]string, error) {
	students, err := h.students.ListStudents()
	if err != nil {
		return nil, err
	}
	groups, err := h.groups.ListGroups()
	if err != nil {
		return nil, err
	}
	return []string{reports.Stats(students, len(groups), time.Now().UTC())}, nil
}

func (h *Handlers) groupListReport() ([]string, error) {
	groups, err := h.groups.ListGroups()
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int, len(groups))
	for _, g := range groups {
		n, err := h.groups.CountGroupStudents(g.GroupID)
		if err != nil {
			return nil, err
		}
		counts[g.GroupID] = n
	}
	return []string{reports.GroupList(groups, counts)}, nil
}

func (h *Handlers) groupTitles() (map[int64]string, error) {
	groups, err := h.groups.ListGroups()
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(groups))
	for _, g := range groups {
		titles[g.GroupID] = g.Title
	}
	return titles, nil
}

// command extracts the bare command from a message: arguments and the
// @BotName suffix used in groups are stripped.
func command(text string) string {
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}

func mainMenuKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: messages.BtnAddStudent}, {Text: messages.BtnMarkPayment}},
			{{Text: messages.BtnListStudents}, {Text: messages.BtnDaysRemaining}},
			{{Text: messages.BtnGroupReminder}, {Text: messages.BtnStats}},
			{{Text: messages.BtnListGroups}, {Text: messages.BtnSetGroupHelp}},
		},
		ResizeKeyboard: true,
	}
}
