package services

import (
	"context"
	"time"

	"medivault-server/internal/models"
)

// DashboardSummary is the landing-page view for one user.
type DashboardSummary struct {
	TodayAppointments   []models.Appointment `json:"todayAppointments"`
	TodayCount          int                  `json:"todayCount"`
	PendingAppointments []models.Appointment `json:"pendingAppointments"`
	PendingCount        int                  `json:"pendingCount"`
	UnreadCount         int64                `json:"unreadCount"`
	NextAppointment     *models.Appointment  `json:"nextAppointment,omitempty"`
	GeneratedAt         time.Time            `json:"generatedAt"`
}

// DashboardService recomputes the summary from the repositories on every call.
type DashboardService struct {
	appointments *AppointmentService
	chat         *ChatService
	location     *time.Location
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService. "Today" is evaluated in loc.
func NewDashboardService(appointments *AppointmentService, chat *ChatService, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{appointments: appointments, chat: chat, location: loc, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Summary builds the dashboard for actor.
func (s *DashboardService) Summary(ctx context.Context, actor Actor) (*DashboardSummary, error) {
	appointments, err := s.appointments.ListAppointments(ctx, actor, models.AppointmentFilter{})
	if err != nil {
		return nil, err
	}
	unread, err := s.chat.GetUnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(appointments, unread, s.now(), s.location)
	return &summary, nil
}

// Summarize derives the dashboard from a user's appointments. An appointment is
// "today" when its local calendar date in loc equals the date of now in loc.
// The input is expected in ascending appointment time order.
func Summarize(appointments []models.Appointment, unread int64, now time.Time, loc *time.Location) DashboardSummary {
	summary := DashboardSummary{
		TodayAppointments:   []models.Appointment{},
		PendingAppointments: []models.Appointment{},
		UnreadCount:         unread,
		GeneratedAt:         now,
	}

	today := now.In(loc)
	for i := range appointments {
		a := appointments[i]
		if sameDay(a.AppointmentTime.In(loc), today) {
			summary.TodayAppointments = append(summary.TodayAppointments, a)
		}
		if a.Status == models.StatusPending {
			summary.PendingAppointments = append(summary.PendingAppointments, a)
		}
		if summary.NextAppointment == nil && a.Status == models.StatusApproved && !a.AppointmentTime.Before(now) {
			next := a
			summary.NextAppointment = &next
		}
	}
	summary.TodayCount = len(summary.TodayAppointments)
	summary.PendingCount = len(summary.PendingAppointments)
	return summary
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
