package services

import (
	"context"
	"testing"
	"time"

	"medivault-server/internal/models"
	"medivault-server/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSummarize_TodayUsesLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC) // 12:00 local

	earlyLocal := models.Appointment{
		BaseModel:       models.BaseModel{ID: "a"},
		AppointmentTime: time.Date(2025, 6, 9, 23, 0, 0, 0, time.UTC), // 01:00 local on the 10th
		Status:          models.StatusFinished,
	}
	afternoon := models.Appointment{
		BaseModel:       models.BaseModel{ID: "b"},
		AppointmentTime: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		Status:          models.StatusApproved,
	}
	pendingToday := models.Appointment{
		BaseModel:       models.BaseModel{ID: "c"},
		AppointmentTime: time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC),
		Status:          models.StatusPending,
	}
	lateUTC := models.Appointment{
		BaseModel:       models.BaseModel{ID: "d"},
		AppointmentTime: time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC), // 00:30 local on the 11th
		Status:          models.StatusPending,
	}

	summary := Summarize([]models.Appointment{earlyLocal, afternoon, pendingToday, lateUTC}, 4, now, loc)

	require.Len(t, summary.TodayAppointments, 3)
	assert.Equal(t, "a", summary.TodayAppointments[0].ID)
	assert.Equal(t, "b", summary.TodayAppointments[1].ID)
	assert.Equal(t, "c", summary.TodayAppointments[2].ID)
	assert.Equal(t, 3, summary.TodayCount)

	assert.Equal(t, 2, summary.PendingCount)
	assert.Equal(t, int64(4), summary.UnreadCount)
	require.NotNil(t, summary.NextAppointment)
	assert.Equal(t, "b", summary.NextAppointment.ID)
	assert.Equal(t, now, summary.GeneratedAt)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, 0, testNow, time.UTC)

	assert.NotNil(t, summary.TodayAppointments)
	assert.NotNil(t, summary.PendingAppointments)
	assert.Zero(t, summary.TodayCount)
	assert.Zero(t, summary.PendingCount)
	assert.Nil(t, summary.NextAppointment)
}

func TestDashboardService_RecomputesOnEveryCall(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	users := repositories.NewMemoryUserRepository(testPatient, testDoctor)
	appointmentRepo := repositories.NewMemoryAppointmentRepository()
	messageRepo := repositories.NewMemoryMessageRepository()

	relay := &mockRelay{}
	relay.On("NotifyApproval", mockAnyNotice()).Maybe()
	clock := func() time.Time { return testNow }

	appointments := NewAppointmentService(appointmentRepo, users, relay, log).WithClock(clock)
	chat := NewChatService(messageRepo, users, 500, log).WithClock(clock)
	dashboard := NewDashboardService(appointments, chat, time.UTC).WithClock(clock)

	created, err := appointments.CreateAppointment(ctx, patientActor, CreateAppointmentInput{
		DoctorID:        testDoctor.ID,
		AppointmentTime: testNow.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	_, err = chat.SendMessage(ctx, testPatient.ID, testDoctor.ID, "Can we move it earlier?")
	require.NoError(t, err)

	summary, err := dashboard.Summary(ctx, doctorActor)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TodayCount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, int64(1), summary.UnreadCount)
	assert.Nil(t, summary.NextAppointment)

	_, err = appointments.RequestTransition(ctx, doctorActor, created.ID, models.StatusApproved, "")
	require.NoError(t, err)
	require.NoError(t, chat.MarkRead(ctx, testPatient.ID, testDoctor.ID))

	summary, err = dashboard.Summary(ctx, doctorActor)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PendingCount)
	assert.Equal(t, int64(0), summary.UnreadCount)
	require.NotNil(t, summary.NextAppointment)
	assert.Equal(t, created.ID, summary.NextAppointment.ID)
}
