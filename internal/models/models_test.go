package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAppointmentStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   AppointmentStatus
		wantOK bool
	}{
		{"PENDING", StatusPending, true},
		{"approved", StatusApproved, true},
		{" Rejected ", StatusRejected, true},
		{"FINISHED", StatusFinished, true},
		{"CONFIRMED", "CONFIRMED", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAppointmentStatus(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAppointmentStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusFinished.IsTerminal())
}

func TestAppointment_IsParticipant(t *testing.T) {
	apt := &Appointment{PatientID: "p1", DoctorID: "d1"}
	assert.True(t, apt.IsParticipant("p1"))
	assert.True(t, apt.IsParticipant("d1"))
	assert.False(t, apt.IsParticipant("d2"))
	assert.False(t, apt.IsParticipant(""))
}

func TestAppointmentFilter_Matches(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	next := day.Add(24 * time.Hour)
	pending := StatusPending

	apt := &Appointment{AppointmentTime: day.Add(9 * time.Hour), Status: StatusPending}

	assert.True(t, AppointmentFilter{}.Matches(apt))
	assert.True(t, AppointmentFilter{Status: &pending, From: &day, To: &next}.Matches(apt))

	approved := StatusApproved
	assert.False(t, AppointmentFilter{Status: &approved}.Matches(apt))

	// To is exclusive
	assert.False(t, AppointmentFilter{To: &day}.Matches(&Appointment{AppointmentTime: day}))
	assert.False(t, AppointmentFilter{From: &next}.Matches(apt))
}

func TestSortConversation(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []Message{
		{BaseModel: BaseModel{ID: "c"}, Timestamp: t0.Add(time.Second)},
		{BaseModel: BaseModel{ID: "b"}, Timestamp: t0},
		{BaseModel: BaseModel{ID: "a"}, Timestamp: t0},
		{BaseModel: BaseModel{ID: "0"}, Timestamp: t0.Add(-time.Second)},
	}

	SortConversation(msgs)

	var ids []string
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"0", "a", "b", "c"}, ids)
}

func TestMessage_IsUnreadFor(t *testing.T) {
	now := time.Now()
	msg := &Message{SenderID: "a", ReceiverID: "b"}
	assert.True(t, msg.IsUnreadFor("b"))
	assert.False(t, msg.IsUnreadFor("a"))

	msg.ReadAt = &now
	assert.False(t, msg.IsUnreadFor("b"))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("DOCTOR")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}

func TestBaseModel_EnsureID(t *testing.T) {
	var b BaseModel
	b.EnsureID()
	assert.Len(t, b.ID, 36)

	id := b.ID
	b.EnsureID()
	assert.Equal(t, id, b.ID)
}
