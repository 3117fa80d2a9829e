package entity

import "testing"

func TestApplicationStatusTransitions(t *testing.T) {
	all := []ApplicationStatus{ApplicationSubmitted, ApplicationAccepted, ApplicationRejected, ApplicationCancelled}
	allowed := map[ApplicationStatus]map[ApplicationStatus]bool{
		ApplicationSubmitted: {ApplicationAccepted: true, ApplicationRejected: true, ApplicationCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransition(to)
			if want := allowed[from][to]; got != want {
				t.Fatalf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestAppointmentStatusTransitions(t *testing.T) {
	all := []AppointmentStatus{AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow}
	for _, from := range all {
		for _, to := range all {
			want := from == AppointmentScheduled && to != AppointmentScheduled
			if got := from.CanTransition(to); got != want {
				t.Fatalf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRoomStatusTransitions(t *testing.T) {
	tests := []struct {
		from RoomStatus
		to   RoomStatus
		want bool
	}{
		{RoomNotStarted, RoomActive, true},
		{RoomNotStarted, RoomEnded, false},
		{RoomActive, RoomEnded, true},
		{RoomActive, RoomNotStarted, false},
		{RoomActive, RoomActive, false},
		{RoomEnded, RoomActive, false},
		{RoomEnded, RoomNotStarted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Fatalf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPermissionStatusTransitions(t *testing.T) {
	if !PermissionActive.CanTransition(PermissionRevoked) {
		t.Fatal("expected active grant to be revocable")
	}
	if PermissionRevoked.CanTransition(PermissionRevoked) {
		t.Fatal("expected revoked grant to stay revoked")
	}
	if !PermissionRevoked.CanTransition(PermissionActive) {
		t.Fatal("expected revoked grant to be re-grantable")
	}
}

func TestPermissionCoverage(t *testing.T) {
	appt := 7
	perm := &ConsultantPermission{
		Status:        PermissionActive,
		Resources:     []Resource{ResourceUserGoals},
		AppointmentID: &appt,
	}

	if !perm.Covers(ResourceUserGoals) {
		t.Fatal("expected user_goals to be covered")
	}
	if perm.Covers(ResourceUserData) {
		t.Fatal("expected user_data not to be covered")
	}
	if !perm.PinnedTo(7) || perm.PinnedTo(8) {
		t.Fatal("expected grant pinned to appointment 7 only")
	}
	if !Resource("user_data").Valid() || Resource("bank_account").Valid() {
		t.Fatal("unexpected resource validity")
	}
	if Scope("write").Valid() || !ScopeReadWrite.AllowsWrite() || ScopeRead.AllowsWrite() {
		t.Fatal("unexpected scope semantics")
	}
}

func TestAppointmentIsParticipant(t *testing.T) {
	appt := &Appointment{ClientID: 1, ConsultantID: 2}
	if !appt.IsParticipant(1) || !appt.IsParticipant(2) || appt.IsParticipant(3) {
		t.Fatal("unexpected participant membership")
	}
}
