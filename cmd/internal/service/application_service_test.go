package service

import (
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/utils/apierror"
	"testing"
)

func TestRejectLeavesNoAppointment(t *testing.T) {
	env := newEnv(t)

	app, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultantID, Note: "  cutting season  "})
	expectOK(t, apierr)
	if app.Status != string(entity.ApplicationSubmitted) {
		t.Fatalf("status = %s, want submitted", app.Status)
	}
	if app.Note == nil || *app.Note != "cutting season" {
		t.Fatalf("note = %v, want trimmed note", app.Note)
	}

	rejected, apierr := env.apps.Reject(env.ctx, consultantID, app.ID)
	expectOK(t, apierr)
	if rejected.Status != string(entity.ApplicationRejected) {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}

	if n := countRows(t, env.db, &entity.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0", n)
	}

	types := env.events.Types()
	if len(types) != 2 || types[0] != events.ApplicationSubmitted || types[1] != events.ApplicationRejected {
		t.Fatalf("events = %v", types)
	}
}

func TestApplyValidation(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name string
		req  ApplyRequest
		want apierror.Kind
	}{
		{"missing consultant", ApplyRequest{}, apierror.KindValidation},
		{"unknown consultant", ApplyRequest{ConsultantID: 999}, apierror.KindNotFound},
		{"target is a client", ApplyRequest{ConsultantID: otherClientID}, apierror.KindValidation},
		{"self", ApplyRequest{ConsultantID: clientID}, apierror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, apierr := env.apps.Apply(env.ctx, clientID, &req)
			expectKind(t, apierr, tt.want)
		})
	}
}

func TestRejectChecks(t *testing.T) {
	env := newEnv(t)

	app, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultantID})
	expectOK(t, apierr)

	_, apierr = env.apps.Reject(env.ctx, consultantID, 999)
	expectKind(t, apierr, apierror.KindNotFound)

	_, apierr = env.apps.Reject(env.ctx, otherConsultantID, app.ID)
	expectKind(t, apierr, apierror.KindForbidden)

	_, apierr = env.apps.Reject(env.ctx, consultantID, app.ID)
	expectOK(t, apierr)

	_, apierr = env.apps.Reject(env.ctx, consultantID, app.ID)
	expectKind(t, apierr, apierror.KindConflict)

	_, apierr = env.apps.AcceptAndSchedule(env.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: beginsAt, EndsAt: endsAt})
	expectKind(t, apierr, apierror.KindConflict)
}

func TestAcceptCreatesAppointmentAndRoom(t *testing.T) {
	env := newEnv(t)
	sched := env.schedule(t)

	if sched.Application.Status != string(entity.ApplicationAccepted) {
		t.Fatalf("application = %s, want accepted", sched.Application.Status)
	}
	if sched.Appointment.Status != string(entity.AppointmentScheduled) {
		t.Fatalf("appointment = %s, want scheduled", sched.Appointment.Status)
	}
	if sched.Room.Status != string(entity.RoomNotStarted) {
		t.Fatalf("room = %s, want not_started", sched.Room.Status)
	}
	if sched.Appointment.BeginsAt != beginsAt || sched.Appointment.EndsAt != endsAt {
		t.Fatalf("schedule = %s..%s", sched.Appointment.BeginsAt, sched.Appointment.EndsAt)
	}
	if *sched.Appointment.ApplicationID != sched.Application.ID {
		t.Fatal("expected appointment to reference its application")
	}

	if n := countRows(t, env.db, &entity.SessionRoom{}); n != 1 {
		t.Fatalf("rooms = %d, want 1", n)
	}
}

func TestAcceptRejectsInvertedSchedule(t *testing.T) {
	env := newEnv(t)

	app, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultantID})
	expectOK(t, apierr)

	_, apierr = env.apps.AcceptAndSchedule(env.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: endsAt, EndsAt: beginsAt})
	expectKind(t, apierr, apierror.KindValidation)

	_, apierr = env.apps.AcceptAndSchedule(env.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: beginsAt, EndsAt: beginsAt})
	expectKind(t, apierr, apierror.KindValidation)

	_, apierr = env.apps.AcceptAndSchedule(env.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: "tomorrow", EndsAt: endsAt})
	expectKind(t, apierr, apierror.KindValidation)

	apps, apierr := env.apps.ListForClient(env.ctx, clientID)
	expectOK(t, apierr)
	if apps[0].Status != string(entity.ApplicationSubmitted) {
		t.Fatalf("status = %s, want submitted after failed accept", apps[0].Status)
	}
	if n := countRows(t, env.db, &entity.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0", n)
	}
}

func TestAcceptIsAllOrNothing(t *testing.T) {
	env := newEnv(t)

	app, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultantID})
	expectOK(t, apierr)

	if err := env.db.Migrator().DropTable(&entity.SessionRoom{}); err != nil {
		t.Fatalf("drop rooms: %v", err)
	}

	_, apierr = env.apps.AcceptAndSchedule(env.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: beginsAt, EndsAt: endsAt})
	expectKind(t, apierr, apierror.KindUnavailable)

	if n := countRows(t, env.db, &entity.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0 after rollback", n)
	}

	got, err := env.store.Applications().FindByID(app.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != entity.ApplicationSubmitted {
		t.Fatalf("status = %s, want submitted after rollback", got.Status)
	}
}

func TestCancelByClient(t *testing.T) {
	env := newEnv(t)

	app, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultantID})
	expectOK(t, apierr)

	_, apierr = env.apps.Cancel(env.ctx, otherClientID, app.ID)
	expectKind(t, apierr, apierror.KindForbidden)

	cancelled, apierr := env.apps.Cancel(env.ctx, clientID, app.ID)
	expectOK(t, apierr)
	if cancelled.Status != string(entity.ApplicationCancelled) {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	_, apierr = env.apps.Reject(env.ctx, consultantID, app.ID)
	expectKind(t, apierr, apierror.KindConflict)
}

func TestListApplications(t *testing.T) {
	env := newEnv(t)

	for _, consultant := range []int{consultantID, otherConsultantID} {
		_, apierr := env.apps.Apply(env.ctx, clientID, &ApplyRequest{ConsultantID: consultant})
		expectOK(t, apierr)
	}

	mine, apierr := env.apps.ListForClient(env.ctx, clientID)
	expectOK(t, apierr)
	if len(mine) != 2 {
		t.Fatalf("client applications = %d, want 2", len(mine))
	}

	inbox, apierr := env.apps.ListForConsultant(env.ctx, consultantID)
	expectOK(t, apierr)
	if len(inbox) != 1 || inbox[0].ClientID != clientID {
		t.Fatalf("unexpected consultant inbox: %+v", inbox)
	}
}
