package service

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/testutil"
	"nutricare/cmd/internal/utils/apierror"
	"nutricare/cmd/internal/utils/validators"
	"sync"
	"testing"
)

const (
	clientID          = 10
	consultantID      = 20
	otherConsultantID = 30
	otherClientID     = 40

	beginsAt = "2025-08-01T14:00:00Z"
	endsAt   = "2025-08-01T14:30:00Z"
)

type fakeRelay struct {
	mu     sync.Mutex
	frames map[int][][]byte
}

func (f *fakeRelay) Broadcast(roomID int, payload []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frames == nil {
		f.frames = make(map[int][][]byte)
	}
	f.frames[roomID] = append(f.frames[roomID], payload)
	return 1
}

func (f *fakeRelay) count(roomID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames[roomID])
}

type testEnv struct {
	ctx      context.Context
	db       *gorm.DB
	store    *repository.Store
	events   *events.Recorder
	relay    *fakeRelay
	apps     *DefaultApplicationService
	appts    *DefaultAppointmentService
	sessions *DefaultSessionService
	perms    *DefaultPermissionService
	chat     *DefaultChatService
	notes    *DefaultNoteService
	health   *DefaultHealthService
	audit    *DefaultAuditService
	users    *DefaultUserService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, clientID, entity.RoleClient)
	testutil.SeedUser(t, db, otherClientID, entity.RoleClient)
	testutil.SeedUser(t, db, consultantID, entity.RoleConsultant)
	testutil.SeedUser(t, db, otherConsultantID, entity.RoleConsultant)

	store := repository.NewStore(db)
	validate := validators.New()
	rec := &events.Recorder{}
	relay := &fakeRelay{}

	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		store:    store,
		events:   rec,
		relay:    relay,
		apps:     NewApplicationService(store, validate, rec),
		appts:    NewAppointmentService(store, validate, rec),
		sessions: NewSessionService(store, rec),
		perms:    NewPermissionService(store, validate, rec),
		chat:     NewChatService(store, validate, relay),
		notes:    NewNoteService(store, validate),
		health:   NewHealthService(store, validate, rec),
		audit:    NewAuditService(store),
		users:    NewUserService(store),
	}
}

// schedule walks a fresh application from client to consultant through
// acceptance and returns the result.
func (e *testEnv) schedule(t *testing.T) *ScheduleResponse {
	t.Helper()

	app, apierr := e.apps.Apply(e.ctx, clientID, &ApplyRequest{ConsultantID: consultantID})
	if apierr != nil {
		t.Fatalf("apply: %v", apierr)
	}

	sched, apierr := e.apps.AcceptAndSchedule(e.ctx, consultantID, app.ID, &ScheduleRequest{BeginsAt: beginsAt, EndsAt: endsAt})
	if apierr != nil {
		t.Fatalf("accept: %v", apierr)
	}
	return sched
}

// live schedules an appointment and starts its session.
func (e *testEnv) live(t *testing.T) *ScheduleResponse {
	t.Helper()

	sched := e.schedule(t)
	if _, apierr := e.sessions.Start(e.ctx, consultantID, sched.Appointment.ID); apierr != nil {
		t.Fatalf("start: %v", apierr)
	}
	return sched
}

func (e *testEnv) grant(t *testing.T, scope entity.Scope, appointmentID *int, resources ...entity.Resource) *PermissionResponse {
	t.Helper()

	raw := make([]string, len(resources))
	for i, r := range resources {
		raw[i] = string(r)
	}

	perm, apierr := e.perms.Grant(e.ctx, clientID, &GrantRequest{
		ConsultantID:  consultantID,
		Scope:         string(scope),
		Resources:     raw,
		AppointmentID: appointmentID,
	})
	if apierr != nil {
		t.Fatalf("grant: %v", apierr)
	}
	return perm
}

func expectKind(t *testing.T, apierr apierror.ErrorResponse, want apierror.Kind) {
	t.Helper()

	if apierr == nil {
		t.Fatalf("expected %s error, got success", want)
	}
	if apierr.Kind() != want {
		t.Fatalf("error kind = %s (%v), want %s", apierr.Kind(), apierr, want)
	}
}

func expectOK(t *testing.T, apierr apierror.ErrorResponse) {
	t.Helper()

	if apierr != nil {
		t.Fatalf("unexpected error: %v", apierr)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func isKind(err error, kind apierror.Kind) bool {
	var apierr apierror.ErrorResponse
	return errors.As(err, &apierr) && apierr.Kind() == kind
}
