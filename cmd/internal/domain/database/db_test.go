package database

import (
	"nutricare/cmd/internal/config"
	"nutricare/cmd/internal/domain/entity"
	"testing"
)

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"./database.db", "./database.db?_foreign_keys=on"},
		{"file:x?mode=memory", "file:x?mode=memory&_foreign_keys=on"},
		{"./database.db?_fk=1", "./database.db?_fk=1"},
	}
	for _, tt := range tests {
		if got := withForeignKeys(tt.in); got != tt.want {
			t.Fatalf("withForeignKeys(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitRejectsUnknownDriver(t *testing.T) {
	if _, err := Init("oracle", "whatever"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSchemaConstraints(t *testing.T) {
	db, err := Init(config.DriverSQLite, "file:schema_constraints?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	for _, u := range []entity.User{{ID: 1, Username: "c", Role: entity.RoleClient}, {ID: 2, Username: "k", Role: entity.RoleConsultant}} {
		u := u
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	appt := entity.Appointment{ClientID: 1, ConsultantID: 2, BeginsAt: 1, EndsAt: 2, Status: entity.AppointmentScheduled}
	if err := db.Create(&appt).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	t.Run("one room per appointment", func(t *testing.T) {
		if err := db.Create(&entity.SessionRoom{AppointmentID: appt.ID, Status: entity.RoomNotStarted}).Error; err != nil {
			t.Fatalf("first room: %v", err)
		}
		if err := db.Create(&entity.SessionRoom{AppointmentID: appt.ID, Status: entity.RoomNotStarted}).Error; err == nil {
			t.Fatal("expected unique violation for second room")
		}
	})

	t.Run("one grant per pair", func(t *testing.T) {
		perm := func() *entity.ConsultantPermission {
			return &entity.ConsultantPermission{ClientID: 1, ConsultantID: 2, Scope: entity.ScopeRead,
				Resources: []entity.Resource{entity.ResourceUserData}, Status: entity.PermissionActive, GrantedAt: 1}
		}
		if err := db.Create(perm()).Error; err != nil {
			t.Fatalf("first grant: %v", err)
		}
		if err := db.Create(perm()).Error; err == nil {
			t.Fatal("expected unique violation for second grant")
		}
	})

	t.Run("rooms need an appointment", func(t *testing.T) {
		if err := db.Create(&entity.SessionRoom{AppointmentID: 999, Status: entity.RoomNotStarted}).Error; err == nil {
			t.Fatal("expected foreign key violation")
		}
	})
}
