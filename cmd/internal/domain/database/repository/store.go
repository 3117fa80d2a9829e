package repository

import (
	"context"
	"gorm.io/gorm"
)

// Store hands out repositories bound to one *gorm.DB, which is either the
// pool or an open transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithContext(ctx context.Context) *Store {
	return &Store{db: s.db.WithContext(ctx)}
}

// Atomic runs fn in a transaction. Repositories reached through tx share it;
// the outer store must not be used inside fn.
func (s *Store) Atomic(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Users() *DefaultUserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) Applications() *DefaultApplicationRepository {
	return NewApplicationRepository(s.db)
}

func (s *Store) Appointments() *DefaultAppointmentRepository {
	return NewAppointmentRepository(s.db)
}

func (s *Store) Rooms() *DefaultRoomRepository {
	return NewRoomRepository(s.db)
}

func (s *Store) Chat() *DefaultChatRepository {
	return NewChatRepository(s.db)
}

func (s *Store) Notes() *DefaultNoteRepository {
	return NewNoteRepository(s.db)
}

func (s *Store) Permissions() *DefaultPermissionRepository {
	return NewPermissionRepository(s.db)
}

func (s *Store) Audit() *DefaultAuditRepository {
	return NewAuditRepository(s.db)
}

func (s *Store) Health() *DefaultHealthRepository {
	return NewHealthRepository(s.db)
}
