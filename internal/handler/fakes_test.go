package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/repository"
	"github.com/soundpass/soundpass/internal/utils"
)

// Tests hash at the minimum bcrypt cost to keep them fast.
const testBcryptCost = 4

func mustHash(password string) string {
	hash, err := utils.HashPassword(password, testBcryptCost)
	if err != nil {
		panic(err)
	}
	return hash
}

// In-memory fakes for the store interfaces. The ticket fake guards its
// state with a mutex and implements MarkUsed as a real compare-and-set,
// so the concurrency tests exercise the same winner-takes-all semantics
// the SQL conditional update provides.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[uint64]model.User{}}
}

func (s *fakeUserStore) seed(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	s.byID[u.ID] = u
	return u
}

func (s *fakeUserStore) Create(_ context.Context, email, name, password string, role model.Role, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextID++
	s.byID[s.nextID] = model.User{
		ID:           s.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	return s.nextID, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id uint64, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	s.byID[id] = u
	return nil
}

type fakeTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]uint64 // hash -> user id
	revoked map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]uint64{}, revoked: map[string]bool{}}
}

func (s *fakeTokenStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = userID
	return nil
}

func (s *fakeTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.tokens[tokenHash]
	if !ok || s.revoked[tokenHash] {
		return 0, repository.ErrUserNotFound
	}
	return uid, nil
}

func (s *fakeTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenHash] = true
	return nil
}

func (s *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, uid := range s.tokens {
		if uid == userID {
			s.revoked[hash] = true
		}
	}
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	nextID uint64
	events map[uint64]model.Event
	// ticketCounts simulates the issued-ticket check on delete.
	ticketCounts map[uint64]int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[uint64]model.Event{}, ticketCounts: map[uint64]int{}}
}

func (s *fakeEventStore) seed(e model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.events[e.ID] = e
	return e
}

func (s *fakeEventStore) List(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeEventStore) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.events[e.ID] = *e
	return nil
}

func (s *fakeEventStore) Update(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return repository.ErrEventNotFound
	}
	s.events[e.ID] = e
	return nil
}

func (s *fakeEventStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	if s.ticketCounts[id] > 0 {
		return repository.ErrConflict
	}
	delete(s.events, id)
	return nil
}

type fakeTicketStore struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.Ticket
	// dupFailures makes the next N Create calls fail with a duplicate
	// ticket-number error, to exercise the regenerate-and-retry path.
	dupFailures int
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{byID: map[uint64]*model.Ticket{}}
}

func (s *fakeTicketStore) seed(t model.Ticket) model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	cp := t
	s.byID[t.ID] = &cp
	return t
}

func (s *fakeTicketStore) Create(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dupFailures > 0 {
		s.dupFailures--
		return repository.ErrDuplicateTicketNumber
	}
	for _, existing := range s.byID {
		if existing.TicketNumber == t.TicketNumber {
			return repository.ErrDuplicateTicketNumber
		}
	}
	s.nextID++
	t.ID = s.nextID
	cp := *t
	s.byID[t.ID] = &cp
	return nil
}

func (s *fakeTicketStore) GetByNumber(_ context.Context, number string) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if t.TicketNumber == number {
			return *t, nil
		}
	}
	return model.Ticket{}, repository.ErrTicketNotFound
}

func (s *fakeTicketStore) ListByUser(_ context.Context, userID uint64) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeTicketStore) MarkUsed(_ context.Context, id uint64) (bool, error) {
	return s.cas(id, model.TicketValid, model.TicketUsed), nil
}

func (s *fakeTicketStore) Cancel(_ context.Context, id uint64) (bool, error) {
	return s.cas(id, model.TicketValid, model.TicketCancelled), nil
}

func (s *fakeTicketStore) Revalidate(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.Status == model.TicketValid {
		return false, nil
	}
	t.Status = model.TicketValid
	return true, nil
}

func (s *fakeTicketStore) cas(id uint64, from, to model.TicketStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.Status != from {
		return false
	}
	t.Status = to
	return true
}

func (s *fakeTicketStore) status(id uint64) model.TicketStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.byID[id]; ok {
		return t.Status
	}
	return ""
}
