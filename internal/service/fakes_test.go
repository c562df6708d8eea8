package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/events"
	"github.com/meetlite/meetlite/internal/repository"
)

var errStorageDown = errors.New("storage down")

// The fakes reproduce the storage contracts the postgres repositories
// provide: the ledger's check-and-increment happens under one lock hold,
// and the registry arbitrates duplicate activations the way the unique
// constraint does. That is what makes the concurrency tests meaningful.

type fakeLedger struct {
	mu     sync.Mutex
	events map[string]*domain.Event

	releaseFaults int // fail this many Release calls before succeeding
	releaseCalls  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{events: make(map[string]*domain.Event)}
}

func (l *fakeLedger) addEvent(e *domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[e.ID] = e
}

func (l *fakeLedger) snapshot(eventID string) domain.CapacitySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.events[eventID]
	return domain.CapacitySnapshot{ConfirmedCount: e.ConfirmedCount, Capacity: e.Capacity}
}

func (l *fakeLedger) Admit(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.events[eventID]
	if !ok {
		return domain.CapacitySnapshot{}, domain.ErrEventNotFound
	}
	if e.ConfirmedCount >= e.Capacity {
		return domain.CapacitySnapshot{}, domain.ErrEventFull
	}
	e.ConfirmedCount++
	return domain.CapacitySnapshot{ConfirmedCount: e.ConfirmedCount, Capacity: e.Capacity}, nil
}

func (l *fakeLedger) Release(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releaseCalls++
	if l.releaseFaults > 0 {
		l.releaseFaults--
		return domain.CapacitySnapshot{}, errStorageDown
	}

	e, ok := l.events[eventID]
	if !ok {
		return domain.CapacitySnapshot{}, domain.ErrEventNotFound
	}
	if e.ConfirmedCount <= 0 {
		return domain.CapacitySnapshot{}, domain.ErrCapacityFloor
	}
	e.ConfirmedCount--
	return domain.CapacitySnapshot{ConfirmedCount: e.ConfirmedCount, Capacity: e.Capacity}, nil
}

type pairKey struct {
	eventID, userID string
}

type fakeRegistry struct {
	mu      sync.Mutex
	records map[pairKey]string

	activateErr error // injected storage fault
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{records: make(map[pairKey]string)}
}

func (r *fakeRegistry) Activate(ctx context.Context, eventID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activateErr != nil {
		return false, r.activateErr
	}

	key := pairKey{eventID, userID}
	status, exists := r.records[key]
	if exists && status == domain.AttendanceStatusActive {
		return false, domain.ErrAlreadyRSVPed
	}
	r.records[key] = domain.AttendanceStatusActive
	return exists, nil
}

func (r *fakeRegistry) Deactivate(ctx context.Context, eventID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{eventID, userID}
	if r.records[key] != domain.AttendanceStatusActive {
		return domain.ErrNotRSVPed
	}
	r.records[key] = domain.AttendanceStatusCancelled
	return nil
}

func (r *fakeRegistry) StatusOf(ctx context.Context, eventID, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.records[pairKey{eventID, userID}]
	if !ok {
		return repository.AttendanceStatusNone, nil
	}
	return status, nil
}

func (r *fakeRegistry) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Attendance
	for key, status := range r.records {
		if key.userID == userID && status == domain.AttendanceStatusActive {
			result = append(result, &domain.Attendance{
				EventID: key.eventID,
				UserID:  key.userID,
				Status:  status,
			})
		}
	}
	return result, nil
}

func (r *fakeRegistry) RosterOf(ctx context.Context, eventID string) ([]*domain.RosterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var roster []*domain.RosterEntry
	for key, status := range r.records {
		if key.eventID == eventID && status == domain.AttendanceStatusActive {
			roster = append(roster, &domain.RosterEntry{UserID: key.userID})
		}
	}
	return roster, nil
}

func (r *fakeRegistry) CountActive(ctx context.Context, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key, status := range r.records {
		if key.eventID == eventID && status == domain.AttendanceStatusActive {
			count++
		}
	}
	return count, nil
}

// fakeEventRepo shares the event map with the fake ledger so GetByID sees
// the live counter, like the real repositories sharing one table. Update
// enforces the capacity guard against that counter under the same lock,
// matching the guarded UPDATE.
type fakeEventRepo struct {
	ledger *fakeLedger

	afterGet func() // runs after GetByID returns its copy
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.Event) error {
	f.ledger.addEvent(event)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.ledger.mu.Lock()
	e, ok := f.ledger.events[id]
	if !ok {
		f.ledger.mu.Unlock()
		return nil, domain.ErrEventNotFound
	}
	copied := *e
	f.ledger.mu.Unlock()

	if f.afterGet != nil {
		f.afterGet()
	}
	return &copied, nil
}

func (f *fakeEventRepo) ListUpcoming(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeEventRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *domain.Event) error {
	f.ledger.mu.Lock()
	defer f.ledger.mu.Unlock()

	stored, ok := f.ledger.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if stored.ConfirmedCount > event.Capacity {
		return domain.ErrCapacityBelowConfirmed
	}
	stored.Title = event.Title
	stored.Description = event.Description
	stored.Location = event.Location
	stored.StartsAt = event.StartsAt
	stored.Capacity = event.Capacity
	stored.UpdatedAt = event.UpdatedAt
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.ledger.mu.Lock()
	defer f.ledger.mu.Unlock()
	delete(f.ledger.events, id)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []events.Envelope
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, ev)
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) byType(eventType string) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []events.Envelope
	for _, ev := range p.published {
		if ev.Type == eventType {
			result = append(result, ev)
		}
	}
	return result
}

func futureEvent(id, ownerID string, capacity int) *domain.Event {
	return &domain.Event{
		ID:       id,
		OwnerID:  ownerID,
		Title:    "test event",
		StartsAt: time.Now().Add(24 * time.Hour),
		Capacity: capacity,
	}
}
