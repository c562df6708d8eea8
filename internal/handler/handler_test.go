package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/repository"
	"github.com/meetlite/meetlite/internal/service"
	"github.com/meetlite/meetlite/pkg/logger"
	"github.com/meetlite/meetlite/pkg/response"
)

const testSecret = "handler-test-secret"

// In-memory storage backing the handler tests. The conditional ops hold
// the lock across check and mutation, matching the SQL contracts.
type memStore struct {
	mu      sync.Mutex
	events  map[string]*domain.Event
	records map[string]string // eventID+"/"+userID -> status
	users   map[string]*domain.User
}

func newMemStore() *memStore {
	return &memStore{
		events:  make(map[string]*domain.Event),
		records: make(map[string]string),
		users:   make(map[string]*domain.User),
	}
}

func (s *memStore) key(eventID, userID string) string { return eventID + "/" + userID }

func (s *memStore) Admit(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return domain.CapacitySnapshot{}, domain.ErrEventNotFound
	}
	if e.ConfirmedCount >= e.Capacity {
		return domain.CapacitySnapshot{}, domain.ErrEventFull
	}
	e.ConfirmedCount++
	return domain.CapacitySnapshot{ConfirmedCount: e.ConfirmedCount, Capacity: e.Capacity}, nil
}

func (s *memStore) Release(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return domain.CapacitySnapshot{}, domain.ErrEventNotFound
	}
	if e.ConfirmedCount <= 0 {
		return domain.CapacitySnapshot{}, domain.ErrCapacityFloor
	}
	e.ConfirmedCount--
	return domain.CapacitySnapshot{ConfirmedCount: e.ConfirmedCount, Capacity: e.Capacity}, nil
}

func (s *memStore) Activate(ctx context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(eventID, userID)
	status, exists := s.records[k]
	if exists && status == domain.AttendanceStatusActive {
		return false, domain.ErrAlreadyRSVPed
	}
	s.records[k] = domain.AttendanceStatusActive
	return exists, nil
}

func (s *memStore) Deactivate(ctx context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(eventID, userID)
	if s.records[k] != domain.AttendanceStatusActive {
		return domain.ErrNotRSVPed
	}
	s.records[k] = domain.AttendanceStatusCancelled
	return nil
}

func (s *memStore) StatusOf(ctx context.Context, eventID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.records[s.key(eventID, userID)]
	if !ok {
		return repository.AttendanceStatusNone, nil
	}
	return status, nil
}

func (s *memStore) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Attendance
	for eventID := range s.events {
		if s.records[s.key(eventID, userID)] == domain.AttendanceStatusActive {
			result = append(result, &domain.Attendance{EventID: eventID, UserID: userID, Status: domain.AttendanceStatusActive})
		}
	}
	return result, nil
}

func (s *memStore) RosterOf(ctx context.Context, eventID string) ([]*domain.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roster []*domain.RosterEntry
	for userID := range s.users {
		if s.records[s.key(eventID, userID)] == domain.AttendanceStatusActive {
			roster = append(roster, &domain.RosterEntry{UserID: userID, Name: s.users[userID].Name})
		}
	}
	return roster, nil
}

func (s *memStore) CountActive(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for k, status := range s.records {
		if status == domain.AttendanceStatusActive && len(k) > len(eventID) && k[:len(eventID)] == eventID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) Create(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *memStore) ListUpcoming(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Event
	for _, e := range s.events {
		if e.StartsAt.After(time.Now()) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, len(result), nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Event
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memStore) Update(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if stored.ConfirmedCount > event.Capacity {
		return domain.ErrCapacityBelowConfirmed
	}
	updated := *event
	updated.ConfirmedCount = stored.ConfirmedCount
	s.events[event.ID] = &updated
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	return nil
}

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type testEnv struct {
	store  *memStore
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	rsvpService := service.NewRSVPService(store, store, store, nil, logger.Get(),
		service.RSVPOptions{CompensationRetries: 1, CompensationBackoff: time.Millisecond})
	eventService := service.NewEventService(store, nil)
	authService := service.NewAuthService(&memUserRepo{store: store}, testSecret, time.Hour)

	router := NewRouter(&RouterConfig{
		Logger:    logger.Get(),
		JWTSecret: testSecret,
	},
		NewAuthHandler(authService),
		NewEventHandler(eventService),
		NewRSVPHandler(rsvpService),
	)
	return &testEnv{store: store, router: router}
}

func (e *testEnv) addUser(id, name string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.users[id] = &domain.User{ID: id, Email: id + "@test.local", Name: name}
}

func (e *testEnv) addEvent(id, ownerID string, capacity int) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.events[id] = &domain.Event{
		ID:       id,
		OwnerID:  ownerID,
		Title:    "test event",
		StartsAt: time.Now().Add(24 * time.Hour),
		Capacity: capacity,
	}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   userID + "@test.local",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return &resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	if resp.Error == nil {
		t.Fatalf("expected error response, got %q", w.Body.String())
	}
	return resp.Error.Code
}

func TestJoinEndpoint_Commits(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "Alice")
	env.addEvent("ev1", "owner", 5)

	w := env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if !resp.Success {
		t.Error("expected success envelope")
	}
	data := resp.Data.(map[string]interface{})
	if data["confirmed_count"].(float64) != 1 {
		t.Errorf("expected confirmed_count 1, got %v", data["confirmed_count"])
	}
}

func TestJoinEndpoint_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent("ev1", "owner", 5)

	w := env.do(t, http.MethodPost, "/events/ev1/rsvp", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJoinEndpoint_StableReasonCodes(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addEvent("ev1", "owner", 1)

	if w := env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil); w.Code != http.StatusOK {
		t.Fatalf("setup join failed: %d", w.Code)
	}

	w := env.do(t, http.MethodPost, "/events/ev1/rsvp", "bob", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for full event, got %d", w.Code)
	}
	if code := errorCode(t, w); code != response.ErrCodeEventFull {
		t.Errorf("expected EVENT_FULL, got %s", code)
	}

	w = env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil)
	if code := errorCode(t, w); code != response.ErrCodeAlreadyRSVPed {
		t.Errorf("expected ALREADY_RSVPED, got %s", code)
	}

	w = env.do(t, http.MethodPost, "/events/missing/rsvp", "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing event, got %d", w.Code)
	}
	if code := errorCode(t, w); code != response.ErrCodeEventNotFound {
		t.Errorf("expected EVENT_NOT_FOUND, got %s", code)
	}
}

func TestLeaveEndpoint_WithoutJoin(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "Alice")
	env.addEvent("ev1", "owner", 5)

	w := env.do(t, http.MethodDelete, "/events/ev1/rsvp", "alice", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if code := errorCode(t, w); code != response.ErrCodeNotRSVPed {
		t.Errorf("expected NOT_RSVPED, got %s", code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "Alice")
	env.addEvent("ev1", "owner", 5)

	w := env.do(t, http.MethodGet, "/events/ev1/rsvp", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeResponse(t, w).Data.(map[string]interface{})
	if data["active"].(bool) {
		t.Error("expected inactive before join")
	}

	env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil)

	w = env.do(t, http.MethodGet, "/events/ev1/rsvp", "alice", nil)
	data = decodeResponse(t, w).Data.(map[string]interface{})
	if !data["active"].(bool) {
		t.Error("expected active after join")
	}
}

func TestRosterEndpoint_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("owner", "Owner")
	env.addUser("alice", "Alice")
	env.addEvent("ev1", "owner", 5)
	env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil)

	w := env.do(t, http.MethodGet, "/events/ev1/attendees", "alice", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner, got %d", w.Code)
	}
	if code := errorCode(t, w); code != response.ErrCodeNotOwner {
		t.Errorf("expected NOT_OWNER, got %s", code)
	}

	w = env.do(t, http.MethodGet, "/events/ev1/attendees", "owner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", w.Code)
	}
	data := decodeResponse(t, w).Data.(map[string]interface{})
	if data["count"].(float64) != 1 {
		t.Errorf("expected 1 attendee, got %v", data["count"])
	}
}

func TestEventEndpoints_CreateAndFetch(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("owner", "Owner")

	w := env.do(t, http.MethodPost, "/events", "owner", map[string]interface{}{
		"title":     "meetup",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"capacity":  25,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeResponse(t, w).Data.(map[string]interface{})
	eventID := data["id"].(string)

	w = env.do(t, http.MethodGet, "/events/"+eventID, "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("public event fetch failed: %d", w.Code)
	}
}

func TestEventEndpoints_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("owner", "Owner")

	w := env.do(t, http.MethodPost, "/events", "owner", map[string]interface{}{
		"title":     "meetup",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"capacity":  0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero capacity, got %d", w.Code)
	}
}

func TestAuthEndpoints_SignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "alice@test.local",
		"password": "long enough",
		"name":     "Alice",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d: %s", w.Code, w.Body.String())
	}
	data := decodeResponse(t, w).Data.(map[string]interface{})
	token := data["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/me with issued token failed: %d", rec.Code)
	}

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@test.local",
		"password": "wrong password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", w.Code)
	}
	if code := errorCode(t, w); code != response.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
	}
}

func TestMyRSVPsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "Alice")
	env.addEvent("ev1", "owner", 5)
	env.addEvent("ev2", "owner", 5)
	env.do(t, http.MethodPost, "/events/ev1/rsvp", "alice", nil)
	env.do(t, http.MethodPost, "/events/ev2/rsvp", "alice", nil)

	w := env.do(t, http.MethodGet, "/me/rsvps", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeResponse(t, w).Data.(map[string]interface{})
	if data["count"].(float64) != 2 {
		t.Errorf("expected 2 rsvps, got %v", data["count"])
	}
}
