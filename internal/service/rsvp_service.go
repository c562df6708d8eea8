package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/events"
	"github.com/meetlite/meetlite/internal/repository"
	"github.com/meetlite/meetlite/pkg/logger"
	"github.com/meetlite/meetlite/pkg/telemetry"
)

// RSVPOptions holds admission-control tunables.
type RSVPOptions struct {
	// CompensationRetries is the total number of attempts for the
	// compensating release after a failed registry activation. When all
	// attempts fail the overstated counter is left for the reconciler.
	CompensationRetries int
	CompensationBackoff time.Duration
}

// DefaultRSVPOptions returns the defaults used when options are zero.
func DefaultRSVPOptions() RSVPOptions {
	return RSVPOptions{
		CompensationRetries: 3,
		CompensationBackoff: 100 * time.Millisecond,
	}
}

// RSVPService coordinates a join or leave across the capacity ledger and
// the attendance registry as one logical operation. It holds no locks of
// its own: the ledger's single-statement conditional update is the only
// mutual exclusion, which also covers concurrent server instances.
type RSVPService struct {
	ledger    repository.CapacityLedger
	registry  repository.AttendanceRegistry
	eventRepo repository.EventRepository
	publisher events.Publisher
	log       *logger.Logger
	opts      RSVPOptions

	joinOutcomes  *telemetry.Counter
	leaveOutcomes *telemetry.Counter
	compFailures  *telemetry.Counter
}

// NewRSVPService creates a new RSVPService
func NewRSVPService(
	ledger repository.CapacityLedger,
	registry repository.AttendanceRegistry,
	eventRepo repository.EventRepository,
	publisher events.Publisher,
	log *logger.Logger,
	opts RSVPOptions,
) *RSVPService {
	if opts.CompensationRetries <= 0 {
		opts.CompensationRetries = DefaultRSVPOptions().CompensationRetries
	}
	if opts.CompensationBackoff <= 0 {
		opts.CompensationBackoff = DefaultRSVPOptions().CompensationBackoff
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	s := &RSVPService{
		ledger:    ledger,
		registry:  registry,
		eventRepo: eventRepo,
		publisher: publisher,
		log:       log,
		opts:      opts,
	}
	s.joinOutcomes, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "rsvp.join.outcomes",
		Description: "Join results by outcome",
	})
	s.leaveOutcomes, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "rsvp.leave.outcomes",
		Description: "Leave results by outcome",
	})
	s.compFailures, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "rsvp.compensation.failures",
		Description: "Compensating releases that exhausted all attempts",
	})
	return s
}

// Join admits the caller to the event. The ledger runs first: the
// single-field capacity check rejects most contention (a full event)
// without touching the registry. Only the rarer duplicate-join path needs
// a compensating release.
func (s *RSVPService) Join(ctx context.Context, eventID, userID string) (domain.CapacitySnapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, "rsvp.join")
	defer span.End()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return domain.CapacitySnapshot{}, err
	}
	if event.IsPast(time.Now()) {
		s.countJoin(ctx, "event_in_past")
		return domain.CapacitySnapshot{}, domain.ErrEventInPast
	}

	snap, err := s.ledger.Admit(ctx, eventID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEventFull):
			s.countJoin(ctx, "event_full")
			return domain.CapacitySnapshot{}, domain.ErrEventFull
		case errors.Is(err, domain.ErrEventNotFound):
			return domain.CapacitySnapshot{}, domain.ErrEventNotFound
		default:
			s.countJoin(ctx, "transient")
			return domain.CapacitySnapshot{}, fmt.Errorf("%w: admit: %v", domain.ErrTransient, err)
		}
	}

	_, err = s.registry.Activate(ctx, eventID, userID)
	if err != nil {
		s.compensateAdmit(ctx, eventID)
		if errors.Is(err, domain.ErrAlreadyRSVPed) {
			// The ledger admitted a slot for an already-active caller.
			// The constraint stopped the double record; the release above
			// keeps the counter honest.
			s.countJoin(ctx, "already_rsvped")
			return domain.CapacitySnapshot{}, domain.ErrAlreadyRSVPed
		}
		s.countJoin(ctx, "transient")
		s.log.ErrorContext(ctx, "registry activation failed",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err))
		return domain.CapacitySnapshot{}, fmt.Errorf("%w: activate: %v", domain.ErrTransient, err)
	}

	s.countJoin(ctx, "committed")
	s.publisher.Publish(ctx, events.Envelope{
		Type:      events.TypeRSVPConfirmed,
		EventID:   eventID,
		UserID:    userID,
		Remaining: snap.Capacity - snap.ConfirmedCount,
	})
	return snap, nil
}

// Leave cancels the caller's attendance. The registry runs first; a
// release failure afterwards is surfaced, not undone, so a diverged
// counter is visible instead of papered over.
func (s *RSVPService) Leave(ctx context.Context, eventID, userID string) (domain.CapacitySnapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, "rsvp.leave")
	defer span.End()

	if err := s.registry.Deactivate(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotRSVPed) {
			s.countLeave(ctx, "not_rsvped")
			return domain.CapacitySnapshot{}, domain.ErrNotRSVPed
		}
		s.countLeave(ctx, "transient")
		return domain.CapacitySnapshot{}, fmt.Errorf("%w: deactivate: %v", domain.ErrTransient, err)
	}

	snap, err := s.ledger.Release(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrCapacityFloor) {
			s.countLeave(ctx, "inconsistent")
			s.log.ErrorContext(ctx, "release hit the counter floor with an active attendance just cancelled",
				zap.String("event_id", eventID),
				zap.String("user_id", userID))
			return domain.CapacitySnapshot{}, domain.ErrInconsistentState
		}
		s.countLeave(ctx, "transient")
		s.log.ErrorContext(ctx, "ledger release failed after deactivation, counter overstated until reconciliation",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err))
		return domain.CapacitySnapshot{}, fmt.Errorf("%w: release: %v", domain.ErrTransient, err)
	}

	s.countLeave(ctx, "committed")
	s.publisher.Publish(ctx, events.Envelope{
		Type:      events.TypeRSVPCancelled,
		EventID:   eventID,
		UserID:    userID,
		Remaining: snap.Capacity - snap.ConfirmedCount,
	})
	return snap, nil
}

// compensateAdmit reverses a ledger admit whose registry step failed,
// retrying with backoff. A cancelled request stops waiting between
// attempts instead of holding the handler for the full retry budget.
func (s *RSVPService) compensateAdmit(ctx context.Context, eventID string) {
	var err error
	for attempt := 1; attempt <= s.opts.CompensationRetries; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(s.opts.CompensationBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.abandonCompensation(ctx, eventID, attempt-1, ctx.Err())
				return
			case <-timer.C:
			}
		}
		_, err = s.ledger.Release(ctx, eventID)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrCapacityFloor) || errors.Is(err, domain.ErrEventNotFound) {
			// Nothing left to undo.
			return
		}
	}

	s.abandonCompensation(ctx, eventID, s.opts.CompensationRetries, err)
}

// abandonCompensation records a compensating release that gave up, leaving
// confirmed_count overstated by one until the reconciler corrects it.
func (s *RSVPService) abandonCompensation(ctx context.Context, eventID string, attempts int, err error) {
	if s.compFailures != nil {
		s.compFailures.Inc(ctx)
	}
	s.log.ErrorContext(ctx, "compensating release abandoned, counter overstated until reconciliation",
		zap.String("event_id", eventID),
		zap.Int("attempts", attempts),
		zap.Error(err))
}

// Status reports the caller's standing for an event: active, cancelled,
// or none. The event must exist.
func (s *RSVPService) Status(ctx context.Context, eventID, userID string) (string, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return "", err
	}
	return s.registry.StatusOf(ctx, eventID, userID)
}

// MyAttendances returns the events the caller actively attends that have
// not started yet, soonest first.
func (s *RSVPService) MyAttendances(ctx context.Context, userID string) ([]*domain.Event, error) {
	attendances, err := s.registry.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Event, 0, len(attendances))
	for _, a := range attendances {
		event, err := s.eventRepo.GetByID(ctx, a.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrEventNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, event)
	}
	return result, nil
}

// Roster returns an event's active attendees in join order. Only the
// event's owner may read it.
func (s *RSVPService) Roster(ctx context.Context, eventID, requesterID string) ([]*domain.RosterEntry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != requesterID {
		return nil, domain.ErrNotOwner
	}
	return s.registry.RosterOf(ctx, eventID)
}

func (s *RSVPService) countJoin(ctx context.Context, outcome string) {
	if s.joinOutcomes != nil {
		s.joinOutcomes.Inc(ctx, attribute.String("outcome", outcome))
	}
}

func (s *RSVPService) countLeave(ctx context.Context, outcome string) {
	if s.leaveOutcomes != nil {
		s.leaveOutcomes.Inc(ctx, attribute.String("outcome", outcome))
	}
}
