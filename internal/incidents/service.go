package incidents

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/ctxlog"
	"github.com/google/uuid"
)

// Default engine timings.
const (
	DefaultDedupWindow       = 5 * time.Minute
	DefaultEscalationTimeout = 5 * time.Minute
)

// Config contains engine configuration.
type Config struct {
	DedupWindow       time.Duration
	EscalationTimeout time.Duration
}

// DefaultConfig returns default engine configuration.
func DefaultConfig() Config {
	return Config{
		DedupWindow:       DefaultDedupWindow,
		EscalationTimeout: DefaultEscalationTimeout,
	}
}

// OnCallResolver finds the responder on call for a service.
type OnCallResolver interface {
	Resolve(ctx context.Context, serviceName string, at time.Time) (string, bool, error)
}

// EscalationPolicy returns the escalation levels configured for a service.
type EscalationPolicy interface {
	LevelsFor(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error)
}

// Service is the incident lifecycle engine. It holds no incident state.
type Service struct {
	repo     Repository
	resolver OnCallResolver
	policy   EscalationPolicy
	notifier Notifier
	clock    clock.Clock
	config   Config
}

// NewService creates a new incident service.
func NewService(
	repo Repository,
	resolver OnCallResolver,
	policy EscalationPolicy,
	notifier Notifier,
	clk clock.Clock,
	config Config,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if config.DedupWindow <= 0 {
		config.DedupWindow = DefaultDedupWindow
	}
	if config.EscalationTimeout <= 0 {
		config.EscalationTimeout = DefaultEscalationTimeout
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		policy:   policy,
		notifier: notifier,
		clock:    clk,
		config:   config,
	}
}

// CreateInput holds data for triggering an incident.
type CreateInput struct {
	Title       string
	Description string
	ServiceName string
	AutoAssign  bool
	Deduplicate bool
}

// CreateResult is the outcome of Create. Created is false when an existing
// incident was returned by deduplication.
type CreateResult struct {
	Incident *domain.Incident
	Created  bool
}

// EscalateResult is the outcome of Escalate.
type EscalateResult struct {
	Incident *domain.Incident
	Level    domain.EscalationLevel
}

// SweepResult counts the outcome of one escalation sweep.
type SweepResult struct {
	Escalated int `json:"escalated_count"`
	Failed    int `json:"failed_count"`
}

// Create triggers a new incident or returns a recent TRIGGERED duplicate.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.ServiceName) == "" {
		return nil, fmt.Errorf("%w: title and service_name are required", ErrValidation)
	}

	now := s.clock.Now()

	if input.Deduplicate {
		dup, err := s.repo.FindDuplicateTriggered(ctx, input.ServiceName, input.Title, now.Add(-s.config.DedupWindow))
		if err != nil {
			return nil, fmt.Errorf("find duplicate incident: %w", err)
		}
		if dup != nil {
			ctxlog.FromContext(ctx).Info("duplicate incident detected",
				"incident_id", dup.ID,
				"service_name", dup.ServiceName,
				"title", dup.Title,
			)
			s.notifier.Notify(ctx, titleDuplicate,
				fmt.Sprintf("Incident #%s already exists for %s", dup.ID, dup.Title), domain.SeverityInfo)
			recordCreate("deduplicated")
			return &CreateResult{Incident: dup, Created: false}, nil
		}
	}

	incident := &domain.Incident{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		ServiceName: input.ServiceName,
		Status:      domain.IncidentStatusTriggered,
		CreatedAt:   now,
	}
	incident.EnsureDeduplicationKey()

	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	if input.AutoAssign {
		incident = s.autoAssign(ctx, incident, now)
	}

	assignee := assigneeOr(incident, "UNASSIGNED")
	ctxlog.FromContext(ctx).Info("incident triggered",
		"incident_id", incident.ID,
		"service_name", incident.ServiceName,
		"title", incident.Title,
		"assigned_to", assignee,
	)
	s.notifier.Notify(ctx, statusTitle(domain.IncidentStatusTriggered),
		fmt.Sprintf("Service: %s | Incident: %s | Assigned To: %s", incident.ServiceName, incident.Title, assignee),
		domain.SeverityWarning)
	recordCreate("created")

	return &CreateResult{Incident: incident, Created: true}, nil
}

// autoAssign assigns the on-call responder. The incident is already stored,
// so lookup or storage failures leave it unassigned instead of failing Create.
func (s *Service) autoAssign(ctx context.Context, incident *domain.Incident, at time.Time) *domain.Incident {
	responder, found, err := s.resolver.Resolve(ctx, incident.ServiceName, at)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to resolve on-call responder",
			"incident_id", incident.ID,
			"service_name", incident.ServiceName,
			"error", err,
		)
		return incident
	}
	if !found {
		ctxlog.FromContext(ctx).Warn("no on-call responder",
			"incident_id", incident.ID,
			"service_name", incident.ServiceName,
		)
		s.notifier.Notify(ctx, titleNoResponder,
			fmt.Sprintf("No on-call responder found for %s. Incident #%s remains UNASSIGNED.", incident.ServiceName, incident.ID),
			domain.SeverityWarning)
		return incident
	}

	assigned, err := s.repo.AssignResponder(ctx, incident.ID, responder)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to assign responder",
			"incident_id", incident.ID,
			"responder_id", responder,
			"error", err,
		)
		return incident
	}
	return assigned
}

// Get retrieves an incident by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves incidents with optional filters, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Incident, error) {
	return s.repo.List(ctx, filter)
}

// Acknowledge moves a TRIGGERED incident to ACKNOWLEDGED.
func (s *Service) Acknowledge(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.transition(ctx, id, domain.IncidentStatusTriggered, domain.IncidentStatusAcknowledged)
	if err != nil {
		return nil, err
	}

	by := assigneeOr(incident, "Unknown")
	ctxlog.FromContext(ctx).Info("incident acknowledged", "incident_id", incident.ID, "assigned_to", by)
	s.notifier.Notify(ctx, statusTitle(incident.Status),
		fmt.Sprintf("Incident #%s acknowledged by %s", incident.ID, by), domain.SeveritySuccess)
	return incident, nil
}

// Resolve moves an ACKNOWLEDGED incident to RESOLVED.
func (s *Service) Resolve(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.transition(ctx, id, domain.IncidentStatusAcknowledged, domain.IncidentStatusResolved)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident resolved", "incident_id", incident.ID)
	s.notifier.Notify(ctx, statusTitle(incident.Status),
		fmt.Sprintf("Incident #%s has been resolved", incident.ID), domain.SeveritySuccess)
	return incident, nil
}

// Escalate moves a TRIGGERED incident to ESCALATED and notifies the
// lowest escalation level of its service. AssignedTo is left unchanged.
func (s *Service) Escalate(ctx context.Context, id string) (*EscalateResult, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.IncidentStatusTriggered {
		return nil, &StateError{ID: id, Current: current.Status, Expected: domain.IncidentStatusTriggered}
	}

	levels, err := s.policy.LevelsFor(ctx, current.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("get escalation levels: %w", err)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoEscalationPath, current.ServiceName)
	}
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })
	level := levels[0]

	incident, err := s.transition(ctx, id, domain.IncidentStatusTriggered, domain.IncidentStatusEscalated)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Warn("incident escalated",
		"incident_id", incident.ID,
		"service_name", incident.ServiceName,
		"level", level.Level,
		"notification_channel", level.NotificationChannel,
	)
	s.notifier.Notify(ctx, statusTitle(incident.Status),
		fmt.Sprintf("Incident #%s escalated to Level %d (%s)", incident.ID, level.Level, level.NotificationChannel),
		domain.SeverityError)

	return &EscalateResult{Incident: incident, Level: level}, nil
}

func (s *Service) transition(ctx context.Context, id string, from, to domain.IncidentStatus) (*domain.Incident, error) {
	incident, err := s.repo.Transition(ctx, id, from, to, s.clock.Now())
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) || errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("transition incident to %s: %w", to, err)
	}
	recordTransition(string(to))
	return incident, nil
}

// Sweep escalates every TRIGGERED incident older than timeout. A timeout of
// zero or less uses the configured default. Per-incident failures are
// logged, notified and counted; only a failing stale query aborts the sweep.
func (s *Service) Sweep(ctx context.Context, timeout time.Duration) (*SweepResult, error) {
	if timeout <= 0 {
		timeout = s.config.EscalationTimeout
	}
	started := time.Now()
	cutoff := s.clock.Now().Add(-timeout)

	stale, err := s.repo.FindStaleTriggered(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale incidents: %w", err)
	}

	var result SweepResult
	for _, inc := range stale {
		if _, err := s.Escalate(ctx, inc.ID); err != nil {
			result.Failed++
			ctxlog.FromContext(ctx).Error("failed to escalate incident",
				"incident_id", inc.ID,
				"service_name", inc.ServiceName,
				"error", err,
			)
			s.notifier.Notify(ctx, titleEscalationFailed,
				fmt.Sprintf("Failed to escalate incident #%s: %v", inc.ID, err), domain.SeverityError)
			continue
		}
		result.Escalated++
	}

	recordSweep(result, time.Since(started))
	if result.Escalated > 0 || result.Failed > 0 {
		ctxlog.FromContext(ctx).Info("escalation sweep finished",
			"candidates", len(stale),
			"escalated", result.Escalated,
			"failed", result.Failed,
			"timeout", timeout,
		)
	}
	return &result, nil
}
