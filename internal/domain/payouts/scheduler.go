package payouts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"susu-app-go/internal/domain/contributions"
	"susu-app-go/internal/domain/cycle"
	groupsdomain "susu-app-go/internal/domain/groups"
	"susu-app-go/internal/domain/notification"
	"susu-app-go/pkg/logger"
)

const defaultInterval = 3 * time.Minute

type Groups interface {
	ListDueGroups(ctx context.Context, today time.Time) ([]groupsdomain.SavingsGroup, error)
	BeneficiaryForPosition(ctx context.Context, groupID string, position int) (*groupsdomain.PayoutSlot, error)
}

type Ledger interface {
	Completeness(ctx context.Context, group *groupsdomain.SavingsGroup, cycleNumber int) (contributions.Completeness, error)
}

type Config struct {
	Interval time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Scheduler is the periodic payout driver. Each tick walks every started
// active group, one at a time; a failing group is reported and skipped.
type Scheduler struct {
	groups   Groups
	ledger   Ledger
	repo     Repository
	notifier notification.Sender
	metrics  *Metrics
	log      logger.Logger
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	// mu keeps a manual trigger and the ticker from running concurrently.
	mu sync.Mutex
}

func NewScheduler(groups Groups, ledger Ledger, repo Repository, notifier notification.Sender, metrics *Metrics, log logger.Logger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if notifier == nil {
		notifier = notification.Noop{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Scheduler{
		groups:   groups,
		ledger:   ledger,
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		log:      log.With("component", "payout_scheduler"),
		interval: cfg.Interval,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
}

// Start blocks, running a tick immediately and then on every interval until
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("payouts: scheduler started", "interval", s.interval.String(), "timezone", s.loc.String())
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("payouts: scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("payouts: tick finished with errors", "err", err, "groups", len(report.Results))
		return
	}
	s.log.Debug("payouts: tick finished",
		"groups", len(report.Results),
		"disbursed", report.Count(OutcomeDisbursed),
		"incomplete", report.Count(OutcomeIncomplete),
		"duration", report.Duration.String())
}

// RunOnce evaluates every due group for today's date. The returned error
// aggregates per-group failures; the report is always populated.
func (s *Scheduler) RunOnce(ctx context.Context) (TickReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := s.now()
	report := s.run(ctx, startedAt)
	report.Duration = s.now().Sub(startedAt)
	s.metrics.observe(report)
	return report, report.Err
}

func (s *Scheduler) run(ctx context.Context, startedAt time.Time) TickReport {
	report := TickReport{
		Today:     cycle.Today(startedAt, s.loc),
		StartedAt: startedAt,
	}

	due, err := s.groups.ListDueGroups(ctx, report.Today)
	if err != nil {
		s.metrics.failures.Inc()
		report.Err = fmt.Errorf("list due groups: %w", err)
		return report
	}

	var errs *multierror.Error
	for i := range due {
		if ctx.Err() != nil {
			errs = multierror.Append(errs, ctx.Err())
			break
		}
		result := s.evaluate(ctx, &due[i], report.Today)
		report.Results = append(report.Results, result)
		if result.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("group %s: %w", result.GroupID, result.Err))
		}
	}

	report.Err = errs.ErrorOrNil()
	return report
}

func (s *Scheduler) evaluate(ctx context.Context, group *groupsdomain.SavingsGroup, today time.Time) GroupResult {
	result := GroupResult{GroupID: group.ID}
	log := s.log.With("group_id", group.ID)

	state, err := cycle.Evaluate(*group.StartDate, group.PayoutIntervalDays, group.ExpectedMembers, today)
	if err != nil {
		log.InternalError("payouts: cycle evaluation failed", err)
		return failed(result, err)
	}
	result.CycleNumber = state.CycleNumber
	result.Position = state.Position
	if !state.IsPayoutDay {
		result.Outcome = OutcomeNotDue
		return result
	}
	log = log.With("cycle", state.CycleNumber)

	completeness, err := s.ledger.Completeness(ctx, group, state.CycleNumber)
	if err != nil {
		log.InternalError("payouts: completeness check failed", err)
		return failed(result, err)
	}
	if !completeness.Complete {
		result.Outcome = OutcomeIncomplete
		if err := s.reportIncomplete(ctx, group, completeness); err != nil {
			log.InternalError("payouts: reserve incomplete record failed", err)
			return failed(result, err)
		}
		return result
	}

	slot, err := s.groups.BeneficiaryForPosition(ctx, group.ID, state.Position)
	if err != nil {
		if errors.Is(err, groupsdomain.ErrPayoutOrderNotFound) {
			log.Error("payouts: beneficiary missing", "position", state.Position)
			result.Outcome = OutcomeMissingBeneficiary
			result.Err = fmt.Errorf("%w %d", ErrMissingBeneficiary, state.Position)
			return result
		}
		log.InternalError("payouts: beneficiary lookup failed", err)
		return failed(result, err)
	}
	result.BeneficiaryID = slot.UserID
	result.Amount = group.TotalPot()

	now := s.now().UTC()
	membershipID := slot.MembershipID
	claimed, err := s.repo.ClaimDisbursement(ctx, &Record{
		ID:                      uuid.NewString(),
		GroupID:                 group.ID,
		CycleNumber:             state.CycleNumber,
		Status:                  RecordDisbursed,
		BeneficiaryMembershipID: &membershipID,
		Amount:                  result.Amount,
		NotifiedAt:              &now,
		DisbursedAt:             &now,
	})
	if err != nil {
		log.InternalError("payouts: claim disbursement failed", err)
		return failed(result, err)
	}
	if !claimed {
		result.Outcome = OutcomeAlreadyDisbursed
		return result
	}

	data := map[string]any{
		"group_id":       group.ID,
		"group_name":     group.Name,
		"cycle":          state.CycleNumber,
		"position":       state.Position,
		"amount":         result.Amount.StringFixed(2),
		"beneficiary_id": slot.UserID,
	}
	s.send(ctx, slot.UserID, notification.TemplatePayoutIssued, data)
	if group.AdminID != slot.UserID {
		s.send(ctx, group.AdminID, notification.TemplatePayoutDue, data)
	}

	log.Info("payouts: payout issued", "position", state.Position, "beneficiary_id", slot.UserID, "amount", result.Amount.StringFixed(2))
	result.Outcome = OutcomeDisbursed
	return result
}

// reportIncomplete records the shortfall once per cycle and tells the admin
// the first time it is seen.
func (s *Scheduler) reportIncomplete(ctx context.Context, group *groupsdomain.SavingsGroup, completeness contributions.Completeness) error {
	now := s.now().UTC()
	reserved, err := s.repo.ReserveIncomplete(ctx, &Record{
		ID:          uuid.NewString(),
		GroupID:     group.ID,
		CycleNumber: completeness.CycleNumber,
		Status:      RecordIncomplete,
		Amount:      group.TotalPot(),
		NotifiedAt:  &now,
	})
	if err != nil {
		return err
	}
	if !reserved {
		return nil
	}

	s.send(ctx, group.AdminID, notification.TemplateCycleIncomplete, map[string]any{
		"group_id":   group.ID,
		"group_name": group.Name,
		"cycle":      completeness.CycleNumber,
		"verified":   completeness.Verified,
		"expected":   completeness.Expected,
	})
	return nil
}

func (s *Scheduler) send(ctx context.Context, userID string, template notification.Template, data map[string]any) {
	if ok := s.notifier.Notify(ctx, notification.Message{UserID: userID, Template: template, Data: data}); !ok {
		s.log.Warn("payouts: notification dropped", "user_id", userID, "template", template)
	}
}

func failed(result GroupResult, err error) GroupResult {
	result.Outcome = OutcomeFailed
	result.Err = err
	return result
}

// History lists payout records for a group, newest cycle first.
func (s *Scheduler) History(ctx context.Context, groupID string) ([]Record, error) {
	return s.repo.ListByGroup(ctx, groupID)
}
