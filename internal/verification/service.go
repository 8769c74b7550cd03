package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/notification"
	"github.com/congo-pay/admin_console/internal/provider"
)

const defaultHistoryLimit = 50

// Provider submits a verification request to the remote provider.
type Provider interface {
	Verify(ctx context.Context, subjectID string, req document.Request) (provider.Response, error)
}

// Service runs the submission flow: validate, build, submit, normalise and
// report. Each submission builds its own request and result.
type Service struct {
	validator *document.Validator
	provider  Provider
	sessions  *Sessions
	gate      Gate
	repo      Repository
	notifier  notification.Notifier
	metrics   *Metrics
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// Deps groups the collaborators of a Service. Gate, Repository, Notifier and
// Metrics are optional.
type Deps struct {
	Validator *document.Validator
	Provider  Provider
	Gate      Gate
	Repo      Repository
	Notifier  notification.Notifier
	Metrics   *Metrics
	Logger    *slog.Logger
	Timeout   time.Duration
}

// NewService builds a verification service.
func NewService(d Deps) (*Service, error) {
	if d.Provider == nil {
		return nil, fmt.Errorf("verification provider is required")
	}
	if d.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if d.Validator == nil {
		d.Validator = document.NewValidator()
	}
	if d.Gate == nil {
		d.Gate = NopGate{}
	}
	if d.Repo == nil {
		d.Repo = NewMemoryRepository()
	}
	if d.Timeout <= 0 {
		d.Timeout = provider.DefaultTimeout
	}
	return &Service{
		validator: d.Validator,
		provider:  d.Provider,
		sessions:  NewSessions(),
		gate:      d.Gate,
		repo:      d.Repo,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		logger:    logging.Component(d.Logger, "verification"),
		timeout:   d.Timeout,
		now:       time.Now,
	}, nil
}

// Validate checks input without submitting it.
func (s *Service) Validate(in document.Input) error {
	return s.validator.Validate(in)
}

// Submit verifies in for subjectID on behalf of operatorID. The operator's
// session always leaves the pending states before Submit returns.
func (s *Service) Submit(ctx context.Context, operatorID, subjectID string, in document.Input) (result Result, err error) {
	sess := s.sessions.For(operatorID)
	if err := sess.Begin(); err != nil {
		return Result{}, err
	}

	var (
		docType  document.Type
		req      document.Request
		sent     bool
		started  = s.now()
		duration time.Duration
	)
	defer func() {
		if err != nil {
			if ferr := sess.Fail(err); ferr != nil {
				s.logger.Error("session transition failed", slog.Any("error", ferr))
			}
		} else if serr := sess.Succeed(result); serr != nil {
			s.logger.Error("session transition failed", slog.Any("error", serr))
		}
		s.report(ctx, operatorID, subjectID, docType, req, sent, started, duration, err)
	}()

	if err = s.validator.Validate(in); err != nil {
		return Result{}, err
	}
	docType, err = document.ParseType(in.DocumentType)
	if err != nil {
		return Result{}, err
	}
	req = document.BuildRequest(docType, in.Number, in.PersonalInfo)

	release, err := s.gate.Acquire(ctx, operatorID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if err = sess.Submitting(); err != nil {
		return Result{}, err
	}
	sent = true

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	callStart := s.now()
	resp, err := s.provider.Verify(callCtx, subjectID, req)
	duration = s.now().Sub(callStart)
	s.metrics.ObserveProviderLatency(docType.String(), duration)
	if err != nil {
		return Result{}, err
	}

	raw, err := ParseRawData(resp.Data)
	if err != nil {
		return Result{}, &provider.Error{Category: provider.CategoryBadData, Underlying: err}
	}
	return NewResult(docType, resp.Message, raw), nil
}

// Session returns the current state of an operator's form.
func (s *Service) Session(operatorID string) Snapshot {
	return s.sessions.For(operatorID).Snapshot()
}

// Reset closes the operator's result view.
func (s *Service) Reset(operatorID string) error {
	return s.sessions.For(operatorID).Reset()
}

// ErrNoResult is returned when there is nothing to export.
var ErrNoResult = errors.New("no verification result to export")

// ExportCurrent exports the result currently shown to the operator.
func (s *Service) ExportCurrent(operatorID string) (Artifact, error) {
	snap := s.sessions.For(operatorID).Snapshot()
	if snap.State != StateSucceeded || snap.Result == nil {
		return Artifact{}, ErrNoResult
	}
	return Export(*snap.Result)
}

// History lists the operator's recent attempts.
func (s *Service) History(ctx context.Context, operatorID string, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.repo.ListByOperator(ctx, operatorID, limit)
}

func (s *Service) report(ctx context.Context, operatorID, subjectID string, docType document.Type, req document.Request,
	sent bool, started time.Time, duration time.Duration, err error) {
	outcome := OutcomeSucceeded
	kind := notification.KindVerificationSucceeded
	if err != nil {
		outcome = OutcomeFailed
		kind = notification.KindVerificationFailed
	}
	message := UserMessage(err)

	attrs := []any{
		slog.String("operator_id", operatorID),
		slog.String("subject_id", subjectID),
		slog.String("outcome", outcome),
	}
	if sent {
		attrs = append(attrs, slog.String("document_type", docType.String()), slog.Duration("provider_duration", duration))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error_kind", ErrorKind(err)), slog.Any("error", err))
		s.logger.Warn("verification failed", attrs...)
	} else {
		s.logger.Info("verification completed", attrs...)
	}

	if sent {
		s.metrics.IncrementSubmission(docType.String(), outcome)
		attempt := Attempt{
			ID:           uuid.NewString(),
			OperatorID:   operatorID,
			SubjectID:    subjectID,
			DocumentType: docType,
			MaskedNumber: Mask(req.Number),
			Outcome:      outcome,
			ErrorKind:    ErrorKind(err),
			Message:      message,
			DurationMS:   duration.Milliseconds(),
			CreatedAt:    started.UTC(),
		}
		if rerr := s.repo.Record(context.WithoutCancel(ctx), attempt); rerr != nil {
			s.logger.Error("record verification attempt", slog.Any("error", rerr))
		}
	}

	if s.notifier != nil {
		if nerr := s.notifier.Send(context.WithoutCancel(ctx), notification.Message{
			Kind:        kind,
			Destination: operatorID,
			Body:        message,
		}); nerr != nil {
			s.logger.Warn("send notification", slog.Any("error", nerr))
		}
	}
}
