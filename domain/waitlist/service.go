package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/waitlist-api/domain/waitlist"

var errNoStages = errors.New("no storage stage available")

type WaitlistService interface {
	// Submit validates req and records the email in the first storage stage that accepts it.
	Submit(ctx context.Context, req *SubmitWaitlistRequest) (*SubmitWaitlistResponse, error)

	// List returns the entries of the first storage stage that can be read.
	List(ctx context.Context) (*ListWaitlistResponse, error)
}

type waitlistService struct {
	logger   *log.Logger
	stages   StageProvider
	validate *validator.Validate
	metrics  *Metrics
	tracer   trace.Tracer
}

func NewWaitlistService(logger *log.Logger, stages StageProvider, metrics *Metrics) WaitlistService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &waitlistService{
		logger:   logger,
		stages:   stages,
		validate: NewValidator(),
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *waitlistService) Submit(ctx context.Context, req *SubmitWaitlistRequest) (*SubmitWaitlistResponse, error) {
	logger := log.FromContext(ctx, s.logger)

	if req == nil {
		req = &SubmitWaitlistRequest{}
	}

	if err := s.validate.StructCtx(ctx, req); err != nil {
		appErr := validationError(err)
		s.metrics.observeSignup(storageNone, outcomeInvalid)
		logger.Info("Rejected waitlist submission", "reason", appErr.Message)
		return nil, appErr
	}

	lastErr := errNoStages
	for _, stage := range s.stages.Stages(ctx) {
		storage := string(stage.Name())
		id, err := s.submitTo(ctx, stage, req.Email)

		switch {
		case err == nil:
			s.metrics.observeSignup(storage, outcomeCreated)
			logger.Info("Added email to waitlist", "storage", storage, "id", id)
			return &SubmitWaitlistResponse{
				Message: MessageSignupSucceeded,
				ID:      id,
				Storage: stage.Name(),
			}, nil

		case apperrors.IsType(err, apperrors.ErrorTypeDatabaseError):
			s.metrics.observeFallback("submit")
			logger.Warn("Storage stage failed; trying next stage", "storage", storage, "error", err)
			lastErr = err

		case apperrors.IsType(err, apperrors.ErrorTypeDuplicate):
			s.metrics.observeSignup(storage, outcomeDuplicate)
			logger.Info("Email already on waitlist", "storage", storage)
			return nil, err

		default:
			s.metrics.observeSignup(storage, outcomeError)
			logger.Error("Failed to add email to waitlist", "storage", storage, "error", err)
			return nil, err
		}
	}

	s.metrics.observeSignup(storageNone, outcomeError)
	logger.Error("No storage stage accepted the submission", "error", lastErr)
	return nil, apperrors.NewStorageUnavailableError("No storage backend is available", lastErr)
}

func (s *waitlistService) List(ctx context.Context) (*ListWaitlistResponse, error) {
	logger := log.FromContext(ctx, s.logger)

	lastErr := errNoStages
	for _, stage := range s.stages.Stages(ctx) {
		storage := string(stage.Name())
		resp, err := s.listFrom(ctx, stage)

		switch {
		case err == nil:
			logger.Debug("Listed waitlist entries", "storage", storage, "count", resp.Count)
			return resp, nil

		case apperrors.IsType(err, apperrors.ErrorTypeDatabaseError):
			s.metrics.observeFallback("list")
			logger.Warn("Storage stage failed; trying next stage", "storage", storage, "error", err)
			lastErr = err

		default:
			logger.Error("Failed to list waitlist entries", "storage", storage, "error", err)
			return nil, apperrors.NewStorageUnavailableError(MessageListFailed, err)
		}
	}

	logger.Error("No storage stage could list the waitlist", "error", lastErr)
	return nil, apperrors.NewStorageUnavailableError(MessageListFailed, lastErr)
}

func (s *waitlistService) submitTo(ctx context.Context, stage WaitlistStore, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.submit."+string(stage.Name()))
	defer span.End()

	id, err := stage.Submit(ctx, email)
	recordStageOutcome(span, err)
	return id, err
}

func (s *waitlistService) listFrom(ctx context.Context, stage WaitlistStore) (*ListWaitlistResponse, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.list."+string(stage.Name()))
	defer span.End()

	resp, err := stage.List(ctx)
	if err == nil && resp == nil {
		err = apperrors.NewUnexpectedError("storage stage returned no result", nil)
	}
	if resp != nil {
		span.SetAttributes(attribute.Int("waitlist.count", resp.Count))
	}
	recordStageOutcome(span, err)
	return resp, err
}

func recordStageOutcome(span trace.Span, err error) {
	if err == nil {
		return
	}
	if apperrors.IsType(err, apperrors.ErrorTypeDuplicate) {
		span.SetAttributes(attribute.Bool("waitlist.duplicate", true))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, apperrors.GetErrorType(err))
}
