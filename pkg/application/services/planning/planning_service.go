package planning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/vsinha/lotplan/pkg/application/dto"
	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/services"
	"github.com/vsinha/lotplan/pkg/domain/solver"
	"github.com/vsinha/lotplan/pkg/infrastructure/events"
)

const instrumentationName = "github.com/vsinha/lotplan/pkg/application/services/planning"

// PlanningService runs validate, build, solve and extract for one planning
// input. It holds no per-run state and is safe for concurrent use.
type PlanningService struct {
	solver     solver.Solver
	logger     *slog.Logger
	tracer     trace.Tracer
	eventStore events.EventStore
	progress   func(string)
	now        func() time.Time

	plans         metric.Int64Counter
	solveDuration metric.Float64Histogram
}

// Option configures a PlanningService
type Option func(*PlanningService)

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(s *PlanningService) { s.logger = logger }
}

// WithTracer sets the tracer used for run and solve spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *PlanningService) { s.tracer = tracer }
}

// WithMeterProvider records run counts and solve durations on mp
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *PlanningService) { s.initMetrics(mp.Meter(instrumentationName)) }
}

// WithEventStore appends each run's planning events to store under the request ID
func WithEventStore(store events.EventStore) Option {
	return func(s *PlanningService) { s.eventStore = store }
}

// WithProgress receives a short message as each phase starts
func WithProgress(fn func(string)) Option {
	return func(s *PlanningService) { s.progress = fn }
}

// New creates a planning service around slv
func New(slv solver.Solver, opts ...Option) *PlanningService {
	s := &PlanningService{
		solver:   slv,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   tracenoop.NewTracerProvider().Tracer(instrumentationName),
		progress: func(string) {},
		now:      time.Now,
	}
	s.initMetrics(metricnoop.NewMeterProvider().Meter(instrumentationName))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PlanningService) initMetrics(meter metric.Meter) {
	// instrument constructors only fail on invalid names; fall back to no-op
	plans, err := meter.Int64Counter("lotplan.plans",
		metric.WithDescription("Planning runs by outcome"),
		metric.WithUnit("1"))
	if err != nil {
		plans, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Int64Counter("lotplan.plans")
	}
	duration, err := meter.Float64Histogram("lotplan.solve.duration",
		metric.WithDescription("Solver wall time in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		duration, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Float64Histogram("lotplan.solve.duration")
	}
	s.plans = plans
	s.solveDuration = duration
}

// Plan validates rec, builds the lot-sizing model, solves it once and
// extracts the plan. Infeasible and inconclusive solves are reported in
// the result's output, not as errors. Invalid input comes back as
// *entities.InvalidInputError and solver failures as
// *entities.SolverUnavailableError.
func (s *PlanningService) Plan(ctx context.Context, rec entities.InputRecord, cfg solver.Config) (*dto.PlanResult, error) {
	requestID := uuid.NewString()
	start := s.now()

	ctx, span := s.tracer.Start(ctx, "lotplan.plan", trace.WithAttributes(
		attribute.String("lotplan.request_id", requestID),
		attribute.Int("lotplan.items", rec.NItems),
		attribute.Int("lotplan.periods", rec.NPeriods),
	))
	defer span.End()

	logger := s.logger.With("request_id", requestID)
	s.publish(events.NewPlanRequestedEvent(requestID, rec.NItems, rec.NPeriods))

	input, err := services.ValidateInput(rec)
	if err != nil {
		s.fail(ctx, span, logger, requestID, events.StageValidate, err)
		return nil, err
	}

	s.progress("Setting up the optimization model")
	buildStart := s.now()
	model := services.BuildModel(input)
	buildTime := s.now().Sub(buildStart)
	stats := model.Stats()
	s.progress(fmt.Sprintf("Created %d variables and %d constraints", stats.Variables, stats.Constraints))
	s.publish(events.NewModelBuiltEvent(requestID, model))
	logger.Debug("model built",
		"items", input.Items,
		"periods", input.Periods,
		"variables", stats.Variables,
		"constraints", stats.Constraints)

	s.progress("Solving the optimization model")
	result, err := s.solve(ctx, model, cfg)
	if err != nil {
		err = &entities.SolverUnavailableError{Solver: s.solver.Name(), Err: err}
		s.fail(ctx, span, logger, requestID, events.StageSolve, err)
		return nil, err
	}
	s.publish(events.NewSolveCompletedEvent(requestID, s.solver.Name(), result))

	extractStart := s.now()
	output, err := services.ExtractPlan(input, result)
	if err != nil {
		err = fmt.Errorf("extract plan: %w", err)
		s.fail(ctx, span, logger, requestID, events.StageExtract, err)
		return nil, err
	}
	extractTime := s.now().Sub(extractStart)
	s.publish(events.NewPlanExtractedEvent(requestID, output))

	status := output.Report.Status.String()
	s.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	span.SetAttributes(
		attribute.String("lotplan.status", status),
		attribute.String("lotplan.solver_status", result.StatusText()),
	)
	for _, w := range output.Warnings {
		logger.Warn("plan warning", "warning", w)
	}

	total := s.now().Sub(start)
	logger.Info("plan finished",
		"status", status,
		"solver_status", result.StatusText(),
		"objective", result.Objective,
		"elapsed", total)

	return &dto.PlanResult{
		RequestID:  requestID,
		Model:      model.Name,
		ModelStats: stats,
		Solve: dto.SolveSummary{
			Solver:    s.solver.Name(),
			Status:    result.StatusText(),
			Objective: result.Objective,
			Nodes:     result.Nodes,
			Elapsed:   result.Elapsed,
		},
		Output: output,
		Timings: dto.Timings{
			Build:   buildTime,
			Solve:   result.Elapsed,
			Extract: extractTime,
			Total:   total,
		},
	}, nil
}

// solve invokes the solver exactly once
func (s *PlanningService) solve(ctx context.Context, model *entities.ModelDescription, cfg solver.Config) (*entities.SolveResult, error) {
	ctx, span := s.tracer.Start(ctx, "lotplan.solve", trace.WithAttributes(
		attribute.String("lotplan.solver", s.solver.Name()),
		attribute.Int("lotplan.variables", len(model.Variables)),
		attribute.Int("lotplan.constraints", len(model.Constraints)),
	))
	defer span.End()

	start := s.now()
	result, err := s.solver.Solve(ctx, model, cfg)
	elapsed := s.now().Sub(start)
	s.solveDuration.Record(ctx, float64(elapsed.Microseconds())/1000,
		metric.WithAttributes(attribute.String("solver", s.solver.Name())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result == nil {
		err := errors.New("solver returned no result")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result.Elapsed == 0 {
		timed := *result
		timed.Elapsed = elapsed
		result = &timed
	}
	span.SetAttributes(
		attribute.String("lotplan.solver_status", result.StatusText()),
		attribute.Int("lotplan.nodes", result.Nodes),
	)
	return result, nil
}

func (s *PlanningService) fail(ctx context.Context, span trace.Span, logger *slog.Logger, requestID, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
	s.publish(events.NewPlanFailedEvent(requestID, stage, err))
	logger.Error("plan failed", "stage", stage, "error", err)
}

func (s *PlanningService) publish(event events.Event) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		s.logger.Warn("failed to publish planning event", "event_type", event.Type(), "error", err)
	}
}
