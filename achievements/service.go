// achievements/service.go - action dispatcher
package achievements

import (
	"context"
	"fmt"
	"time"

	"codemaster/logger"
	"codemaster/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type ActionKind string

const (
	ActionTopicCompleted  ActionKind = "topic_completed"
	ActionLogin           ActionKind = "login"
	ActionModuleCompleted ActionKind = "module_completed"
	ActionForumReply      ActionKind = "forum_reply"
)

// actionRoutes lists the categories evaluated for each action. Evaluators are
// independent, so order within a route carries no meaning.
var actionRoutes = map[ActionKind][]string{
	ActionTopicCompleted:  {models.CategoryProgress, models.CategoryModule, models.CategoryVelocity},
	ActionLogin:           {models.CategoryStreak, models.CategoryHorario},
	ActionModuleCompleted: {models.CategoryModule},
	ActionForumReply:      {models.CategorySocial},
}

// Categories returns the categories an action evaluates, and whether the
// action is known.
func Categories(kind ActionKind) ([]string, bool) {
	cats, ok := actionRoutes[kind]
	return cats, ok
}

// DataAt is the dispatch data key that overrides the evaluation instant.
// Only in-process callers may set it; request bodies must not reach it.
const DataAt = "at"

// Publisher is told about the unseen earned list after each dispatch that
// produced one.
type Publisher interface {
	PublishEarned(userID uuid.UUID, earned []EarnedAchievement)
}

type Options struct {
	Facts     FactSource
	Rules     ModuleRules
	Location  *time.Location
	Now       func() time.Time
	Publisher Publisher
	Logger    *logger.Logger
	Tracer    trace.Tracer
}

type Service struct {
	db         *gorm.DB
	ledger     *Ledger
	facts      FactSource
	evaluators map[string]evaluator
	loc        *time.Location
	now        func() time.Time
	publisher  Publisher
	log        *logger.Logger
	tracer     trace.Tracer
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Facts == nil {
		opts.Facts = NewGormFactSource(db)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("codemaster/achievements")
	}

	ledger := NewLedger(db, opts.Now)
	return &Service{
		db:     db,
		ledger: ledger,
		facts:  opts.Facts,
		evaluators: map[string]evaluator{
			models.CategoryProgress: &thresholdEvaluator{ledger: ledger, metrics: progressMetrics(opts.Facts)},
			models.CategoryModule:   &moduleEvaluator{facts: opts.Facts, ledger: ledger, rules: opts.Rules},
			models.CategoryStreak:   &thresholdEvaluator{ledger: ledger, metrics: streakMetrics(opts.Facts, opts.Location)},
			models.CategoryVelocity: &thresholdEvaluator{ledger: ledger, metrics: velocityMetrics(opts.Facts, opts.Location)},
			models.CategoryHorario:  &thresholdEvaluator{ledger: ledger, metrics: horarioMetrics(opts.Location)},
			models.CategorySocial:   &thresholdEvaluator{ledger: ledger, metrics: socialMetrics(opts.Facts)},
		},
		loc:       opts.Location,
		now:       opts.Now,
		publisher: opts.Publisher,
		log:       opts.Logger.With("service", "Achievements"),
		tracer:    opts.Tracer,
	}
}

func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Dispatch runs the evaluators routed to kind and returns the user's earned,
// unseen achievements. It never fails: evaluator errors are logged and the
// remaining evaluators still run. Unknown kinds evaluate nothing and return
// an empty list.
//
// data[DataAt] (time.Time or RFC3339 string) overrides the evaluation instant.
func (s *Service) Dispatch(ctx context.Context, userID uuid.UUID, kind ActionKind, data map[string]any) []EarnedAchievement {
	ctx, span := s.tracer.Start(ctx, "achievements.Dispatch",
		trace.WithAttributes(attribute.String("achievements.action", string(kind))))
	defer span.End()

	earned := []EarnedAchievement{}
	if userID == uuid.Nil {
		s.log.Warn("dispatch without user", "action", kind, "error", ErrNilUser)
		return earned
	}
	categories, ok := actionRoutes[kind]
	if !ok {
		s.log.Debug("ignoring unknown action", "action", kind, "user_id", userID)
		return earned
	}

	at := s.evaluationInstant(data)
	defs, err := s.activeDefinitions(ctx)
	if err != nil {
		span.RecordError(err)
		s.log.Warn("loading achievement definitions failed", "user_id", userID, "action", kind, "error", err)
	} else {
		for _, category := range categories {
			_ = s.runEvaluator(ctx, category, userID, kind, at, defs[category])
		}
	}

	unseen, err := s.FetchUnseenEarned(ctx, userID)
	if err != nil {
		span.RecordError(err)
		s.log.Warn("loading unseen achievements failed", "user_id", userID, "action", kind, "error", err)
		return earned
	}
	span.SetAttributes(attribute.Int("achievements.unseen", len(unseen)))

	if len(unseen) > 0 {
		s.log.Info("new achievements", "user_id", userID, "action", kind, "count", len(unseen))
		if s.publisher != nil {
			s.publisher.PublishEarned(userID, unseen)
		}
	}
	return unseen
}

func (s *Service) runEvaluator(ctx context.Context, category string, userID uuid.UUID, kind ActionKind, at time.Time, defs []models.Achievement) (err error) {
	ev, ok := s.evaluators[category]
	if !ok {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "achievements.evaluate",
		trace.WithAttributes(attribute.String("achievements.category", category)))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator %s panicked: %v", category, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Warn("evaluator failed",
				"user_id", userID,
				"evaluator", category,
				"action", kind,
				"error", err)
		}
		span.End()
	}()

	return ev.Evaluate(ctx, userID, at, defs)
}

func (s *Service) evaluationInstant(data map[string]any) time.Time {
	switch v := data[DataAt].(type) {
	case time.Time:
		if !v.IsZero() {
			return v
		}
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		s.log.Debug("ignoring malformed evaluation instant", "at", v)
	}
	return s.now()
}

// activeDefinitions groups active catalog definitions by category.
func (s *Service) activeDefinitions(ctx context.Context) (map[string][]models.Achievement, error) {
	var defs []models.Achievement
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order, id").
		Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	out := make(map[string][]models.Achievement, len(models.Categories))
	for _, d := range defs {
		out[d.Category] = append(out[d.Category], d)
	}
	return out, nil
}
