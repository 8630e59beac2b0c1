// achievements/evaluators.go - rule evaluators per category
package achievements

import (
	"context"
	"errors"
	"time"

	"codemaster/models"

	"github.com/google/uuid"
)

// evaluator computes one rule family for a user and records matches in the
// ledger. defs holds only the active definitions of the evaluator's category.
type evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, at time.Time, defs []models.Achievement) error
}

// metricFunc returns metric values keyed by condition type.
type metricFunc func(ctx context.Context, userID uuid.UUID, at time.Time) (map[string]int, error)

// thresholdEvaluator awards every definition whose condition value is at most
// the metric for its condition type.
type thresholdEvaluator struct {
	ledger  *Ledger
	metrics metricFunc
}

func (e *thresholdEvaluator) Evaluate(ctx context.Context, userID uuid.UUID, at time.Time, defs []models.Achievement) error {
	if len(defs) == 0 {
		return nil
	}
	values, err := e.metrics(ctx, userID, at)
	if err != nil {
		return err
	}

	var errs []error
	for _, d := range defs {
		metric, ok := values[d.ConditionType]
		if !ok || metric <= 0 || d.ConditionValue > metric {
			continue
		}
		if _, err := e.ledger.Upsert(ctx, userID, d.ID, metric, d.ConditionValue); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// moduleEvaluator awards the achievement mapped to each fully completed
// module, and the all-modules achievement once every active module with
// topics is complete.
type moduleEvaluator struct {
	facts  FactSource
	ledger *Ledger
	rules  ModuleRules
}

func (e *moduleEvaluator) Evaluate(ctx context.Context, userID uuid.UUID, _ time.Time, defs []models.Achievement) error {
	if len(defs) == 0 {
		return nil
	}
	active := make(map[uint]bool, len(defs))
	for _, d := range defs {
		active[d.ID] = true
	}

	completions, err := e.facts.Completions(ctx, userID)
	if err != nil {
		return err
	}
	mods, err := e.facts.Modules(ctx)
	if err != nil {
		return err
	}

	var errs []error
	complete, total := 0, 0
	for _, t := range ModuleTallies(mods, completions) {
		if t.Total == 0 {
			continue
		}
		total++
		if !t.Complete() {
			continue
		}
		complete++
		if achID, ok := e.rules.ByModule[t.ModuleID]; ok && active[achID] {
			if _, err := e.ledger.Upsert(ctx, userID, achID, t.Completed, t.Total); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if all := e.rules.AllModules; all != 0 && active[all] && total > 0 && complete == total {
		if _, err := e.ledger.Upsert(ctx, userID, all, complete, total); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func progressMetrics(facts FactSource) metricFunc {
	return func(ctx context.Context, userID uuid.UUID, _ time.Time) (map[string]int, error) {
		cs, err := facts.Completions(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]int{CondTopicsCompleted: CountCompleted(cs)}, nil
	}
}

func streakMetrics(facts FactSource, loc *time.Location) metricFunc {
	return func(ctx context.Context, userID uuid.UUID, at time.Time) (map[string]int, error) {
		cs, err := facts.Completions(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]int{CondStreakDays: CurrentStreak(cs, at, loc)}, nil
	}
}

func velocityMetrics(facts FactSource, loc *time.Location) metricFunc {
	return func(ctx context.Context, userID uuid.UUID, at time.Time) (map[string]int, error) {
		cs, err := facts.Completions(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]int{CondTopicsPerDay: CompletedOn(cs, at, loc)}, nil
	}
}

func horarioMetrics(loc *time.Location) metricFunc {
	return func(_ context.Context, _ uuid.UUID, at time.Time) (map[string]int, error) {
		nightOwl, earlyRiser := HourWindows(at, loc)
		return map[string]int{
			CondNightOwl:   boolMetric(nightOwl),
			CondEarlyRiser: boolMetric(earlyRiser),
		}, nil
	}
}

func socialMetrics(facts FactSource) metricFunc {
	return func(ctx context.Context, userID uuid.UUID, _ time.Time) (map[string]int, error) {
		events, err := facts.ForumEvents(ctx, userID)
		if err != nil {
			return nil, err
		}
		replies, participations := ForumTallies(events)
		return map[string]int{
			CondForumReplies:        replies,
			CondForumParticipations: participations,
		}, nil
	}
}

func boolMetric(b bool) int {
	if b {
		return 1
	}
	return 0
}
