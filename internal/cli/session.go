package cli

import (
	"fmt"
	"time"

	"tq/internal/query"
	"tq/internal/task"
)

// session bundles the loaded task collection with a ready-to-run engine.
// Every command builds one; the repl rebuilds the repository contents in
// place when the tasks file changes on disk.
type session struct {
	cfg    task.Config
	repo   *task.Repository
	engine *query.Engine
}

// newSession loads the tasks file and wires up an engine with the
// dependency graph, scorers and global query from config.
func newSession(cfg task.Config, now time.Time) (*session, error) {
	tasks, err := task.LoadFile(cfg.TasksFileAbs)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	repo := task.NewRepository(tasks)

	ttl, err := cfg.ExplainCacheTTL()
	if err != nil {
		return nil, err
	}

	engine := query.NewEngine(repo, query.Options{
		ResultCacheCapacity:      cfg.ResultCacheSize,
		ExplanationCacheCapacity: cfg.ExplainCacheSize,
		ExplanationCacheTTL:      ttl,
	})

	engine.SetDependencyGraph(task.NewDependencyGraph(tasks))
	engine.SetScorers(scorerFactory(cfg.Scoring))

	if cfg.GlobalQuery != "" {
		if globalErr := engine.SetGlobalQuery(cfg.GlobalQuery, now); globalErr != nil {
			return nil, fmt.Errorf("global query in config: %w", globalErr)
		}
	}

	return &session{cfg: cfg, repo: repo, engine: engine}, nil
}

// reload re-reads the tasks file and swaps the repository contents,
// dropping all cached results.
func (s *session) reload() error {
	tasks, err := task.LoadFile(s.cfg.TasksFileAbs)
	if err != nil {
		return fmt.Errorf("reloading tasks: %w", err)
	}

	s.repo.Replace(tasks)
	s.engine.SetDependencyGraph(task.NewDependencyGraph(tasks))

	return nil
}

func scorerFactory(settings task.ScoringSettings) query.ScorerFactory {
	return func(now time.Time) query.Scorers {
		return query.Scorers{
			Urgency:    func(t *task.Task) float64 { return settings.Urgency(t, now) },
			Escalation: func(t *task.Task) float64 { return settings.Escalation(t, now) },
			Attention:  func(t *task.Task) float64 { return settings.Attention(t, now) },
			Lane:       func(t *task.Task) string { return settings.Lane(t) },
		}
	}
}
