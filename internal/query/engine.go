// Package query implements the task query engine: a line-oriented query
// language parsed into a boolean filter AST, predicates evaluated over an
// in-memory task collection, multi-field stable sorting, grouping, result
// caching and explainability.
//
// The engine is single-threaded by design. Nothing here locks; hosts
// that mutate tasks or run queries concurrently must serialize access.
// No operation performs I/O.
package query

import (
	"errors"
	"time"

	"tq/internal/task"
)

// TaskSource is the pull accessor for the full task collection. The
// engine snapshots it once per execution.
type TaskSource interface {
	All() []task.Task
}

// ScorerFactory builds the scoring functions for one execution pass.
// The engine calls it once per Execute with the pass's reference time,
// so every comparison and score filter in a pass sees consistent values.
type ScorerFactory func(now time.Time) Scorers

// Options configures an Engine.
type Options struct {
	ResultCacheCapacity      int
	ExplanationCacheCapacity int
	ExplanationCacheTTL      time.Duration
}

// Result is the outcome of one execution.
type Result struct {
	Tasks       []task.Task
	Groups      *Grouping // nil unless the query groups
	TotalCount  int       // collection size before any filtering
	Explanation *Explanation
}

var errNilQuery = errors.New("nil query")

// Engine executes parsed queries against a task source. Construct one
// per session/index and mutate its collaborators through the setters;
// there are no ambient singletons.
type Engine struct {
	source       TaskSource
	graph        *task.DependencyGraph
	scorers      ScorerFactory
	global       *Query
	cache        *ResultCache
	explanations *ExplanationCache
}

// NewEngine creates an engine over a task source.
func NewEngine(source TaskSource, opts Options) *Engine {
	return &Engine{
		source:       source,
		cache:        NewResultCache(opts.ResultCacheCapacity),
		explanations: NewExplanationCache(opts.ExplanationCacheCapacity, opts.ExplanationCacheTTL),
	}
}

// SetDependencyGraph installs the dependency graph consumed by
// blocked/blocking filters. Nil is allowed: those filters then match
// nothing. Installing a graph invalidates cached results.
func (e *Engine) SetDependencyGraph(g *task.DependencyGraph) {
	e.graph = g
	e.InvalidateAll()
}

// SetScorers installs the factory for urgency/escalation/attention
// scoring and the attention-profile provider. Invalidates cached results.
func (e *Engine) SetScorers(f ScorerFactory) {
	e.scorers = f
	e.InvalidateAll()
}

// SetGlobalQuery parses and installs the global filter applied before
// every query's own filters. Only its filter lines matter; sort, group
// and limit instructions in the global query are ignored. An empty
// string clears the global filter. Invalidates cached results.
func (e *Engine) SetGlobalQuery(text string, ref time.Time) error {
	defer e.InvalidateAll()

	if text == "" {
		e.global = nil

		return nil
	}

	global, err := Parse(text, ref, nil)
	if err != nil {
		return err
	}

	e.global = global

	return nil
}

// GlobalActive reports whether a global filter would apply to q.
func (e *Engine) GlobalActive(q *Query) bool {
	return e.global != nil && len(e.global.Filters) > 0 && !q.IgnoreGlobal
}

// InvalidateMatching drops cached results whose key contains the
// pattern. Returns the number of dropped entries. Invalidation is
// entirely caller-driven; the engine never invalidates on time passage.
func (e *Engine) InvalidateMatching(pattern string) int {
	return e.cache.InvalidateMatching(pattern)
}

// InvalidateAll drops all cached results and explanations.
func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
	e.explanations.Clear()
}

// CacheKey returns the result-cache key for q: the canonical AST
// serialization plus a marker for whether a global filter is active.
func (e *Engine) CacheKey(q *Query) string {
	marker := "global=0"
	if e.GlobalActive(q) {
		marker = "global=1"
	}

	return q.Canonical() + "\n@" + marker
}

// Execute runs the pipeline: snapshot, global filter, query filters,
// sort, limit, group, and optionally explanation. Results come from the
// cache when a structurally identical query was executed before and
// explain is not requested. Parser errors never reach here; any
// predicate construction or evaluation failure surfaces whole as an
// [*ExecutionError].
func (e *Engine) Execute(q *Query, now time.Time) (*Result, error) {
	if q == nil {
		return nil, execErrorf("execute", errNilQuery)
	}

	key := e.CacheKey(q)

	if !q.Explain {
		if cached := e.cache.Get(key); cached != nil {
			return cached, nil
		}
	}

	snapshot := e.source.All()

	ctx := &BuildContext{Now: now, Graph: e.graph}
	if e.scorers != nil {
		ctx.Scoring = e.scorers(now)
	}

	filters := ComposeFilters(q, e.global)

	predicates := make([]Predicate, len(filters))

	for i, node := range filters {
		pred, err := Build(node, ctx)
		if err != nil {
			return nil, wrapExecution("build predicate", err)
		}

		predicates[i] = pred
	}

	// Each filter is one full pass; passes chain, which is logical AND.
	matched := append([]task.Task(nil), snapshot...)
	for _, pred := range predicates {
		matched = filterPass(matched, pred)
	}

	if q.Sort != nil {
		if err := sortTasks(matched, q.Sort, ctx); err != nil {
			return nil, wrapExecution("sort", err)
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	result := &Result{Tasks: matched, TotalCount: len(snapshot)}

	if q.Group != nil {
		groups, err := groupTasks(matched, q.Group, ctx)
		if err != nil {
			return nil, wrapExecution("group", err)
		}

		result.Groups = groups
	}

	if q.Explain {
		result.Explanation = e.explain(q, key, filters, predicates, snapshot, now)

		return result, nil
	}

	e.cache.Put(key, result)

	return result, nil
}

func (e *Engine) explain(q *Query, key string, filters []*FilterNode, predicates []Predicate, snapshot []task.Task, now time.Time) *Explanation {
	expKey := e.explanations.Key(key, snapshot)

	if cached := e.explanations.Get(expKey); cached != nil {
		return cached
	}

	exp := ExplainQuery(q, filters, predicates, snapshot, now)
	e.explanations.Put(expKey, exp)

	return exp
}

func filterPass(tasks []task.Task, pred Predicate) []task.Task {
	kept := tasks[:0]

	for i := range tasks {
		if pred.Matches(&tasks[i]) {
			kept = append(kept, tasks[i])
		}
	}

	return kept
}

// wrapExecution ensures an error crossing the engine boundary is an
// ExecutionError exactly once, preserving the original cause.
func wrapExecution(op string, err error) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}

	return execErrorf(op, err)
}
