package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudmend/cloudmend-backend/internal/risk"
	"github.com/cloudmend/cloudmend-backend/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanStore fetches remediation plans. Implementations return
// ErrPlanNotFound (possibly wrapped) when the plan does not exist.
type PlanStore interface {
	GetPlan(ctx context.Context, planID string) (*model.RemediationPlan, error)
}

// ExecutionRecorder persists terminal execution snapshots. Optional;
// persistence failures never affect the execution outcome.
type ExecutionRecorder interface {
	SaveExecution(ctx context.Context, rec model.ExecutionRecord) error
}

// Config holds the engine's tunables.
type Config struct {
	Decision           risk.DecisionConfig
	DefaultTaskTimeout time.Duration
	DefaultMaxRetries  uint64
	// FailureRateLimit is the running failed/(failed+completed) ratio above
	// which an execution stops early.
	FailureRateLimit float64
	// MonitorEvery is the task interval between performance samples.
	MonitorEvery int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Decision:           risk.DefaultDecisionConfig(),
		DefaultTaskTimeout: 5 * time.Minute,
		DefaultMaxRetries:  3,
		FailureRateLimit:   0.3,
		MonitorEvery:       5,
	}
}

// Options configures one execution.
type Options struct {
	ForceExecution bool
	TaskTimeout    time.Duration
	MaxRetries     uint64
}

// execution is the live bookkeeping for one run. The task loop is strictly
// sequential; the mutex only guards against concurrent status reads and the
// shutdown signal.
type execution struct {
	mu        sync.Mutex
	state     model.ExecutionState
	cancelled bool
}

func (e *execution) setStatus(status string) {
	e.mu.Lock()
	e.state.Status = status
	e.mu.Unlock()
}

func (e *execution) isCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *execution) cancel() {
	e.mu.Lock()
	e.cancelled = true
	if e.state.Status == model.ExecutionStatusExecuting {
		e.state.Status = model.ExecutionStatusCancelled
	}
	e.mu.Unlock()
}

// snapshot returns a copy safe to hand outside the engine.
func (e *execution) snapshot() model.ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.CompletedTasks = append([]model.CompletedTaskRecord(nil), e.state.CompletedTasks...)
	s.FailedTasks = append([]model.FailedTaskRecord(nil), e.state.FailedTasks...)
	s.RollbackPoints = append([]model.RollbackPoint(nil), e.state.RollbackPoints...)
	return s
}

// Engine is the risk-gated execution state machine. Distinct executions may
// run concurrently with no coordination between them; the engine does not
// detect two executions touching the same cloud resource (known gap). All
// bookkeeping is process-local: a crash mid-execution loses the rollback
// point history.
type Engine struct {
	mu         sync.RWMutex
	executions map[string]*execution
	closed     bool

	plans      PlanStore
	assessor   *risk.Assessor
	decisions  *risk.DecisionEngine
	executors  map[string]TaskExecutor
	rollback   *RollbackManager
	recovery   ErrorRecovery
	resilience *ResilienceManager
	monitor    *AdaptivePerformanceMonitor
	advisors   []Advisor
	recorder   ExecutionRecorder

	cfg Config
	log *zap.SugaredLogger
}

// New assembles an engine. recorder may be nil; advisors are optional.
func New(
	cfg Config,
	plans PlanStore,
	assessor *risk.Assessor,
	executors map[string]TaskExecutor,
	rollback *RollbackManager,
	recovery ErrorRecovery,
	resilience *ResilienceManager,
	monitor *AdaptivePerformanceMonitor,
	recorder ExecutionRecorder,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		executions: make(map[string]*execution),
		plans:      plans,
		assessor:   assessor,
		decisions:  risk.NewDecisionEngine(cfg.Decision),
		executors:  executors,
		rollback:   rollback,
		recovery:   recovery,
		resilience: resilience,
		monitor:    monitor,
		recorder:   recorder,
		cfg:        cfg,
		log:        logger.Sugar(),
	}
}

// RegisterAdvisor attaches an optional advisor. Advisor output is recorded in
// result metrics only and never gates execution.
func (e *Engine) RegisterAdvisor(a Advisor) {
	e.advisors = append(e.advisors, a)
}

// ExecuteRemediationPlan runs one plan end to end: fetch, assess, gate, then
// the sequential task loop. A rejected decision returns a structured result
// with a nil error; only a FatalPlanError (plan fetch or assessment failure)
// is returned as an error, after a best-effort emergency rollback.
func (e *Engine) ExecuteRemediationPlan(ctx context.Context, planID string, opts Options) (result *model.ExecutionResult, err error) {
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = e.cfg.DefaultTaskTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = e.cfg.DefaultMaxRetries
	}

	exec := &execution{state: model.ExecutionState{
		ExecutionID: uuid.NewString(),
		PlanID:      planID,
		StartTime:   time.Now(),
		Status:      model.ExecutionStatusInitializing,
	}}
	if err := e.register(exec); err != nil {
		return nil, err
	}
	start := exec.state.StartTime

	// The live registry entry is removed whatever the outcome; the returned
	// result is the only surviving snapshot, so it is built first.
	defer func() {
		e.unregister(exec.state.ExecutionID)
		if result != nil {
			e.persist(exec.state.ExecutionID, result, start)
		}
	}()

	e.log.Infow("starting remediation execution",
		"execution_id", exec.state.ExecutionID, "plan_id", planID, "force", opts.ForceExecution)

	plan, ferr := e.plans.GetPlan(ctx, planID)
	if ferr != nil {
		return nil, e.fatal(ctx, exec, "fetch", ferr)
	}
	if plan == nil {
		return nil, e.fatal(ctx, exec, "fetch", ErrPlanNotFound)
	}

	assessment, aerr := e.assessor.Assess(ctx, plan)
	if aerr != nil {
		return nil, e.fatal(ctx, exec, "assess", aerr)
	}
	exec.mu.Lock()
	exec.state.RiskAssessment = assessment
	exec.mu.Unlock()

	decision := e.decisions.Decide(assessment, opts.ForceExecution)
	if !decision.ShouldExecute {
		e.log.Infow("execution rejected by decision engine",
			"execution_id", exec.state.ExecutionID,
			"risk_score", assessment.OverallRiskScore,
			"requires_approval", decision.RequiresApproval,
			"requires_human_intervention", decision.RequiresHumanIntervention)
		return e.buildResult(exec, plan, model.ExecutionStatusRejected, decision.Reason, start, nil), nil
	}
	if decision.EnhancedMonitoring {
		e.log.Infow("enhanced monitoring enabled for execution",
			"execution_id", exec.state.ExecutionID, "risk_level", assessment.RiskLevel)
	}

	exec.setStatus(model.ExecutionStatusExecuting)
	advisories := e.runAdvisors(ctx, plan)

	suggestions := e.runTaskLoop(ctx, exec, plan, opts, start)
	if len(suggestions) > 0 {
		if advisories == nil {
			advisories = make(map[string]interface{})
		}
		advisories["performance"] = suggestions
	}

	status := e.terminalStatus(exec)
	exec.setStatus(status)

	e.log.Infow("execution finished",
		"execution_id", exec.state.ExecutionID, "status", status,
		"completed", len(exec.state.CompletedTasks), "failed", len(exec.state.FailedTasks))

	return e.buildResult(exec, plan, status, "", start, advisories), nil
}

// runTaskLoop drives the strictly sequential per-task flow: rollback point,
// resilient execute+verify, recovery, continuation policy, periodic sampling.
func (e *Engine) runTaskLoop(ctx context.Context, exec *execution, plan *model.RemediationPlan, opts Options, start time.Time) []string {
	var suggestions []string
	processed := 0
	for i := range plan.Tasks {
		task := plan.Tasks[i]

		if exec.isCancelled() || ctx.Err() != nil {
			exec.cancel()
			e.log.Warnw("execution cancelled before task",
				"execution_id", exec.state.ExecutionID, "task_id", task.ID)
			return suggestions
		}

		point := e.rollback.CreateRollbackPoint(ctx, exec.state.ExecutionID, task)
		exec.mu.Lock()
		exec.state.RollbackPoints = append(exec.state.RollbackPoints, point)
		exec.mu.Unlock()

		taskStart := time.Now()
		res, terr := e.runTask(ctx, task, opts)
		duration := time.Since(taskStart)

		stop := false
		if terr == nil {
			e.recordCompleted(exec, task.ID, res, duration, false)
		} else {
			outcome := e.recovery.AttemptRecovery(ctx, terr, RecoveryContext{
				TaskID:     task.ID,
				MaxRetries: 2,
				Retry: func(ctx context.Context) (*TaskResult, error) {
					return e.runTask(ctx, task, opts)
				},
			})
			if outcome.Recovered {
				e.log.Infow("task recovered",
					"execution_id", exec.state.ExecutionID, "task_id", task.ID, "strategy", outcome.Strategy)
				e.recordCompleted(exec, task.ID, outcome.Result, time.Since(taskStart), true)
			} else {
				e.log.Errorw("task failed",
					"execution_id", exec.state.ExecutionID, "task_id", task.ID, "error", terr)
				exec.mu.Lock()
				exec.state.FailedTasks = append(exec.state.FailedTasks, model.FailedTaskRecord{
					TaskID:   task.ID,
					Error:    terr.Error(),
					Duration: duration,
				})
				exec.mu.Unlock()
				stop = e.shouldStop(exec, task)
			}
		}

		processed++
		if e.monitor != nil && e.cfg.MonitorEvery > 0 && processed%e.cfg.MonitorEvery == 0 {
			suggestions = append(suggestions, e.monitor.Observe(exec.snapshot(), time.Since(start), opts.TaskTimeout)...)
		}

		if stop {
			e.log.Warnw("continuation policy stopped execution",
				"execution_id", exec.state.ExecutionID, "after_task", task.ID,
				"completed", len(exec.state.CompletedTasks), "failed", len(exec.state.FailedTasks))
			return suggestions
		}
	}
	return suggestions
}

// runTask executes a task through the resilience wrapper and verifies the
// result with the executor's type-specific predicate.
func (e *Engine) runTask(ctx context.Context, task model.RemediationTask, opts Options) (*TaskResult, error) {
	executor, ok := e.executors[task.Type]
	if !ok {
		return nil, fmt.Errorf("no executor registered for task type %q", task.Type)
	}

	res, err := e.resilience.Run(ctx, task.Type, func(ctx context.Context) (*TaskResult, error) {
		return executor.Execute(ctx, task)
	}, RunOptions{
		MaxRetries:        opts.MaxRetries,
		UseCircuitBreaker: true,
		Timeout:           opts.TaskTimeout,
	})
	if err != nil {
		return nil, err
	}
	if !executor.Verify(res) {
		return res, fmt.Errorf("verification failed for task %s (%s)", task.ID, task.Type)
	}
	return res, nil
}

func (e *Engine) recordCompleted(exec *execution, taskID string, res *TaskResult, duration time.Duration, recovered bool) {
	exec.mu.Lock()
	exec.state.CompletedTasks = append(exec.state.CompletedTasks, model.CompletedTaskRecord{
		TaskID:    taskID,
		Result:    res.AsMap(),
		Duration:  duration,
		Recovered: recovered,
	})
	exec.mu.Unlock()
}

// shouldStop applies the continuation policy after an unrecovered failure:
// stop when the running failure rate exceeds the limit, or when the failed
// task itself was critical or high priority.
func (e *Engine) shouldStop(exec *execution, failed model.RemediationTask) bool {
	exec.mu.Lock()
	completed := len(exec.state.CompletedTasks)
	failedCount := len(exec.state.FailedTasks)
	exec.mu.Unlock()

	if failedCount > 0 {
		rate := float64(failedCount) / float64(failedCount+completed)
		if rate > e.cfg.FailureRateLimit {
			return true
		}
	}
	return failed.Criticality == model.CriticalityCritical || failed.Priority == "high"
}

// terminalStatus classifies a finished loop: completed with zero failures,
// partial with successes and failures, failed with zero successes. A
// cancelled execution keeps its status.
func (e *Engine) terminalStatus(exec *execution) string {
	exec.mu.Lock()
	defer exec.mu.Unlock()

	if exec.state.Status == model.ExecutionStatusCancelled {
		return model.ExecutionStatusCancelled
	}
	completed := len(exec.state.CompletedTasks)
	failed := len(exec.state.FailedTasks)
	switch {
	case failed == 0:
		return model.ExecutionStatusCompleted
	case completed > 0:
		return model.ExecutionStatusPartial
	default:
		return model.ExecutionStatusFailed
	}
}

// fatal handles the only escaping error class: best-effort emergency
// rollback of whatever points exist, then a typed error for the caller.
func (e *Engine) fatal(ctx context.Context, exec *execution, op string, cause error) error {
	e.log.Errorw("fatal plan error",
		"execution_id", exec.state.ExecutionID, "plan_id", exec.state.PlanID, "op", op, "error", cause)

	exec.setStatus(model.ExecutionStatusFailed)
	e.rollback.PerformEmergencyRollback(context.WithoutCancel(ctx), exec.state.ExecutionID, exec.snapshot().RollbackPoints)

	return &FatalPlanError{PlanID: exec.state.PlanID, Op: op, Err: cause}
}

func (e *Engine) runAdvisors(ctx context.Context, plan *model.RemediationPlan) map[string]interface{} {
	if len(e.advisors) == 0 {
		return nil
	}
	annotations := make(map[string]interface{})
	for _, advisor := range e.advisors {
		note, err := advisor.Advise(ctx, plan)
		if err != nil {
			e.log.Warnw("advisor failed", "advisor", advisor.Name(), "error", err)
			continue
		}
		if len(note) > 0 {
			annotations[advisor.Name()] = note
		}
	}
	if len(annotations) == 0 {
		return nil
	}
	return annotations
}

func (e *Engine) buildResult(exec *execution, plan *model.RemediationPlan, status, reason string, start time.Time, advisories map[string]interface{}) *model.ExecutionResult {
	snap := exec.snapshot()

	succeeded := len(snap.CompletedTasks)
	failed := len(snap.FailedTasks)
	attempted := succeeded + failed
	recovered := 0
	for _, rec := range snap.CompletedTasks {
		if rec.Recovered {
			recovered++
		}
	}
	successRate := 1.0
	if attempted > 0 {
		successRate = float64(succeeded) / float64(attempted)
	}

	return &model.ExecutionResult{
		ExecutionID:    snap.ExecutionID,
		PlanID:         snap.PlanID,
		Status:         status,
		Reason:         reason,
		CompletedTasks: snap.CompletedTasks,
		FailedTasks:    snap.FailedTasks,
		TotalDuration:  time.Since(start),
		RiskAssessment: snap.RiskAssessment,
		Metrics: model.ExecutionMetrics{
			TotalTasks:     len(plan.Tasks),
			TasksAttempted: attempted,
			TasksSucceeded: succeeded,
			TasksFailed:    failed,
			TasksRecovered: recovered,
			SuccessRate:    successRate,
			Advisories:     advisories,
		},
	}
}

func (e *Engine) persist(executionID string, result *model.ExecutionResult, start time.Time) {
	if e.recorder == nil {
		return
	}
	rec := model.ExecutionRecord{
		ObjType:        "Execution",
		ExecutionID:    executionID,
		PlanID:         result.PlanID,
		Status:         result.Status,
		StartTime:      start,
		FinishedAt:     start.Add(result.TotalDuration),
		TotalDuration:  result.TotalDuration,
		TasksSucceeded: result.Metrics.TasksSucceeded,
		TasksFailed:    result.Metrics.TasksFailed,
		Metrics:        result.Metrics,
	}
	if result.RiskAssessment != nil {
		rec.RiskLevel = result.RiskAssessment.RiskLevel
		rec.RiskScore = result.RiskAssessment.OverallRiskScore
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.recorder.SaveExecution(ctx, rec); err != nil {
		e.log.Warnw("failed to persist execution record", "execution_id", executionID, "error", err)
	}
}

func (e *Engine) register(exec *execution) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	e.executions[exec.state.ExecutionID] = exec
	return nil
}

func (e *Engine) unregister(executionID string) {
	e.mu.Lock()
	delete(e.executions, executionID)
	e.mu.Unlock()
}

// GetExecutionStatus returns a snapshot of a live execution. Valid only while
// the execution is registered: once a run ends, its state survives solely in
// the returned result and the execution history collection.
func (e *Engine) GetExecutionStatus(executionID string) (model.ExecutionState, bool) {
	e.mu.RLock()
	exec, ok := e.executions[executionID]
	e.mu.RUnlock()
	if !ok {
		return model.ExecutionState{}, false
	}
	return exec.snapshot(), true
}

// Shutdown marks every in-flight execution cancelled and refuses new runs.
// Cancellation is cooperative: an in-flight external process finishes its
// current task before the loop observes the flag.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.closed = true
	inflight := len(e.executions)
	for _, exec := range e.executions {
		exec.cancel()
	}
	e.mu.Unlock()

	e.log.Infow("engine shut down", "cancelled_executions", inflight)
}
