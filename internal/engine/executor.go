package engine

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudmend/cloudmend-backend/model"
)

// TaskResult is the normalized output of one task execution attempt.
type TaskResult struct {
	Status         string                 `json:"status"`
	Output         string                 `json:"output,omitempty"`
	ResourcesAdded int                    `json:"resources_added,omitempty"`
	StackStatus    string                 `json:"stack_status,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

// AsMap flattens a result into the map shape stored on completed-task records.
func (r *TaskResult) AsMap() map[string]interface{} {
	if r == nil {
		return nil
	}
	m := map[string]interface{}{"status": r.Status}
	if r.Output != "" {
		m["output"] = r.Output
	}
	if r.ResourcesAdded != 0 {
		m["resources_added"] = r.ResourcesAdded
	}
	if r.StackStatus != "" {
		m["stack_status"] = r.StackStatus
	}
	for k, v := range r.Details {
		m[k] = v
	}
	return m
}

// TaskExecutor executes, verifies and rolls back tasks of one type.
type TaskExecutor interface {
	// Execute applies the task's change.
	Execute(ctx context.Context, task model.RemediationTask) (*TaskResult, error)
	// Verify checks that a non-error result actually took effect.
	Verify(result *TaskResult) bool
	// RollbackStrategy describes how this executor's changes are undone.
	RollbackStrategy() model.RollbackStrategy
	// Rollback undoes the change recorded in a rollback point.
	Rollback(ctx context.Context, point model.RollbackPoint) error
}

// CommandRunner abstracts subprocess execution so executors can be unit
// tested without spawning terraform or the AWS CLI.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

// Run executes the command in dir and returns combined output.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s failed: %w", name, err)
	}
	return string(out), nil
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// ---------------------------------------------------------------------------
// Terraform
// ---------------------------------------------------------------------------

var applySummaryRe = regexp.MustCompile(`Apply complete! Resources: (\d+) added`)

// TerraformExecutor runs terraform apply in the working directory named by
// the task parameters.
type TerraformExecutor struct {
	Runner CommandRunner
}

// Execute runs terraform apply and extracts the added-resource count from the
// apply summary.
func (e *TerraformExecutor) Execute(ctx context.Context, task model.RemediationTask) (*TaskResult, error) {
	dir := stringParam(task.Parameters, "working_dir")
	out, err := e.Runner.Run(ctx, dir, "terraform", "apply", "-auto-approve", "-no-color")
	if err != nil {
		return nil, err
	}

	added := 0
	if m := applySummaryRe.FindStringSubmatch(out); m != nil {
		added, _ = strconv.Atoi(m[1])
	}
	return &TaskResult{Status: "applied", Output: out, ResourcesAdded: added}, nil
}

// Verify requires the apply to have created at least one resource.
func (e *TerraformExecutor) Verify(result *TaskResult) bool {
	return result != nil && result.ResourcesAdded > 0
}

// RollbackStrategy returns the automated terraform-destroy strategy.
func (e *TerraformExecutor) RollbackStrategy() model.RollbackStrategy {
	return model.RollbackStrategy{Type: model.RollbackTerraformDestroy, Automated: true}
}

// Rollback destroys the resources created from the rollback point's working
// directory.
func (e *TerraformExecutor) Rollback(ctx context.Context, point model.RollbackPoint) error {
	dir, _ := point.PreExecutionState["working_dir"].(string)
	_, err := e.Runner.Run(ctx, dir, "terraform", "destroy", "-auto-approve", "-no-color")
	return err
}

// ---------------------------------------------------------------------------
// CloudFormation
// ---------------------------------------------------------------------------

// CloudFormationExecutor deploys stacks through the aws CLI.
type CloudFormationExecutor struct {
	Runner CommandRunner
}

// Execute deploys the stack named in the task parameters.
func (e *CloudFormationExecutor) Execute(ctx context.Context, task model.RemediationTask) (*TaskResult, error) {
	stack := stringParam(task.Parameters, "stack_name")
	template := stringParam(task.Parameters, "template_file")
	if stack == "" {
		return nil, fmt.Errorf("cloudformation task %s has no stack_name parameter", task.ID)
	}

	out, err := e.Runner.Run(ctx, "", "aws", "cloudformation", "deploy",
		"--stack-name", stack, "--template-file", template, "--no-fail-on-empty-changeset")
	if err != nil {
		return nil, err
	}

	status, serr := e.Runner.Run(ctx, "", "aws", "cloudformation", "describe-stacks",
		"--stack-name", stack, "--query", "Stacks[0].StackStatus", "--output", "text")
	if serr != nil {
		return nil, serr
	}

	return &TaskResult{
		Status:      "deployed",
		Output:      out,
		StackStatus: strings.TrimSpace(status),
		Details:     map[string]interface{}{"stack_name": stack},
	}, nil
}

// Verify requires the stack to have reached CREATE_COMPLETE.
func (e *CloudFormationExecutor) Verify(result *TaskResult) bool {
	return result != nil && result.StackStatus == "CREATE_COMPLETE"
}

// RollbackStrategy returns the automated stack-delete strategy.
func (e *CloudFormationExecutor) RollbackStrategy() model.RollbackStrategy {
	return model.RollbackStrategy{Type: model.RollbackStackDelete, Automated: true}
}

// Rollback deletes the stack recorded in the rollback point.
func (e *CloudFormationExecutor) Rollback(ctx context.Context, point model.RollbackPoint) error {
	stack, _ := point.PreExecutionState["stack_name"].(string)
	if stack == "" {
		return fmt.Errorf("rollback point %s has no stack_name", point.ID)
	}
	_, err := e.Runner.Run(ctx, "", "aws", "cloudformation", "delete-stack", "--stack-name", stack)
	return err
}

// ---------------------------------------------------------------------------
// Boto3-style API calls
// ---------------------------------------------------------------------------

// APIInvoker executes a named cloud API action with parameters. The
// production implementation lives in the cloud package over the AWS SDK.
type APIInvoker interface {
	Invoke(ctx context.Context, action string, params map[string]interface{}) (string, error)
}

// Boto3Executor performs direct API-call remediations through an APIInvoker.
type Boto3Executor struct {
	Invoker APIInvoker
}

// Execute invokes the action named in the task parameters.
func (e *Boto3Executor) Execute(ctx context.Context, task model.RemediationTask) (*TaskResult, error) {
	action := stringParam(task.Parameters, "action")
	if action == "" {
		return nil, fmt.Errorf("boto3 task %s has no action parameter", task.ID)
	}
	out, err := e.Invoker.Invoke(ctx, action, task.Parameters)
	if err != nil {
		return nil, err
	}
	return &TaskResult{Status: "invoked", Output: out, Details: map[string]interface{}{"action": action}}, nil
}

// Verify fails when the call output reports an error.
func (e *Boto3Executor) Verify(result *TaskResult) bool {
	return result != nil && !strings.Contains(strings.ToUpper(result.Output), "ERROR")
}

// RollbackStrategy returns the reverse-script strategy; reversal needs an
// explicit inverse action, so it is not flagged automated.
func (e *Boto3Executor) RollbackStrategy() model.RollbackStrategy {
	return model.RollbackStrategy{Type: model.RollbackReverseScript, Automated: false}
}

// Rollback invokes the inverse action recorded in the rollback point, when
// one was captured.
func (e *Boto3Executor) Rollback(ctx context.Context, point model.RollbackPoint) error {
	action, _ := point.PreExecutionState["rollback_action"].(string)
	if action == "" {
		return fmt.Errorf("rollback point %s has no rollback_action", point.ID)
	}
	_, err := e.Invoker.Invoke(ctx, action, point.PreExecutionState)
	return err
}

// ---------------------------------------------------------------------------
// Manual
// ---------------------------------------------------------------------------

// ManualExecutor records manual remediation steps without touching any
// resource. Manual tasks always verify.
type ManualExecutor struct{}

// Execute returns the task's instructions as a pending manual action.
func (e *ManualExecutor) Execute(_ context.Context, task model.RemediationTask) (*TaskResult, error) {
	return &TaskResult{
		Status: "manual-pending",
		Output: stringParam(task.Parameters, "instructions"),
	}, nil
}

// Verify always succeeds: completion is tracked by a human.
func (e *ManualExecutor) Verify(result *TaskResult) bool {
	return result != nil
}

// RollbackStrategy returns the non-automated manual-rollback strategy.
func (e *ManualExecutor) RollbackStrategy() model.RollbackStrategy {
	return model.RollbackStrategy{Type: model.RollbackManual, Automated: false}
}

// Rollback is a no-op; undoing a manual step is itself a manual step.
func (e *ManualExecutor) Rollback(_ context.Context, _ model.RollbackPoint) error {
	return nil
}
