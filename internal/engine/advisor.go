package engine

import (
	"context"

	"github.com/cloudmend/cloudmend-backend/model"
)

// Advisor optionally annotates an execution with advisory metadata, e.g.
// predicted durations or historical failure hints. Advisors must never be
// load-bearing: the engine records their annotations in the result metrics
// and logs their failures, but no advisor output can change the execution
// decision or the task loop.
type Advisor interface {
	Name() string
	Advise(ctx context.Context, plan *model.RemediationPlan) (map[string]interface{}, error)
}
