package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
	"github.com/google/uuid"

	"github.com/cloudmend/cloudmend-backend/internal/engine"
	"github.com/cloudmend/cloudmend-backend/model"
)

// Store wraps the database connection with the typed queries used by the
// risk scorer, the execution engine and the API layers. It satisfies
// engine.PlanStore, engine.ExecutionRecorder, risk.AssetResolver and
// risk.ScoreWriter.
type Store struct {
	conn DBConnection
}

// NewStore creates a store over an initialized connection.
func NewStore(conn DBConnection) *Store {
	return &Store{conn: conn}
}

// GetPlan fetches a remediation plan by its document key.
func (s *Store) GetPlan(ctx context.Context, planID string) (*model.RemediationPlan, error) {
	var plan model.RemediationPlan
	_, err := s.conn.Collections["remediation_plan"].ReadDocument(ctx, planID, &plan)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, fmt.Errorf("plan %s: %w", planID, engine.ErrPlanNotFound)
		}
		return nil, err
	}
	return &plan, nil
}

// SavePlan stores a plan and links it to its finding through the
// finding2plan edge collection.
func (s *Store) SavePlan(ctx context.Context, plan *model.RemediationPlan) (string, error) {
	if plan.Key == "" {
		plan.Key = uuid.NewString()
	}
	plan.ObjType = "RemediationPlan"
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	if _, err := s.conn.Collections["remediation_plan"].CreateDocument(ctx, plan); err != nil {
		return "", err
	}

	if plan.FindingID != "" {
		findingKey, err := s.findingKeyByID(ctx, plan.FindingID)
		if err == nil && findingKey != "" {
			edge := map[string]interface{}{
				"_from": "finding/" + findingKey,
				"_to":   "remediation_plan/" + plan.Key,
			}
			if _, err := s.conn.Collections["finding2plan"].CreateDocument(ctx, edge); err != nil {
				logger.Sugar().Warnf("Failed to link plan %s to finding %s: %v", plan.Key, plan.FindingID, err)
			}
		}
	}

	return plan.Key, nil
}

// UpsertFinding inserts a finding or refreshes an existing one matched by
// finding_id. Returns the document key.
func (s *Store) UpsertFinding(ctx context.Context, f model.Finding) (string, error) {
	f.ObjType = "Finding"
	if f.Status == "" {
		f.Status = "open"
	}

	query := `
		UPSERT { finding_id: @finding_id }
			INSERT @doc
			UPDATE @doc
			IN finding
			RETURN NEW._key
	`
	bindVars := map[string]interface{}{
		"finding_id": f.FindingID,
		"doc":        f,
	}

	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	var key string
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &key); err != nil {
			return "", err
		}
	}

	// Maintain the finding -> asset edge for blast-radius traversals.
	if key != "" && f.Resource.ARN != "" {
		s.linkFindingToAsset(ctx, key, f.Resource.ARN)
	}

	return key, nil
}

func (s *Store) linkFindingToAsset(ctx context.Context, findingKey, arn string) {
	query := `
		LET asset = FIRST(FOR a IN asset FILTER a.arn == @arn LIMIT 1 RETURN a)
		FILTER asset != null
		UPSERT { _from: @from, _to: CONCAT("asset/", asset._key) }
			INSERT { _from: @from, _to: CONCAT("asset/", asset._key) }
			UPDATE {}
			IN finding2asset
	`
	bindVars := map[string]interface{}{
		"arn":  arn,
		"from": "finding/" + findingKey,
	}
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		logger.Sugar().Warnf("Failed to link finding %s to asset %s: %v", findingKey, arn, err)
		return
	}
	cursor.Close()
}

func (s *Store) findingKeyByID(ctx context.Context, findingID string) (string, error) {
	query := `
		FOR f IN finding
			FILTER f.finding_id == @finding_id
			LIMIT 1
			RETURN f._key
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"finding_id": findingID},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var key string
		if _, err := cursor.ReadDocument(ctx, &key); err != nil {
			return "", err
		}
		return key, nil
	}
	return "", nil
}

// GetFinding fetches a finding by document key.
func (s *Store) GetFinding(ctx context.Context, key string) (*model.Finding, error) {
	var f model.Finding
	if _, err := s.conn.Collections["finding"].ReadDocument(ctx, key, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFindingsByPriority returns open findings ordered by risk score
// descending, oldest first on ties.
func (s *Store) ListFindingsByPriority(ctx context.Context, limit int) ([]model.Finding, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		FOR f IN finding
			FILTER f.status == "open"
			SORT f.risk_score DESC, f.detected_at ASC
			LIMIT @limit
			RETURN f
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var findings []model.Finding
	for cursor.HasMore() {
		var f model.Finding
		if _, err := cursor.ReadDocument(ctx, &f); err == nil {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// ListOpenFindings returns every open finding, used by the batch rescorer.
func (s *Store) ListOpenFindings(ctx context.Context) ([]model.Finding, error) {
	query := `
		FOR f IN finding
			FILTER f.status == "open"
			RETURN f
	`
	cursor, err := s.conn.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var findings []model.Finding
	for cursor.HasMore() {
		var f model.Finding
		if _, err := cursor.ReadDocument(ctx, &f); err == nil {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// UpsertAsset inserts or refreshes an asset matched by ARN.
func (s *Store) UpsertAsset(ctx context.Context, a model.Asset) (string, error) {
	a.ObjType = "Asset"

	query := `
		UPSERT { arn: @arn }
			INSERT @doc
			UPDATE @doc
			IN asset
			RETURN NEW._key
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"arn": a.ARN, "doc": a},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	var key string
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &key); err != nil {
			return "", err
		}
	}
	return key, nil
}

// LinkAssetDependency records that fromARN depends on toARN in the asset
// graph.
func (s *Store) LinkAssetDependency(ctx context.Context, fromARN, toARN string) error {
	query := `
		LET from = FIRST(FOR a IN asset FILTER a.arn == @from_arn LIMIT 1 RETURN a)
		LET to = FIRST(FOR a IN asset FILTER a.arn == @to_arn LIMIT 1 RETURN a)
		FILTER from != null AND to != null
		UPSERT { _from: CONCAT("asset/", from._key), _to: CONCAT("asset/", to._key) }
			INSERT { _from: CONCAT("asset/", from._key), _to: CONCAT("asset/", to._key) }
			UPDATE {}
			IN asset2asset
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"from_arn": fromARN, "to_arn": toARN},
	})
	if err != nil {
		return err
	}
	cursor.Close()
	return nil
}

// AssetForFinding resolves the asset behind a finding's resource ARN together
// with its dependency fan-out from the asset graph. A finding on a resource
// with no asset document scores against a zero-value asset rather than
// failing.
func (s *Store) AssetForFinding(ctx context.Context, f model.Finding) (model.Asset, model.AssetGraphStats, error) {
	query := `
		LET a = FIRST(FOR x IN asset FILTER x.arn == @arn LIMIT 1 RETURN x)
		LET deps = a == null ? 0 : LENGTH(
			FOR v IN 1..1 OUTBOUND a._id asset2asset RETURN 1
		)
		LET dependents = a == null ? [] : (
			FOR v IN 1..1 INBOUND a._id asset2asset RETURN v.criticality
		)
		RETURN {
			asset: a,
			dependency_count: deps,
			dependent_count: LENGTH(dependents),
			critical_dependent_count: LENGTH(
				FOR c IN dependents FILTER c == "critical" RETURN 1
			)
		}
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"arn": f.Resource.ARN},
	})
	if err != nil {
		return model.Asset{}, model.AssetGraphStats{}, err
	}
	defer cursor.Close()

	var row struct {
		Asset                  *model.Asset `json:"asset"`
		DependencyCount        int          `json:"dependency_count"`
		DependentCount         int          `json:"dependent_count"`
		CriticalDependentCount int          `json:"critical_dependent_count"`
	}
	if !cursor.HasMore() {
		return model.Asset{}, model.AssetGraphStats{}, errors.New("asset lookup returned no rows")
	}
	if _, err := cursor.ReadDocument(ctx, &row); err != nil {
		return model.Asset{}, model.AssetGraphStats{}, err
	}

	asset := model.Asset{ARN: f.Resource.ARN, Type: f.Resource.Type}
	if row.Asset != nil {
		asset = *row.Asset
	}
	stats := model.AssetGraphStats{
		DependencyCount:        row.DependencyCount,
		DependentCount:         row.DependentCount,
		CriticalDependentCount: row.CriticalDependentCount,
	}
	return asset, stats, nil
}

// WriteScore persists a recomputed finding risk score.
func (s *Store) WriteScore(ctx context.Context, findingKey string, score model.FindingRiskScore, scoredAt time.Time) error {
	patch := map[string]interface{}{
		"risk_score":   score.Total,
		"blast_radius": score.BlastRadius,
		"scored_at":    scoredAt,
	}
	_, err := s.conn.Collections["finding"].UpdateDocument(ctx, findingKey, patch)
	return err
}

// SaveExecution stores a terminal execution record.
func (s *Store) SaveExecution(ctx context.Context, rec model.ExecutionRecord) error {
	if rec.Key == "" {
		rec.Key = rec.ExecutionID
	}
	rec.ObjType = "Execution"
	_, err := s.conn.Collections["execution"].CreateDocument(ctx, rec)
	return err
}

// ListExecutions returns the most recent execution records, newest first.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]model.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		FOR e IN execution
			SORT e.start_time DESC
			LIMIT @limit
			RETURN e
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []model.ExecutionRecord
	for cursor.HasMore() {
		var rec model.ExecutionRecord
		if _, err := cursor.ReadDocument(ctx, &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SeverityDistribution counts open findings per severity.
func (s *Store) SeverityDistribution(ctx context.Context) (map[string]int, error) {
	query := `
		FOR f IN finding
			FILTER f.status == "open"
			COLLECT severity = f.severity WITH COUNT INTO count
			RETURN { severity: severity, count: count }
	`
	cursor, err := s.conn.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	dist := map[string]int{}
	for cursor.HasMore() {
		var row struct {
			Severity string `json:"severity"`
			Count    int    `json:"count"`
		}
		if _, err := cursor.ReadDocument(ctx, &row); err == nil {
			dist[row.Severity] = row.Count
		}
	}
	return dist, nil
}

// TopBlastRadius returns the open findings with the widest blast radius.
func (s *Store) TopBlastRadius(ctx context.Context, limit int) ([]model.Finding, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		FOR f IN finding
			FILTER f.status == "open"
			SORT f.blast_radius DESC
			LIMIT @limit
			RETURN f
	`
	cursor, err := s.conn.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var findings []model.Finding
	for cursor.HasMore() {
		var f model.Finding
		if _, err := cursor.ReadDocument(ctx, &f); err == nil {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// ExecutionStats aggregates the execution history: counts per status and the
// overall task success rate.
func (s *Store) ExecutionStats(ctx context.Context) (map[string]interface{}, error) {
	query := `
		LET byStatus = (
			FOR e IN execution
				COLLECT status = e.status WITH COUNT INTO count
				RETURN { status: status, count: count }
		)
		LET succeeded = SUM(FOR e IN execution RETURN e.tasks_succeeded)
		LET failed = SUM(FOR e IN execution RETURN e.tasks_failed)
		RETURN {
			by_status: byStatus,
			tasks_succeeded: succeeded,
			tasks_failed: failed
		}
	`
	cursor, err := s.conn.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var row struct {
		ByStatus []struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		} `json:"by_status"`
		TasksSucceeded float64 `json:"tasks_succeeded"`
		TasksFailed    float64 `json:"tasks_failed"`
	}
	if !cursor.HasMore() {
		return map[string]interface{}{}, nil
	}
	if _, err := cursor.ReadDocument(ctx, &row); err != nil {
		return nil, err
	}

	byStatus := map[string]int{}
	for _, s := range row.ByStatus {
		byStatus[s.Status] = s.Count
	}
	successRate := 0.0
	if total := row.TasksSucceeded + row.TasksFailed; total > 0 {
		successRate = row.TasksSucceeded / total
	}

	return map[string]interface{}{
		"by_status":         byStatus,
		"tasks_succeeded":   int(row.TasksSucceeded),
		"tasks_failed":      int(row.TasksFailed),
		"task_success_rate": successRate,
	}, nil
}
