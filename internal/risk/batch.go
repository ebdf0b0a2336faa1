package risk

import (
	"context"
	"sync"
	"time"

	"github.com/cloudmend/cloudmend-backend/model"
	"go.uber.org/zap"
)

// AssetResolver looks up the asset and graph fan-out behind a finding.
type AssetResolver interface {
	AssetForFinding(ctx context.Context, f model.Finding) (model.Asset, model.AssetGraphStats, error)
}

// ScoreWriter persists a recomputed finding score.
type ScoreWriter interface {
	WriteScore(ctx context.Context, findingKey string, score model.FindingRiskScore, scoredAt time.Time) error
}

// BatchFailure records one finding that could not be rescored. A failure
// never aborts the sibling findings in its batch.
type BatchFailure struct {
	FindingKey string `json:"finding_key"`
	Error      string `json:"error"`
}

// BatchResult summarizes a batch rescoring run.
type BatchResult struct {
	Total    int            `json:"total"`
	Scored   int            `json:"scored"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// BatchScorer recomputes risk scores across many findings. Findings are
// partitioned into fixed-size batches; up to MaxConcurrency batches run at
// once and findings within a batch are scored in parallel.
type BatchScorer struct {
	resolver       AssetResolver
	writer         ScoreWriter
	BatchSize      int
	MaxConcurrency int
	log            *zap.SugaredLogger
}

// NewBatchScorer creates a batch scorer with the given partition size and
// concurrency limit. Non-positive values fall back to sane defaults.
func NewBatchScorer(resolver AssetResolver, writer ScoreWriter, batchSize, maxConcurrency int, logger *zap.Logger) *BatchScorer {
	if batchSize <= 0 {
		batchSize = 25
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &BatchScorer{
		resolver:       resolver,
		writer:         writer,
		BatchSize:      batchSize,
		MaxConcurrency: maxConcurrency,
		log:            logger.Sugar(),
	}
}

// Rescore scores every finding and persists the results. One finding's error
// is isolated to that finding; the run always processes the full input.
func (b *BatchScorer) Rescore(ctx context.Context, findings []model.Finding) BatchResult {
	now := time.Now()
	result := BatchResult{Total: len(findings)}
	if len(findings) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, b.MaxConcurrency)

	for start := 0; start < len(findings); start += b.BatchSize {
		end := start + b.BatchSize
		if end > len(findings) {
			end = len(findings)
		}
		batch := findings[start:end]

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []model.Finding) {
			defer wg.Done()
			defer func() { <-sem }()
			b.scoreBatch(ctx, batch, now, &mu, &result)
		}(batch)
	}

	wg.Wait()

	b.log.Infow("batch rescore finished",
		"total", result.Total, "scored", result.Scored, "failed", len(result.Failures))
	return result
}

func (b *BatchScorer) scoreBatch(ctx context.Context, batch []model.Finding, now time.Time, mu *sync.Mutex, result *BatchResult) {
	var wg sync.WaitGroup
	for _, f := range batch {
		wg.Add(1)
		go func(f model.Finding) {
			defer wg.Done()
			if err := b.scoreOne(ctx, f, now); err != nil {
				b.log.Warnw("rescore failed", "finding", f.Key, "error", err)
				mu.Lock()
				result.Failures = append(result.Failures, BatchFailure{FindingKey: f.Key, Error: err.Error()})
				mu.Unlock()
				return
			}
			mu.Lock()
			result.Scored++
			mu.Unlock()
		}(f)
	}
	wg.Wait()
}

func (b *BatchScorer) scoreOne(ctx context.Context, f model.Finding, now time.Time) error {
	asset, graph, err := b.resolver.AssetForFinding(ctx, f)
	if err != nil {
		return err
	}
	score := Score(f, asset, graph, now)
	return b.writer.WriteScore(ctx, f.Key, score, now)
}
