package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// ScoringService runs every registered detector over one input and folds the
// findings into a verdict.
// ScoringService 对单个输入运行所有已注册检测器，并将结论折叠为整体结论。
type ScoringService interface {
	// Score analyzes the text. It never fails: a detector that errors or
	// panics contributes a zero-score finding marked detector_failed, and
	// aggregation proceeds over whatever the detectors produced.
	// Score 分析文本。它绝不失败：出错或崩溃的检测器贡献一条标记为
	// detector_failed 的零分结论，聚合基于检测器产出的结果继续进行。
	Score(ctx context.Context, text string, overrides *models.ScoringOverrides) *models.RiskVerdict
}

type scoringService struct {
	detectors  []Detector
	aggregator RiskAggregator
	metrics    Metrics
	log        logger.Logger
}

// NewScoringService wires the detector set to the aggregator.
func NewScoringService(detectors []Detector, aggregator RiskAggregator, metrics Metrics, log logger.Logger) ScoringService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &scoringService{
		detectors:  detectors,
		aggregator: aggregator,
		metrics:    metrics,
		log:        log.WithComponent("scoring_service"),
	}
}

// Score implements ScoringService. Detectors are pure and share no mutable
// state, so they run in parallel; each goroutine writes only its own slot of
// the results slice.
func (s *scoringService) Score(ctx context.Context, text string, overrides *models.ScoringOverrides) *models.RiskVerdict {
	findings := make([]models.RiskFinding, len(s.detectors))

	var wg sync.WaitGroup
	wg.Add(len(s.detectors))
	for i, det := range s.detectors {
		go func(i int, det Detector) {
			defer wg.Done()
			findings[i] = s.runDetector(ctx, det, text)
		}(i, det)
	}
	wg.Wait()

	return s.aggregator.Aggregate(ctx, findings, overrides)
}

// runDetector shields the pipeline from a misbehaving detector: errors and
// panics become an explicit failed finding instead of aborting the request.
func (s *scoringService) runDetector(ctx context.Context, det Detector, text string) (finding models.RiskFinding) {
	category := det.Category()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "detector panicked", fmt.Errorf("panic: %v", r),
				logger.String("category", string(category)),
			)
			finding = failedFinding(category, fmt.Sprintf("panic: %v", r))
		}
		if s.metrics != nil {
			s.metrics.RecordDetector(string(category), time.Since(start), finding.Failed)
		}
	}()

	result, err := det.Detect(ctx, text)
	if err != nil {
		s.log.Error(ctx, "detector failed", err,
			logger.String("category", string(category)),
		)
		return failedFinding(category, err.Error())
	}
	if result == nil {
		return failedFinding(category, "detector returned no finding")
	}
	return *result
}

func failedFinding(category models.Category, reason string) models.RiskFinding {
	return models.RiskFinding{
		Category:      category,
		Score:         0,
		Confidence:    0,
		Failed:        true,
		FailureReason: reason,
	}
}

