// Package audit writes score calculation records to Elasticsearch. The audit
// trail is observational: an indexing failure is logged and counted but never
// fails the calculation that produced the record.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/scoring/engine"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// Record is one audited score calculation.
type Record struct {
	ID          string            `json:"id"`
	ApplicantID string            `json:"applicantId"`
	Path        string            `json:"path"`
	TotalScore  float64           `json:"totalScore"`
	MaxScore    float64           `json:"maxScore"`
	BaseScore   float64           `json:"baseScore,omitempty"`
	Bonus       float64           `json:"bonus,omitempty"`
	Percentage  float64           `json:"percentage,omitempty"`
	Breakdown   *engine.Breakdown `json:"breakdown,omitempty"`
	Factors     int               `json:"factors,omitempty"`
	DurationMs  int64             `json:"durationMs"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Indexer writes audit records to a single Elasticsearch index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log,
	}
}

// Index writes one record. The document ID is generated here when the record
// carries none.
func (i *Indexer) Index(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index audit record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index audit record: %s", res.Status())
	}
	return nil
}

// Store indexes a record and swallows the failure. This is the call sites'
// entry point: scoring never fails because the audit trail is down.
func (i *Indexer) Store(ctx context.Context, record Record) {
	if i == nil || i.client == nil {
		return
	}
	if err := i.Index(ctx, record); err != nil {
		i.logger.Warn("audit record not indexed", map[string]interface{}{
			"applicantId": record.ApplicantID,
			"path":        record.Path,
			"error":       err.Error(),
		})
		metrics.ScoringPasses.WithLabelValues(record.Path, "audit_failed").Inc()
	}
}

// FromFactorScore builds an audit record for the configurable factor path.
func FromFactorScore(applicantID string, score engine.FactorScore, took time.Duration) Record {
	return Record{
		ApplicantID: applicantID,
		Path:        "factor",
		TotalScore:  score.TotalScore,
		MaxScore:    score.MaxScore,
		BaseScore:   score.BaseScore,
		Bonus:       score.Bonus,
		Breakdown:   &score.Breakdown,
		Factors:     len(score.Results),
		DurationMs:  took.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}
}
