// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"bgverify-jobs/internal/common/errors"
	"bgverify-jobs/internal/common/logger"
	"bgverify-jobs/internal/models"
	"bgverify-jobs/internal/tat"
)

// RunIndexer ships notification run reports to Elasticsearch so ops can
// query delay history without touching the primary database.
type RunIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewRunIndexer(client *elasticsearch.Client, index string, log logger.Logger) *RunIndexer {
	return &RunIndexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "run-indexer"}),
	}
}

type runDocument struct {
	RunID        string        `json:"run_id"`
	RunAt        time.Time     `json:"run_at"`
	Status       string        `json:"status"`
	Customers    int           `json:"customers"`
	Branches     int           `json:"branches"`
	Applications int           `json:"applications"`
	Error        string        `json:"error,omitempty"`
	Rows         []rowDocument `json:"rows,omitempty"`
}

type rowDocument struct {
	Serial          int       `json:"serial"`
	CustomerName    string    `json:"customer_name"`
	BranchName      string    `json:"branch_name"`
	ApplicationID   string    `json:"application_id"`
	ApplicationName string    `json:"application_name"`
	CreatedAt       time.Time `json:"created_at"`
	DaysOutOfTAT    int       `json:"days_out_of_tat"`
}

// IndexRun writes one document per run, keyed by run ID so retried
// indexing overwrites rather than duplicates.
func (i *RunIndexer) IndexRun(ctx context.Context, run models.NotificationRun, rows []tat.ReportRow) error {
	doc := runDocument{
		RunID:        run.ID,
		RunAt:        run.RunAt,
		Status:       run.Status,
		Customers:    run.Customers,
		Branches:     run.Branches,
		Applications: run.Applications,
		Error:        run.Error,
		Rows:         make([]rowDocument, 0, len(rows)),
	}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, rowDocument{
			Serial:          r.Serial,
			CustomerName:    r.CustomerName,
			BranchName:      r.BranchName,
			ApplicationID:   r.ApplicationID,
			ApplicationName: r.ApplicationName,
			CreatedAt:       r.CreatedAt,
			DaysOutOfTAT:    r.DaysOutOfTAT,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewIndexingFailedError(fmt.Errorf("marshal run document: %w", err))
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: run.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewIndexingFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexingFailedError(fmt.Errorf("index %s returned %s", i.index, res.Status()))
	}

	i.logger.Debug("run report indexed", map[string]interface{}{
		"runId": run.ID,
		"index": i.index,
		"rows":  len(rows),
	})

	return nil
}
