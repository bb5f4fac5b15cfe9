package extract

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/model"
)

// DefaultDataGovBase is the production data.gov.sg API root.
const DefaultDataGovBase = "https://data.gov.sg"

const datastorePath = "/api/action/datastore_search"

type datastoreResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Total   int              `json:"total"`
		Records []map[string]any `json:"records"`
	} `json:"result"`
}

// fetchDataGov pages through a datastore resource until target records are
// collected or the resource is exhausted.
func (e *Extractor) fetchDataGov(ctx context.Context, src Source, target int) ([]model.Record, error) {
	if src.ResourceID == "" {
		return nil, eris.Errorf("extract: source %s missing resource_id", src.Name)
	}

	stamp := timestamp()
	records := make([]model.Record, 0, target)
	offset := 0

	for len(records) < target {
		limit := e.pageSize
		if remaining := target - len(records); remaining < limit {
			limit = remaining
		}

		reqURL := fmt.Sprintf("%s%s?resource_id=%s&limit=%d&offset=%d",
			e.baseURL, datastorePath, url.QueryEscape(src.ResourceID), limit, offset)

		var resp datastoreResponse
		if err := e.http.GetJSON(ctx, reqURL, &resp); err != nil {
			return records, eris.Wrapf(err, "extract: datastore page offset=%d", offset)
		}
		if !resp.Success {
			return records, eris.Errorf("extract: datastore request unsuccessful for %s", src.ResourceID)
		}
		if len(resp.Result.Records) == 0 {
			break
		}

		for _, values := range resp.Result.Records {
			records = append(records, src.mapValues(values, stamp))
		}
		offset += len(resp.Result.Records)

		e.log.Debug("datastore page fetched",
			zap.String("source", src.Name),
			zap.Int("offset", offset),
			zap.Int("total_available", resp.Result.Total))

		if offset >= resp.Result.Total {
			break
		}
	}

	return records, nil
}
