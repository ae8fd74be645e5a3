package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
	"vulnerability-dashboard/internal/util"
)

var searchFields = []string{"timestamp", "source_ip", "activity"}

// Timestamps are indexed as text with a keyword subfield; the keyword form sorts and ranges
// lexicographically, which matches chronological order for the stored layout.
const timestampField = "timestamp.keyword"

type elasticsearchLogRepository struct {
	esTypedClient *elasticsearch.TypedClient
	indexPrefix   string
}

func NewElasticsearchLogRepository(cfg *config.Config) (repository.LogSearchRepository, error) {
	typedClient, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Transport: newTransport(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Typed Elasticsearch Client in Repository")
		return nil, err
	}

	return &elasticsearchLogRepository{
		esTypedClient: typedClient,
		indexPrefix:   cfg.Elasticsearch.LogIndex,
	}, nil
}

func (r *elasticsearchLogRepository) Search(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	indexPattern := fmt.Sprintf("%s-*", r.indexPrefix)

	res, err := r.esTypedClient.Search().
		Index(indexPattern).
		Request(buildSearchRequest(req)).
		Do(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error executing Elasticsearch search via TypedClient")
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}

	logs := make([]model.LogEntry, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var doc logDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling Elasticsearch hit source")
			continue
		}
		entry := model.LogEntry{Timestamp: doc.Timestamp, SourceIP: doc.SourceIP, Activity: doc.Activity}
		if hit.Id_ != nil {
			entry.ID = *hit.Id_
		}
		logs = append(logs, entry)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	response := &dto.LogSearchResponse{
		Logs:       logs,
		TotalCount: total,
		Page:       req.Page,
		Size:       req.Size,
	}

	log.Debug().Int64("total_hits", response.TotalCount).Int("returned_hits", len(response.Logs)).Msg("Elasticsearch search successful")
	return response, nil
}

// buildSearchRequest matches the query string against every log field within the optional
// time range, newest first.
func buildSearchRequest(req dto.LogSearchRequest) *search.Request {
	boolQuery := &types.BoolQuery{}
	if req.Query != "" {
		boolQuery.Must = append(boolQuery.Must, types.Query{
			QueryString: &types.QueryStringQuery{
				Query:           req.Query,
				Fields:          searchFields,
				DefaultOperator: &operator.And,
			},
		})
	}
	if req.StartTime != nil || req.EndTime != nil {
		timeRange := types.TermRangeQuery{}
		if req.StartTime != nil {
			gte := util.FormatActivityTimestamp(*req.StartTime)
			timeRange.Gte = &gte
		}
		if req.EndTime != nil {
			lte := util.FormatActivityTimestamp(*req.EndTime)
			timeRange.Lte = &lte
		}
		boolQuery.Filter = append(boolQuery.Filter, types.Query{
			Range: map[string]types.RangeQuery{timestampField: timeRange},
		})
	}

	query := &types.Query{MatchAll: &types.MatchAllQuery{}}
	if len(boolQuery.Must) > 0 || len(boolQuery.Filter) > 0 {
		query = &types.Query{Bool: boolQuery}
	}

	from := (req.Page - 1) * req.Size
	size := req.Size
	order := sortorder.Desc
	return &search.Request{
		Query: query,
		Size:  &size,
		From:  &from,
		Sort: []types.SortCombinations{
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					timestampField: {Order: &order},
				},
			},
		},
	}
}
