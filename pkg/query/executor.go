package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

// maxResults bounds every file listing an intent can return
const maxResults = 20

// sortableFields is the allow-list for the sort intent. Unknown fields fall
// back to modified time.
var sortableFields = map[string]bool{
	types.SortBySize:         true,
	types.SortByModifiedTime: true,
	types.SortByCreatedTime:  true,
	types.SortByName:         true,
}

// Executor runs structured intents against the local mirror
type Executor struct {
	files repository.FileRepository
}

// NewExecutor creates an executor over the file repository
func NewExecutor(files repository.FileRepository) *Executor {
	return &Executor{files: files}
}

// Execute runs one intent for one account. Intents constructed outside the
// normalization boundary with an unknown type are a programming error.
func (e *Executor) Execute(ctx context.Context, accountID string, intent types.Intent) (*types.QueryResult, error) {
	switch intent.Type {
	case types.IntentSearch:
		return e.listFiles(ctx, accountID, types.FileQuery{
			NameContains: intent.Query,
			SortBy:       types.SortByModifiedTime,
			Order:        types.OrderDesc,
			Limit:        maxResults,
		})

	case types.IntentFilterDate:
		q := types.FileQuery{
			SortBy: types.SortByModifiedTime,
			Order:  types.OrderDesc,
			Limit:  maxResults,
		}
		// Malformed bounds are dropped, not errors
		q.ModifiedAfter = parseDate(intent.From)
		q.ModifiedBefore = parseDate(intent.To)
		return e.listFiles(ctx, accountID, q)

	case types.IntentFilterType:
		return e.listFiles(ctx, accountID, types.FileQuery{
			TypeContains: intent.MimeType,
			SortBy:       types.SortByModifiedTime,
			Order:        types.OrderDesc,
			Limit:        maxResults,
		})

	case types.IntentFilterOwner:
		return e.listFiles(ctx, accountID, types.FileQuery{
			OwnerContains: intent.Owner,
			SortBy:        types.SortByModifiedTime,
			Order:         types.OrderDesc,
			Limit:         maxResults,
		})

	case types.IntentSort:
		sortBy := intent.SortBy
		if !sortableFields[sortBy] {
			sortBy = types.SortByModifiedTime
		}
		order := types.OrderDesc
		if intent.Order == types.OrderAsc {
			order = types.OrderAsc
		}
		limit := intent.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > maxResults {
			limit = maxResults
		}
		return e.listFiles(ctx, accountID, types.FileQuery{
			SortBy: sortBy,
			Order:  order,
			Limit:  limit,
		})

	case types.IntentCount:
		total, err := e.files.CountFiles(ctx, accountID, types.FileQuery{
			NameContains: intent.Filter,
		})
		if err != nil {
			return nil, err
		}
		return &types.QueryResult{Files: []types.FileProjection{}, Total: &total}, nil

	case types.IntentSummary:
		return e.summarize(ctx, accountID)

	default:
		return nil, fmt.Errorf("unknown intent type: %s", intent.Type)
	}
}

func (e *Executor) listFiles(ctx context.Context, accountID string, q types.FileQuery) (*types.QueryResult, error) {
	records, err := e.files.ListFiles(ctx, accountID, q)
	if err != nil {
		return nil, err
	}

	projections := make([]types.FileProjection, 0, len(records))
	for i := range records {
		projections = append(projections, records[i].Project())
	}
	return &types.QueryResult{Files: projections}, nil
}

func (e *Executor) summarize(ctx context.Context, accountID string) (*types.QueryResult, error) {
	records, err := e.files.ListFiles(ctx, accountID, types.FileQuery{})
	if err != nil {
		return nil, err
	}

	typeCounts := make(map[string]int)
	ownerCounts := make(map[string]int)
	monthCounts := make(map[string]int)
	for i := range records {
		f := &records[i]
		typeCounts[f.MimeType]++
		if f.OwnerEmail != "" {
			ownerCounts[f.OwnerEmail]++
		}
		if f.ModifiedTime != nil {
			monthCounts[f.ModifiedTime.UTC().Format("2006-01")]++
		}
	}

	stats := &types.SummaryStats{
		TopTypes:         topTypes(typeCounts, 5),
		TopOwners:        topOwners(ownerCounts, 5),
		UniqueOwners:     len(ownerCounts),
		DateDistribution: monthDistribution(monthCounts),
	}

	total := int64(len(records))
	return &types.QueryResult{
		Files: []types.FileProjection{},
		Total: &total,
		Stats: stats,
	}, nil
}

// parseDate accepts ISO dates with or without a time component
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func topTypes(counts map[string]int, n int) []types.TypeCount {
	out := make([]types.TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, types.TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topOwners(counts map[string]int, n int) []types.OwnerCount {
	out := make([]types.OwnerCount, 0, len(counts))
	for o, c := range counts {
		out = append(out, types.OwnerCount{Owner: o, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Owner < out[j].Owner
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func monthDistribution(counts map[string]int) []types.MonthCount {
	out := make([]types.MonthCount, 0, len(counts))
	for m, c := range counts {
		out = append(out, types.MonthCount{Month: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
