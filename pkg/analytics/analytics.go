package analytics

import (
	"context"
	"math/big"
	"sort"

	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

// topN bounds the per-type and per-owner breakdowns
const topN = 6

// Service computes aggregate statistics over an account's mirrored corpus
type Service struct {
	files repository.FileRepository
}

// NewService creates an analytics service over the file repository
func NewService(files repository.FileRepository) *Service {
	return &Service{files: files}
}

// Compute scans the account's non-trashed files and aggregates them. The
// size sum is exact internally and converted to a plain number only at the
// result boundary.
func (s *Service) Compute(ctx context.Context, accountID string) (*types.AnalyticsResult, error) {
	records, err := s.files.ListFiles(ctx, accountID, types.FileQuery{})
	if err != nil {
		return nil, err
	}

	totalSize := new(big.Int)
	typeCounts := make(map[string]int)
	typeSizes := make(map[string]*big.Int)
	ownerCounts := make(map[string]int)
	monthCounts := make(map[string]int)

	for i := range records {
		f := &records[i]

		typeCounts[f.MimeType]++
		if f.Size != nil {
			totalSize.Add(totalSize, f.Size)
			sum, ok := typeSizes[f.MimeType]
			if !ok {
				sum = new(big.Int)
				typeSizes[f.MimeType] = sum
			}
			sum.Add(sum, f.Size)
		}
		if f.OwnerEmail != "" {
			ownerCounts[f.OwnerEmail]++
		}
		if f.ModifiedTime != nil {
			monthCounts[f.ModifiedTime.UTC().Format("2006-01")]++
		}
	}

	topTypes := make([]types.TypeCount, 0, len(typeCounts))
	for t, c := range typeCounts {
		topTypes = append(topTypes, types.TypeCount{Type: t, Count: c})
	}
	sort.Slice(topTypes, func(i, j int) bool {
		if topTypes[i].Count != topTypes[j].Count {
			return topTypes[i].Count > topTypes[j].Count
		}
		return topTypes[i].Type < topTypes[j].Type
	})
	if len(topTypes) > topN {
		topTypes = topTypes[:topN]
	}

	topOwners := make([]types.OwnerCount, 0, len(ownerCounts))
	for o, c := range ownerCounts {
		topOwners = append(topOwners, types.OwnerCount{Owner: o, Count: c})
	}
	sort.Slice(topOwners, func(i, j int) bool {
		if topOwners[i].Count != topOwners[j].Count {
			return topOwners[i].Count > topOwners[j].Count
		}
		return topOwners[i].Owner < topOwners[j].Owner
	})
	if len(topOwners) > topN {
		topOwners = topOwners[:topN]
	}

	// Storage breakdown follows the same types as the count breakdown,
	// reordered by bytes
	storageByType := make([]types.TypeBytes, 0, len(topTypes))
	for _, tc := range topTypes {
		sum, ok := typeSizes[tc.Type]
		if !ok {
			continue
		}
		bytes, _ := new(big.Float).SetInt(sum).Float64()
		storageByType = append(storageByType, types.TypeBytes{Type: tc.Type, Bytes: bytes})
	}
	sort.Slice(storageByType, func(i, j int) bool {
		if storageByType[i].Bytes != storageByType[j].Bytes {
			return storageByType[i].Bytes > storageByType[j].Bytes
		}
		return storageByType[i].Type < storageByType[j].Type
	})

	activityByMonth := make([]types.MonthCount, 0, len(monthCounts))
	for m, c := range monthCounts {
		activityByMonth = append(activityByMonth, types.MonthCount{Month: m, Count: c})
	}
	sort.Slice(activityByMonth, func(i, j int) bool {
		return activityByMonth[i].Month < activityByMonth[j].Month
	})

	size, _ := new(big.Float).SetInt(totalSize).Float64()

	return &types.AnalyticsResult{
		TotalFiles:      int64(len(records)),
		TotalSize:       size,
		UniqueOwners:    len(ownerCounts),
		TopTypes:        topTypes,
		TopOwners:       topOwners,
		StorageByType:   storageByType,
		ActivityByMonth: activityByMonth,
	}, nil
}
