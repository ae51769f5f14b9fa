package types

// AnalyticsResult is the deterministic aggregate over one account's
// non-trashed files. TotalSize is a plain number at this boundary; the
// internal sum is arbitrary precision.
type AnalyticsResult struct {
	TotalFiles      int64        `json:"totalFiles"`
	TotalSize       float64      `json:"totalSize"`
	UniqueOwners    int          `json:"uniqueOwners"`
	TopTypes        []TypeCount  `json:"topTypes"`
	TopOwners       []OwnerCount `json:"topOwners"`
	StorageByType   []TypeBytes  `json:"storageByType"`
	ActivityByMonth []MonthCount `json:"activityByMonth"`
}

type TypeBytes struct {
	Type  string  `json:"type"`
	Bytes float64 `json:"bytes"`
}

// LastMonth returns the most recent activity bucket, or "" when the account
// has no dated files. Used as part of the insights cache fingerprint.
func (a *AnalyticsResult) LastMonth() string {
	if len(a.ActivityByMonth) == 0 {
		return ""
	}
	return a.ActivityByMonth[len(a.ActivityByMonth)-1].Month
}
