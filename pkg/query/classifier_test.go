package query

import (
	"testing"

	"github.com/drivelens/drivelens/pkg/types"
)

func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.Intent
	}{
		{
			name: "canonical shape",
			raw:  `{"type":"search","query":"budget"}`,
			want: types.Intent{Type: types.IntentSearch, Query: "budget"},
		},
		{
			name: "type spelled intent",
			raw:  `{"intent":"filter_type","mimeType":"pdf"}`,
			want: types.Intent{Type: types.IntentFilterType, MimeType: "pdf"},
		},
		{
			name: "type spelled action",
			raw:  `{"action":"count","filter":"report"}`,
			want: types.Intent{Type: types.IntentCount, Filter: "report"},
		},
		{
			name: "type as sole key with nested params",
			raw:  `{"sort":{"sortBy":"size","order":"desc","limit":5}}`,
			want: types.Intent{Type: types.IntentSort, SortBy: "size", Order: "desc", Limit: 5},
		},
		{
			name: "unknown type falls back to summary",
			raw:  `{"type":"delete_everything"}`,
			want: types.SummaryIntent(),
		},
		{
			name: "multiple keys without type falls back to summary",
			raw:  `{"search":{"query":"a"},"count":{}}`,
			want: types.SummaryIntent(),
		},
		{
			name: "not json falls back to summary",
			raw:  `here are your files`,
			want: types.SummaryIntent(),
		},
		{
			name: "filter_date params",
			raw:  `{"type":"filter_date","from":"2025-01-01","to":"2025-02-01"}`,
			want: types.Intent{Type: types.IntentFilterDate, From: "2025-01-01", To: "2025-02-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIntent([]byte(tt.raw))
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
