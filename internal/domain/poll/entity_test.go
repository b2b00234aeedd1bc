package poll

import (
	"testing"
	"time"
)

func TestPublishedRecently(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		publishedAt time.Time
		want        bool
	}{
		{"just now", now, true},
		{"23 hours ago", now.Add(-23 * time.Hour), true},
		{"25 hours ago", now.Add(-25 * time.Hour), false},
		{"scheduled for tomorrow", now.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{PublishedAt: tt.publishedAt}
			if got := q.PublishedRecently(); got != tt.want {
				t.Errorf("PublishedRecently() = %v, want %v", got, tt.want)
			}
		})
	}
}
