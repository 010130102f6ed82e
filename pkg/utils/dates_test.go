package utils

import (
	"testing"
	"time"
)

func TestParseFlexibleTime(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "RFC3339",
			value: "2024-03-01T09:15:00Z",
			want:  time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "servicenow datetime",
			value: "2024-03-01 09:15:00",
			want:  time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			value: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "us slash format",
			value: "03/01/2024",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			value: "  2024-03-01  ",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", value: "", wantErr: true},
		{name: "garbage", value: "next tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlexibleTime(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFlexibleTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseFlexibleTime() = %v, want %v", got, tt.want)
			}
		})
	}
}
