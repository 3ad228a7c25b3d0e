package metadata_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"spatialphoto/internal/metadata"
)

func TestCorrectTimestamp(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	tests := []struct {
		name  string
		value string
		loc   *time.Location
		want  string
	}{
		{name: "winter standard time", value: "2024:01:15 12:00:00", loc: newYork, want: "2024:01:15 07:00:00"},
		{name: "summer daylight time", value: "2024:07:15 12:00:00", loc: newYork, want: "2024:07:15 08:00:00"},
		{name: "crosses midnight", value: "2024:03:01 02:30:00", loc: newYork, want: "2024:02:29 21:30:00"},
		{name: "fixed zone ahead", value: "2023:12:31 20:00:00", loc: time.FixedZone("JST", 9*3600), want: "2024:01:01 05:00:00"},
		{name: "utc is identity", value: "2024:05:05 05:05:05", loc: time.UTC, want: "2024:05:05 05:05:05"},
		{name: "unparseable unchanged", value: "yesterday", loc: newYork, want: "yesterday"},
		{name: "empty unchanged", value: "", loc: newYork, want: ""},
		{name: "iso layout unchanged", value: "2024-01-15T12:00:00Z", loc: newYork, want: "2024-01-15T12:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metadata.CorrectTimestamp(tt.value, tt.loc); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}
