package logging

import (
	"log/slog"
	"testing"
	"time"
)

func TestSelectInfoFieldsOrdersHighlightsFirst(t *testing.T) {
	attrs := []kv{
		{key: "width", value: slog.IntValue(640)},
		{key: FieldSource, value: slog.StringValue("a.mpo")},
		{key: FieldOutput, value: slog.StringValue("a.heic")},
		{key: "input_path", value: slog.StringValue("/tmp/a.mpo")},
	}
	fields, hidden := selectInfoFields(attrs)
	if hidden != 1 {
		t.Fatalf("expected the path to be hidden, got %d", hidden)
	}
	if len(fields) != 2 || fields[0].label != "Output" || fields[1].label != "Width" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestFormatValueForKey(t *testing.T) {
	tests := []struct {
		key  string
		v    slog.Value
		want string
	}{
		{"output_bytes", slog.Int64Value(2048), "2.0 KiB"},
		{"output_bytes", slog.Int64Value(12), "12 B"},
		{"elapsed", slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{"elapsed", slog.DurationValue(20 * time.Millisecond), "20ms"},
		{"repaired", slog.BoolValue(true), "yes"},
		{"baseline_m", slog.Float64Value(0.075), "0.075"},
		{"hfov_degrees", slog.Float64Value(54.12), "54.12"},
	}
	for _, tt := range tests {
		if got := formatValueForKey(tt.key, tt.v); got != tt.want {
			t.Fatalf("formatValueForKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestDedupeKeepsLastValue(t *testing.T) {
	got := dedupeKVsByKey([]kv{
		{key: "a", value: slog.IntValue(1)},
		{key: "b", value: slog.IntValue(2)},
		{key: "a", value: slog.IntValue(3)},
	})
	if len(got) != 2 || got[0].key != "a" || got[0].value.Int64() != 3 {
		t.Fatalf("unexpected dedupe result: %+v", got)
	}
}
