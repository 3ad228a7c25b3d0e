package logging

import (
	"log/slog"
	"strings"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are shown first, in this order, on info and above.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	FieldOutput,
	"hfov_degrees",
	"hfov_source",
	"focal_length_px",
	"baseline_m",
	"disparity",
	"width",
	"height",
	"vendor",
	"repaired_fields",
	"output_bytes",
	"elapsed",
	"succeeded",
	"failed",
}

const maxInfoValueLen = 160

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		key := attrs[idx].key
		if skipInfoKey(key) {
			return
		}
		if isDebugOnlyKey(key) {
			hidden++
			return
		}
		value := formatValueForKey(key, attrs[idx].value)
		if key != "error" && len(value) > maxInfoValueLen {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(key), value: value})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

// formatValueForKey applies smart formatting based on the key name.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isByteSizeKey(key) && v.Kind() == slog.KindInt64:
		return formatBytes(v.Int64())
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case v.Kind() == slog.KindFloat64:
		return formatFloat(v.Float64())
	case key == "error":
		return truncate(attrString(v), 240)
	}
	return formatValue(v)
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size"
}

// skipInfoKey reports keys already rendered in the header.
func skipInfoKey(key string) bool {
	switch key {
	case "", FieldMode, FieldJobID, FieldSource, FieldComponent:
		return true
	}
	return false
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "intrinsics", "properties", "input":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case "hfov_degrees":
		return "hFOV"
	case "hfov_source":
		return "hFOV Source"
	case "focal_length_px":
		return "Focal Length"
	case "baseline_m":
		return "Baseline"
	case "output_bytes":
		return "Size"
	case "repaired_fields":
		return "Repaired"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "…"
}
