package logging

import "strings"

const shortJobIDLen = 8

// FormatSubject builds the "MODE · file (job)" subject used in console output.
func FormatSubject(mode, jobID, source string) string {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	jobID = strings.TrimSpace(jobID)
	source = strings.TrimSpace(source)
	if len(jobID) > shortJobIDLen {
		jobID = jobID[:shortJobIDLen]
	}

	parts := make([]string, 0, 2)
	if mode != "" {
		parts = append(parts, mode)
	}
	switch {
	case source != "" && jobID != "":
		parts = append(parts, source+" ("+jobID+")")
	case source != "":
		parts = append(parts, source)
	case jobID != "":
		parts = append(parts, "Job "+jobID)
	}
	return strings.Join(parts, " · ")
}
