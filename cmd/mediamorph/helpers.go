package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediamorph/internal/api"
)

var titleCaser = cases.Title(language.English)

func parseKindArg(arg string) (api.Kind, error) {
	kind, ok := api.ParseKind(arg)
	if !ok {
		return "", fmt.Errorf("unknown media kind %q (expected video or image)", arg)
	}
	return kind, nil
}

// parseArtifactFlag validates an --artifact value. A conversion id implies
// the converted artifact even when the flag says original.
func parseArtifactFlag(value string, conversionID int64) (api.Artifact, error) {
	var artifact api.Artifact
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(api.ArtifactOriginal):
		artifact = api.ArtifactOriginal
	case string(api.ArtifactConverted):
		artifact = api.ArtifactConverted
	default:
		return "", fmt.Errorf("unknown artifact %q (expected original or converted)", value)
	}
	if conversionID > 0 {
		artifact = api.ArtifactConverted
	}
	return artifact, nil
}

func parseIDArg(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

func statusLabel(status api.JobStatus) string {
	return titleCaser.String(string(status))
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
