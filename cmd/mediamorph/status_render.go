package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"mediamorph/internal/api"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

// renderJobLine renders one poll snapshot as a status line colored by the
// job's lifecycle phase.
func renderJobLine(job api.ConversionJob, colorize bool) string {
	label := fmt.Sprintf("job #%d", job.ID)
	message := fmt.Sprintf("%s %d%%", statusLabel(job.Status), job.Progress)
	return renderStatusLine(label, jobStatusKind(job.Status), message, colorize)
}

func jobStatusKind(status api.JobStatus) statusKind {
	switch status {
	case api.JobCompleted:
		return statusOK
	case api.JobFailed:
		return statusError
	case api.JobProcessing:
		return statusInfo
	default:
		return statusWarn
	}
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WAIT"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
