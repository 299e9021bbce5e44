package main

import (
	"fmt"
	"strings"
	"time"

	"dugout/internal/daemon"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiCyan   = "\x1b[36m"
)

func formatStatusLabel(status string) string {
	parts := strings.Split(strings.TrimSpace(status), "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func colorizeStatus(status string) string {
	label := formatStatusLabel(status)
	if !stdoutIsTerminal() {
		return label
	}
	switch status {
	case "completed":
		return ansiGreen + label + ansiReset
	case "failed":
		return ansiRed + label + ansiReset
	case "in_progress":
		return ansiCyan + label + ansiReset
	case "queued":
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func formatGame(gameID *int64) string {
	if gameID == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *gameID)
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func buildTaskRows(tasks []daemon.TaskPayload) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			task.ID,
			formatGame(task.GameID),
			colorizeStatus(task.Status),
			fmt.Sprintf("%d/%d", processedCount(task), len(task.Units)),
			task.Message,
			formatDisplayTime(task.CreatedAt),
		})
	}
	return rows
}

func processedCount(task daemon.TaskPayload) int {
	count := 0
	for _, unit := range task.Units {
		if unit.Processed {
			count++
		}
	}
	return count
}
