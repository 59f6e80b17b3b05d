package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Заполняются линковщиком:
// -ldflags "-X <module>/internal/version.BuildDate=2026-08-31 ..."
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildCI     string
)

// Нулевой день нумерации сборок
var buildEpoch = time.Date(
	2026, time.January, 5,
	0, 0, 0, 0,
	time.UTC,
)

// BuildInfo - метаданные сборки в структурном виде (отдаются /version)
type BuildInfo struct {
	BuildID   int    `json:"buildId"`
	BuildDate string `json:"buildDate"`
	Commit    string `json:"commit"`
	CI        string `json:"ci"`
	GoVersion string `json:"goVersion"`
	Error     string `json:"error,omitempty"`
}

// BuildID - порядковый номер сборки: дней от buildEpoch до BuildDate
func BuildID() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}

	t, err := time.ParseInLocation("2006-01-02", BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", BuildDate, err)
	}

	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before epoch", BuildDate)
	}

	// Часы вместо суток обходят проблемы DST; обе даты в UTC
	days := int(t.Sub(buildEpoch).Hours() / 24)
	return days, nil
}

// Info собирает метаданные. Коммит при пустых ldflags берется из
// информации модуля (go build вшивает vcs.revision сам).
func Info() BuildInfo {
	info := BuildInfo{
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		CI:        BuildCI,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.Commit == "" {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					info.Commit = s.Value
					break
				}
			}
		}
	}

	id, err := BuildID()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.BuildID = id
	return info
}

// String - человекочитаемая строка для лога старта
func String() string {
	info := Info()

	if info.Error != "" {
		return fmt.Sprintf("Build unknown (%s)", info.Error)
	}

	return fmt.Sprintf(
		"Build %d (%s) commit[%s] ci[%s]",
		info.BuildID,
		info.BuildDate,
		coalesce(info.Commit, "unknown"),
		coalesce(info.CI, "local"),
	)
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
