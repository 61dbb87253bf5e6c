// Package schedule validates the trigger kinds that start a build on their
// own: `schedule` (cron based) and `vcs` (on new commits).
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/templates"
)

const (
	// ScheduleKind is the tag of cron scheduled triggers.
	ScheduleKind = "schedule"
	// VCSKind is the tag of version control triggers.
	VCSKind = "vcs"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Module implements the featurekind.Module interface for this package.
type Module struct{}

// Register registers both trigger kinds.
func (m *Module) Register(r *featurekind.Registry) {
	r.Register(featurekind.Kind{
		Name:        ScheduleKind,
		Description: "Starts the build on a cron schedule.",
		Validate:    ValidateSchedule,
	})
	r.Register(featurekind.Kind{
		Name:        VCSKind,
		Description: "Starts the build when matching branches change.",
		Validate:    ValidateVCS,
	})
}

// ValidateSchedule checks `cron` and the optional `timezone`.
func ValidateSchedule(f templates.Feature) []error {
	errs := featurekind.Require(f, "cron")
	if expr := strings.TrimSpace(f.Params["cron"]); expr != "" && !featurekind.HasReference(expr) {
		if _, err := cronParser.Parse(expr); err != nil {
			errs = append(errs, fmt.Errorf("cron %q: %w", expr, err))
		}
	}
	if tz := strings.TrimSpace(f.Params["timezone"]); tz != "" && !featurekind.HasReference(tz) {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", tz, err))
		}
	}
	return errs
}

// NextRun returns the first time after from at which a schedule trigger
// fires, evaluated in the trigger's `timezone` (UTC when unset).
func NextRun(f templates.Feature, from time.Time) (time.Time, error) {
	expr := strings.TrimSpace(f.Params["cron"])
	if featurekind.HasReference(expr) {
		return time.Time{}, fmt.Errorf("cron %q is resolved at run time", expr)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("cron %q: %w", expr, err)
	}
	loc := time.UTC
	if tz := strings.TrimSpace(f.Params["timezone"]); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return time.Time{}, fmt.Errorf("timezone %q: %w", tz, err)
		}
	}
	return sched.Next(from.In(loc)), nil
}

// ValidateVCS checks `branchFilter` rules and `quietPeriodSeconds`.
func ValidateVCS(f templates.Feature) []error {
	var errs []error
	for i, rule := range featurekind.Lines(f.Params["branchFilter"]) {
		if !strings.HasPrefix(rule, "+:") && !strings.HasPrefix(rule, "-:") {
			errs = append(errs, fmt.Errorf("branchFilter line %d: %q must start with +: or -:", i+1, rule))
			continue
		}
		if strings.TrimSpace(rule[2:]) == "" {
			errs = append(errs, fmt.Errorf("branchFilter line %d: empty pattern", i+1))
		}
	}
	if qp := strings.TrimSpace(f.Params["quietPeriodSeconds"]); qp != "" && !featurekind.HasReference(qp) {
		n, err := strconv.Atoi(qp)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("quietPeriodSeconds %q must be a non-negative integer", qp))
		}
	}
	return errs
}
