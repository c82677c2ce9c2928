// Package icron adds small introspection helpers on top of robfig/cron.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser is the schedule format shared with the runtime scheduler:
// optional seconds field plus descriptors like @hourly and @every.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TriggerInfo describes the upcoming run of a cron expression.
type TriggerInfo struct {
	Expression    string
	Next          time.Time
	TimeUntilNext time.Duration
}

// GetTriggerInfo parses expr and reports its next trigger after ref.
func GetTriggerInfo(expr string, ref time.Time) (*TriggerInfo, error) {
	schedule, err := Parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	next := schedule.Next(ref)
	return &TriggerInfo{
		Expression:    expr,
		Next:          next,
		TimeUntilNext: next.Sub(ref),
	}, nil
}
