// internal/tat/aggregator.go
package tat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bgverify-jobs/internal/common/errors"
	"bgverify-jobs/internal/common/logger"
	"bgverify-jobs/internal/models"
)

// Contractual turnaround must fall inside this range; anything else marks a
// misconfigured or not-yet-configured customer contract, whose applications
// are excluded from delay evaluation rather than treated as an error.
const (
	MinTATDays = 1
	MaxTATDays = 365
)

// Source exposes the three independent reads a delay run needs.
type Source interface {
	PendingApplications(ctx context.Context) ([]models.PendingApplication, error)
	Holidays(ctx context.Context) ([]models.Holiday, error)
	ActiveWeekendConfig(ctx context.Context) (*models.WeekendConfig, error)
}

// DelayedApplication is a pending application whose delay is strictly
// positive; nothing else ever enters the hierarchy.
type DelayedApplication struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	DaysOutOfTAT int       `json:"daysOutOfTat"`
}

// BranchDelays groups a branch's delayed applications.
type BranchDelays struct {
	Branch       models.Branch        `json:"branch"`
	Applications []DelayedApplication `json:"applications"`
}

// CustomerDelays groups a customer's branches with delayed applications.
type CustomerDelays struct {
	Customer models.Customer `json:"customer"`
	TATDays  int             `json:"tatDays"`
	Branches []*BranchDelays `json:"branches"`
}

// Hierarchy is the customer -> branch -> delayed-applications structure a
// run derives fresh from live data. Customers and branches keep the
// insertion order of the source rows.
type Hierarchy struct {
	Customers []*CustomerDelays `json:"customers"`
}

// Empty reports whether no delayed application survived filtering.
func (h *Hierarchy) Empty() bool {
	return len(h.Customers) == 0
}

// Counts returns the number of customers, branches and applications.
func (h *Hierarchy) Counts() (customers, branches, applications int) {
	customers = len(h.Customers)
	for _, c := range h.Customers {
		branches += len(c.Branches)
		for _, b := range c.Branches {
			applications += len(b.Applications)
		}
	}
	return customers, branches, applications
}

// MaxDaysOutOfTAT returns the largest delay in the hierarchy.
func (h *Hierarchy) MaxDaysOutOfTAT() int {
	max := 0
	for _, c := range h.Customers {
		for _, b := range c.Branches {
			for _, a := range b.Applications {
				if a.DaysOutOfTAT > max {
					max = a.DaysOutOfTAT
				}
			}
		}
	}
	return max
}

// ReportRow is one flattened line of the tabular delay report.
type ReportRow struct {
	Serial          int
	CustomerName    string
	BranchName      string
	ApplicationID   string
	ApplicationName string
	CreatedAt       time.Time
	DaysOutOfTAT    int
}

// Flatten turns the hierarchy back into serial-numbered report rows.
func (h *Hierarchy) Flatten() []ReportRow {
	var rows []ReportRow
	serial := 0
	for _, c := range h.Customers {
		for _, b := range c.Branches {
			for _, a := range b.Applications {
				serial++
				rows = append(rows, ReportRow{
					Serial:          serial,
					CustomerName:    c.Customer.Name,
					BranchName:      b.Branch.Name,
					ApplicationID:   a.ID,
					ApplicationName: a.Name,
					CreatedAt:       a.CreatedAt,
					DaysOutOfTAT:    a.DaysOutOfTAT,
				})
			}
		}
	}
	return rows
}

// Engine computes the delay hierarchy. It holds no state between runs;
// every invocation is a pure read+compute+shape pass over live data.
type Engine struct {
	source Source
	logger logger.Logger
	now    func() time.Time
}

func NewEngine(source Source, log logger.Logger) *Engine {
	return &Engine{
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "tat-engine"}),
		now:    time.Now,
	}
}

// WithNow fixes the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ComputeDelayedApplications fetches the three source datasets concurrently,
// joins them, and shapes the pruned hierarchy. Any fetch failure aborts the
// whole computation; there is no partial result.
func (e *Engine) ComputeDelayedApplications(ctx context.Context) (*Hierarchy, error) {
	var (
		rows       []models.PendingApplication
		holidays   []models.Holiday
		weekendCfg *models.WeekendConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rows, err = e.source.PendingApplications(gctx); err != nil {
			return errors.NewDataFetchFailedError("pending applications", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if holidays, err = e.source.Holidays(gctx); err != nil {
			return errors.NewDataFetchFailedError("holidays", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if weekendCfg, err = e.source.ActiveWeekendConfig(gctx); err != nil {
			return errors.NewDataFetchFailedError("weekend configuration", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewExceptionSet(holidays, weekendCfg)

	e.logger.Debug("computing delays", map[string]interface{}{
		"pendingApplications": len(rows),
		"holidays":            set.HolidayCount(),
		"weekendDays":         set.WeekendDayCount(),
	})

	return e.build(rows, set), nil
}

func (e *Engine) build(rows []models.PendingApplication, set ExceptionSet) *Hierarchy {
	h := &Hierarchy{}
	customers := make(map[string]*CustomerDelays)
	branches := make(map[string]*BranchDelays)

	today := dateOnly(e.now())

	for _, row := range rows {
		tatDays, err := strconv.Atoi(strings.TrimSpace(row.TATDays))
		if err != nil || tatDays < MinTATDays || tatDays > MaxTATDays {
			// Misconfigured contract: cannot evaluate delay, skip the row.
			e.logger.Debug("skipping row with unusable tat_days", map[string]interface{}{
				"applicationId": row.ApplicationID,
				"customerId":    row.Customer.ID,
				"tatDays":       row.TATDays,
			})
			continue
		}

		cd, ok := customers[row.Customer.ID]
		if !ok {
			cd = &CustomerDelays{Customer: row.Customer, TATDays: tatDays}
			customers[row.Customer.ID] = cd
			h.Customers = append(h.Customers, cd)
		}

		branchKey := row.Customer.ID + "/" + row.Branch.ID
		bd, ok := branches[branchKey]
		if !ok {
			bd = &BranchDelays{Branch: row.Branch}
			branches[branchKey] = bd
			cd.Branches = append(cd.Branches, bd)
		}

		due := DueDate(row.CreatedAt, tatDays, set)
		delay := BusinessDaysElapsed(due, today, set)
		if delay > 0 {
			bd.Applications = append(bd.Applications, DelayedApplication{
				ID:           row.ApplicationID,
				Name:         row.ApplicationName,
				CreatedAt:    row.CreatedAt,
				DaysOutOfTAT: delay,
			})
		}
	}

	prune(h)
	return h
}

// prune removes branches with no delayed applications, then customers with
// no surviving branches, preserving insertion order.
func prune(h *Hierarchy) {
	kept := h.Customers[:0]
	for _, c := range h.Customers {
		keptBranches := c.Branches[:0]
		for _, b := range c.Branches {
			if len(b.Applications) > 0 {
				keptBranches = append(keptBranches, b)
			}
		}
		c.Branches = keptBranches
		if len(c.Branches) > 0 {
			kept = append(kept, c)
		}
	}
	h.Customers = kept
}
