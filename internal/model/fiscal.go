package model

import (
	"time"

	"github.com/google/uuid"
)

// FiscalYear is a tenant-scoped accounting period.
type FiscalYear struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Closed    bool
}

// Contains reports whether d falls within the fiscal year, inclusive.
func (fy FiscalYear) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(fy.StartDate)) && !d.After(Day(fy.EndDate))
}

// Tenant is the unit of data isolation.
type Tenant struct {
	ID   uuid.UUID
	Name string
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
