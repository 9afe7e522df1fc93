package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
)

// MigrationList rules:
//
//  1. IDs are numerical timestamps that must sort ascending
//  2. Never modify a migration once it has been released, add a new one instead
//  3. Rollbacks must undo exactly what Migrate created
var MigrationList = []*gormigrate.Migration{
	addResources(),
	addAdapterConditions(),
	addConditionReports(),
	addAdapterTasks(),
	addPulseQueue(),
}

// Tables lists the application tables the migrations create, parents first.
var Tables = []string{
	"resources",
	"adapter_conditions",
	"condition_reports",
	"adapter_tasks",
	"pulse_queue",
}
