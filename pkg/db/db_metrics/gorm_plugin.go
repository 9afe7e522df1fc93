/*
Copyright (c) 2025 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// GORM callbacks recording query duration and errors per operation and table.
// Raw statements (the pulse queue claim, the condition slot compare-and-set)
// carry no gorm table, their table is read from the SQL text instead.

package db_metrics

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/migrations"
)

const (
	callbackPrefix = "hyperfleet_metrics"
	startTimeKey   = "hyperfleet_metrics:start_time"
)

// knownTables bounds the table label; anything else is reported as "other".
var knownTables = func() map[string]bool {
	known := map[string]bool{"migrations": true}
	for _, t := range migrations.Tables {
		known[t] = true
	}
	return known
}()

var rawTablePattern = regexp.MustCompile(`(?i)\b(?:from|into|update)\s+"?([a-z_][a-z0-9_]*)"?`)

type registerFunc func(name string, fn func(*gorm.DB)) error

// RegisterPlugin registers the metrics callbacks for create, query, update,
// delete and raw operations on db.
func RegisterPlugin(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		operation string
		before    registerFunc
		after     registerFunc
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:after_query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before(callbackPrefix+":before_"+h.operation, beforeCallback); err != nil {
			return err
		}
		if err := h.after(callbackPrefix+":after_"+h.operation, afterCallback(h.operation)); err != nil {
			return err
		}
	}
	return nil
}

func beforeCallback(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

// afterCallback returns a GORM callback that records query duration and errors.
func afterCallback(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		startVal, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		startTime, ok := startVal.(time.Time)
		if !ok {
			return
		}

		QueryDurationMetric.With(prometheus.Labels{
			labelOperation: operation,
			labelTable:     extractTableName(db),
			labelComponent: Component(),
			labelVersion:   api.Version,
		}).Observe(time.Since(startTime).Seconds())

		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			ErrorsMetric.With(prometheus.Labels{
				labelOperation: operation,
				labelErrorType: classifyError(db.Error),
				labelComponent: Component(),
				labelVersion:   api.Version,
			}).Inc()
		}
	}
}

func extractTableName(db *gorm.DB) string {
	if db.Statement == nil {
		return "unknown"
	}
	switch {
	case db.Statement.Table != "":
		return tableLabel(db.Statement.Table)
	case db.Statement.Schema != nil:
		return tableLabel(db.Statement.Schema.Table)
	}
	return rawTableName(db.Statement.SQL.String())
}

// rawTableName returns the first application table named in sql.
func rawTableName(sql string) string {
	if sql == "" {
		return "unknown"
	}
	for _, m := range rawTablePattern.FindAllStringSubmatch(sql, -1) {
		if table := strings.ToLower(m[1]); knownTables[table] {
			return table
		}
	}
	return "other"
}

func tableLabel(table string) string {
	if knownTables[table] {
		return table
	}
	return "other"
}

// classifyError categorizes a database error into a low-cardinality error_type label.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "deadlock detected") ||
		strings.Contains(errMsg, "could not serialize"):
		return "serialization_failure"
	case strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "violates") ||
		strings.Contains(errMsg, "constraint"):
		return "constraint_violation"
	case strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "refused") ||
		strings.Contains(errMsg, "reset by peer") ||
		strings.Contains(errMsg, "broken pipe"):
		return "connection_error"
	case strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "canceling statement"):
		return "timeout"
	default:
		return "other"
	}
}
