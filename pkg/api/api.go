/*
Copyright (c) 2018 Red Hat, Inc.

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

// Package api contains the database models and domain types shared by the API,
// the sentinel and the adapter runtime.
package api

import (
	"time"

	"gorm.io/gorm"
)

// Meta is base model definition, embedded in all kinds
type Meta struct {
	ID          string         `json:"id" gorm:"primaryKey;size:255"`
	CreatedTime time.Time      `json:"created_time"`
	UpdatedTime time.Time      `json:"updated_time"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
