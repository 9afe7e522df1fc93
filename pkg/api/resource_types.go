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

package api

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resource is one row of the resources table. Every registered kind shares
// it; Kind selects the definition and OwnerID links owned kinds to their owner.
type Resource struct {
	Meta

	Kind   string         `json:"kind" gorm:"size:63;not null;index"`
	Name   string         `json:"name" gorm:"size:63;not null"`
	Spec   datatypes.JSON `json:"spec" gorm:"type:jsonb;not null"`
	Labels datatypes.JSON `json:"labels,omitempty" gorm:"type:jsonb"`
	Href   string         `json:"href,omitempty" gorm:"size:500"`

	// Generation starts at 1 and moves only when Spec changes.
	Generation int32 `json:"generation" gorm:"default:1;not null"`

	OwnerID   *string `json:"owner_id,omitempty" gorm:"size:255;index"`
	OwnerKind *string `json:"owner_kind,omitempty" gorm:"size:63"`

	// Aggregated from adapter_conditions after each accepted report
	StatusPhase              ResourcePhase  `json:"status_phase" gorm:"size:20;not null;default:NotReady"`
	StatusConditions         datatypes.JSON `json:"status_conditions" gorm:"type:jsonb"`
	StatusAgreement          datatypes.JSON `json:"status_agreement" gorm:"type:jsonb"`
	StatusLastUpdatedTime    *time.Time     `json:"status_last_updated_time,omitempty"`
	StatusLastTransitionTime *time.Time     `json:"status_last_transition_time,omitempty"`
}

func (Resource) TableName() string { return "resources" }

type ResourceList []*Resource

func (r *Resource) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	r.CreatedTime = time.Now()
	r.UpdatedTime = r.CreatedTime
	if r.Generation < 1 {
		r.Generation = 1
	}
	if r.StatusPhase == "" {
		r.StatusPhase = PhaseNotReady
	}
	return nil
}

func (r *Resource) BeforeUpdate(_ *gorm.DB) error {
	r.UpdatedTime = time.Now()
	return nil
}

// IsOwned reports whether the resource hangs under another resource.
func (r *Resource) IsOwned() bool {
	return r.OwnerID != nil && *r.OwnerID != ""
}

// ResourceCreateRequest is the POST body. Kind may be omitted when the route
// already names it.
type ResourceCreateRequest struct {
	Kind   *string                `json:"kind,omitempty"`
	Name   string                 `json:"name"`
	Spec   map[string]interface{} `json:"spec"`
	Labels *map[string]string     `json:"labels,omitempty"`
}

// ResourcePatchRequest is the PATCH body; nil fields are left alone.
type ResourcePatchRequest struct {
	Spec   *map[string]interface{} `json:"spec,omitempty"`
	Labels *map[string]string      `json:"labels,omitempty"`
}
