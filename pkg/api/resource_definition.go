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
	"fmt"
)

// ResourceScope defines whether a resource is root-level or owned by another resource.
type ResourceScope string

const (
	ResourceScopeRoot  ResourceScope = "Root"
	ResourceScopeOwned ResourceScope = "Owned"
)

// OwnerRef names the kind owning an Owned resource and the path parameter
// carrying the owner id, e.g. Cluster and cluster_id.
type OwnerRef struct {
	Kind      string `yaml:"kind" json:"kind"`
	PathParam string `yaml:"pathParam" json:"pathParam"`
}

// StatusConfig holds the adapters whose Available reports decide the status
// of every resource of the kind. The sentinel pulses exactly these adapters.
type StatusConfig struct {
	RequiredAdapters []string `yaml:"requiredAdapters" json:"requiredAdapters"`
}

// ResourceDefinition describes one resource kind served by the API.
type ResourceDefinition struct {
	APIVersion   string        `yaml:"apiVersion" json:"apiVersion"`
	Kind         string        `yaml:"kind" json:"kind"`
	Plural       string        `yaml:"plural" json:"plural"`
	Singular     string        `yaml:"singular" json:"singular"`
	Scope        ResourceScope `yaml:"scope" json:"scope"`
	Owner        *OwnerRef     `yaml:"owner,omitempty" json:"owner,omitempty"`
	StatusConfig StatusConfig  `yaml:"statusConfig" json:"statusConfig"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
}

func (rd *ResourceDefinition) IsRoot() bool {
	return rd.Scope == ResourceScopeRoot
}

func (rd *ResourceDefinition) IsOwned() bool {
	return rd.Scope == ResourceScopeOwned && rd.Owner != nil
}

// GetOwnerKind returns the owner's kind, or empty string if not owned.
func (rd *ResourceDefinition) GetOwnerKind() string {
	if rd.Owner == nil {
		return ""
	}
	return rd.Owner.Kind
}

// GetOwnerPathParam returns the URL path parameter for the owner ID.
func (rd *ResourceDefinition) GetOwnerPathParam() string {
	if rd.Owner == nil {
		return ""
	}
	return rd.Owner.PathParam
}

// Requires reports whether adapter is one of the kind's required adapters.
func (rd *ResourceDefinition) Requires(adapter string) bool {
	for _, a := range rd.StatusConfig.RequiredAdapters {
		if a == adapter {
			return true
		}
	}
	return false
}

// Validate checks the definition is servable: a kind and plural, an owner
// for Owned kinds and no adapter listed twice.
func (rd *ResourceDefinition) Validate() error {
	if rd.Kind == "" || rd.Plural == "" {
		return fmt.Errorf("kind and plural are required")
	}
	switch rd.Scope {
	case ResourceScopeRoot:
		if rd.Owner != nil {
			return fmt.Errorf("root kind '%s' cannot have an owner", rd.Kind)
		}
	case ResourceScopeOwned:
		if rd.Owner == nil || rd.Owner.Kind == "" || rd.Owner.PathParam == "" {
			return fmt.Errorf("owned kind '%s' needs an owner kind and path parameter", rd.Kind)
		}
		if rd.Owner.Kind == rd.Kind {
			return fmt.Errorf("kind '%s' cannot own itself", rd.Kind)
		}
	default:
		return fmt.Errorf("kind '%s' has unknown scope '%s'", rd.Kind, rd.Scope)
	}

	seen := make(map[string]bool, len(rd.StatusConfig.RequiredAdapters))
	for _, adapter := range rd.StatusConfig.RequiredAdapters {
		if adapter == "" {
			return fmt.Errorf("kind '%s' lists an empty adapter name", rd.Kind)
		}
		if seen[adapter] {
			return fmt.Errorf("kind '%s' lists adapter '%s' twice", rd.Kind, adapter)
		}
		seen[adapter] = true
	}
	return nil
}

// Href is the canonical path of resource below basePath. Owned resources
// nest under ownerPlural; without an owner id the root form is used.
func (rd *ResourceDefinition) Href(basePath, ownerPlural string, resource *Resource) string {
	if rd.IsOwned() && resource.OwnerID != nil && ownerPlural != "" {
		return fmt.Sprintf("%s/%s/%s/%s/%s", basePath, ownerPlural, *resource.OwnerID, rd.Plural, resource.ID)
	}
	return fmt.Sprintf("%s/%s/%s", basePath, rd.Plural, resource.ID)
}
