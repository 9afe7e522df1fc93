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

// Package crd keeps the resource kinds the API serves and the adapters whose
// reports decide each kind's status. Kinds come from configuration and may be
// replaced by hyperfleet.io CRDs read from a directory or from the cluster.

package crd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

const (
	HyperfleetGroup = "hyperfleet.io"

	AnnotationScope            = "hyperfleet.io/scope"
	AnnotationOwnerKind        = "hyperfleet.io/owner-kind"
	AnnotationOwnerPathParam   = "hyperfleet.io/owner-path-param"
	AnnotationRequiredAdapters = "hyperfleet.io/required-adapters"
	AnnotationEnabled          = "hyperfleet.io/enabled"
)

var apiVersion = HyperfleetGroup + "/v1"

// Registry is safe for concurrent use. Disabled kinds can be looked up but are
// neither listed nor given required adapters.
type Registry struct {
	mu       sync.RWMutex
	byKind   map[string]*api.ResourceDefinition
	byPlural map[string]*api.ResourceDefinition
	enabled  []*api.ResourceDefinition
}

func NewRegistry() *Registry {
	return &Registry{
		byKind:   map[string]*api.ResourceDefinition{},
		byPlural: map[string]*api.ResourceDefinition{},
	}
}

// BuiltinDefinitions are the Cluster and NodePool kinds with the adapters
// required by cfg.
func BuiltinDefinitions(cfg *config.AdaptersConfig) []*api.ResourceDefinition {
	return []*api.ResourceDefinition{
		{
			APIVersion:   apiVersion,
			Kind:         "Cluster",
			Plural:       "clusters",
			Singular:     "cluster",
			Scope:        api.ResourceScopeRoot,
			StatusConfig: api.StatusConfig{RequiredAdapters: cfg.Cluster},
			Enabled:      true,
		},
		{
			APIVersion:   apiVersion,
			Kind:         "NodePool",
			Plural:       "nodepools",
			Singular:     "nodepool",
			Scope:        api.ResourceScopeOwned,
			Owner:        &api.OwnerRef{Kind: "Cluster", PathParam: "cluster_id"},
			StatusConfig: api.StatusConfig{RequiredAdapters: cfg.NodePool},
			Enabled:      true,
		},
	}
}

// Load puts the built-in kinds in the registry, then overlays the CRDs of the
// configured source.
func (r *Registry) Load(ctx context.Context, cfg *config.AdaptersConfig) error {
	r.mu.Lock()
	for _, def := range BuiltinDefinitions(cfg) {
		r.put(def)
	}
	r.mu.Unlock()

	switch cfg.Source {
	case config.AdapterSourceDirectory:
		return r.LoadFromDirectory(cfg.CRDPath)
	case config.AdapterSourceKubernetes:
		return r.LoadFromKubernetes(ctx)
	}
	return nil
}

// LoadFromKubernetes reads the CRDs through the in-cluster config, or the
// local kubeconfig outside a cluster.
func (r *Registry) LoadFromKubernetes(ctx context.Context) error {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			clientcmd.NewDefaultClientConfigLoadingRules(), &clientcmd.ConfigOverrides{},
		).ClientConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to get kubernetes config: %w", err)
	}

	client, err := apiextensionsclient.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("failed to create apiextensions client: %w", err)
	}
	return r.LoadFromClient(ctx, client)
}

func (r *Registry) LoadFromClient(ctx context.Context, client apiextensionsclient.Interface) error {
	list, err := client.ApiextensionsV1().CustomResourceDefinitions().List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list CRDs: %w", err)
	}
	crds := make([]*apiextensionsv1.CustomResourceDefinition, 0, len(list.Items))
	for i := range list.Items {
		crds = append(crds, &list.Items[i])
	}
	return r.apply(crds)
}

// LoadFromDirectory reads every .yaml and .yml file of dir as one CRD.
func (r *Registry) LoadFromDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var crds []*apiextensionsv1.CustomResourceDefinition
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		crd := &apiextensionsv1.CustomResourceDefinition{}
		if err := yaml.Unmarshal(data, crd); err != nil {
			return fmt.Errorf("failed to parse CRD from %s: %w", path, err)
		}
		crds = append(crds, crd)
	}
	return r.apply(crds)
}

// apply parses every hyperfleet.io CRD before touching the registry, so a bad
// CRD leaves the loaded kinds as they were.
func (r *Registry) apply(crds []*apiextensionsv1.CustomResourceDefinition) error {
	var defs []*api.ResourceDefinition
	for _, crd := range crds {
		if crd.Spec.Group != HyperfleetGroup {
			continue
		}
		def, err := definitionFor(crd)
		if err != nil {
			return fmt.Errorf("failed to parse CRD %s: %w", crd.Name, err)
		}
		defs = append(defs, def)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		r.put(def)
	}
	return nil
}

func definitionFor(crd *apiextensionsv1.CustomResourceDefinition) (*api.ResourceDefinition, error) {
	annotations := crd.Annotations

	def := &api.ResourceDefinition{
		APIVersion: apiVersion,
		Kind:       crd.Spec.Names.Kind,
		Plural:     crd.Spec.Names.Plural,
		Singular:   crd.Spec.Names.Singular,
		Enabled:    annotations[AnnotationEnabled] != "false",
		StatusConfig: api.StatusConfig{
			RequiredAdapters: splitList(annotations[AnnotationRequiredAdapters]),
		},
	}

	switch scope := annotations[AnnotationScope]; scope {
	case "", "Root":
		def.Scope = api.ResourceScopeRoot
	case "Owned":
		def.Scope = api.ResourceScopeOwned
		owner := &api.OwnerRef{Kind: annotations[AnnotationOwnerKind], PathParam: annotations[AnnotationOwnerPathParam]}
		if owner.Kind == "" {
			return nil, fmt.Errorf("owned resource must have %s annotation", AnnotationOwnerKind)
		}
		if owner.PathParam == "" {
			owner.PathParam = strings.ToLower(owner.Kind) + "_id"
		}
		def.Owner = owner
	default:
		return nil, fmt.Errorf("invalid scope '%s': must be 'Root' or 'Owned'", scope)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// splitList parses "a, b,c" into its non-empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// put replaces any definition of the same kind. Callers hold mu.
func (r *Registry) put(def *api.ResourceDefinition) {
	if old, ok := r.byKind[def.Kind]; ok {
		delete(r.byPlural, old.Plural)
		r.enabled = slices.DeleteFunc(r.enabled, func(d *api.ResourceDefinition) bool { return d.Kind == def.Kind })
	}
	r.byKind[def.Kind] = def
	r.byPlural[def.Plural] = def
	if def.Enabled {
		r.enabled = append(r.enabled, def)
	}
}

// Register adds def, refusing a kind or plural that is already taken.
func (r *Registry) Register(def *api.ResourceDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKind[def.Kind]; exists {
		return fmt.Errorf("duplicate kind '%s'", def.Kind)
	}
	if _, exists := r.byPlural[def.Plural]; exists {
		return fmt.Errorf("duplicate plural '%s'", def.Plural)
	}
	r.put(def)
	return nil
}

func (r *Registry) GetByKind(kind string) (*api.ResourceDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byKind[kind]
	return def, ok
}

func (r *Registry) GetByPlural(plural string) (*api.ResourceDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byPlural[plural]
	return def, ok
}

// All returns the enabled definitions in load order.
func (r *Registry) All() []*api.ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.enabled)
}

// RequiredAdapters returns the adapters whose reports decide the status of kind.
// Unknown and disabled kinds have none.
func (r *Registry) RequiredAdapters(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byKind[kind]
	if !ok || !def.Enabled {
		return nil
	}
	return slices.Clone(def.StatusConfig.RequiredAdapters)
}

// Count returns the number of enabled definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.enabled)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is shared by the API routes and the condition aggregator.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Load fills the default registry.
func Load(ctx context.Context, cfg *config.AdaptersConfig) error {
	return defaultRegistry.Load(ctx, cfg)
}
