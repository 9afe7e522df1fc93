package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/services"
)

// BasePath is the prefix of every versioned API route
const BasePath = "/api/hyperfleet/v1"

// ResourceHandler serves the CRUD routes of one registered kind.
// Owned kinds are nested under their owner's item path.
type ResourceHandler struct {
	resource       services.ResourceService
	kind           string
	plural         string
	isOwned        bool
	ownerKind      string
	ownerPlural    string
	ownerPathParam string
}

// ResourceHandlerConfig contains configuration for creating a ResourceHandler.
type ResourceHandlerConfig struct {
	Kind           string
	Plural         string
	IsOwned        bool
	OwnerKind      string
	OwnerPlural    string
	OwnerPathParam string
}

// NewResourceHandlerConfig derives the handler configuration from a definition.
// ownerPlural is only used for owned kinds.
func NewResourceHandlerConfig(def *api.ResourceDefinition, ownerPlural string) ResourceHandlerConfig {
	return ResourceHandlerConfig{
		Kind:           def.Kind,
		Plural:         def.Plural,
		IsOwned:        def.IsOwned(),
		OwnerKind:      def.GetOwnerKind(),
		OwnerPlural:    ownerPlural,
		OwnerPathParam: def.GetOwnerPathParam(),
	}
}

func NewResourceHandler(resourceService services.ResourceService, cfg ResourceHandlerConfig) *ResourceHandler {
	return &ResourceHandler{
		resource:       resourceService,
		kind:           cfg.Kind,
		plural:         cfg.Plural,
		isOwned:        cfg.IsOwned,
		ownerKind:      cfg.OwnerKind,
		ownerPlural:    cfg.OwnerPlural,
		ownerPathParam: cfg.OwnerPathParam,
	}
}

// Create handles POST requests to create a new resource at generation 1.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ResourceCreateRequest
	cfg := &handlerConfig{
		&req,
		[]validate{
			validateName(&req, "Name", "name", 3, 63),
			validateSpec(&req, "Spec", "spec"),
			h.validateKind(&req),
		},
		func() (interface{}, *errors.ServiceError) {
			ctx := r.Context()

			resource, err := presenters.ConvertResource(&req, h.kind)
			if err != nil {
				return nil, errors.GeneralError("%s", err)
			}
			resource.ID = api.NewID()

			if h.isOwned {
				ownerID := mux.Vars(r)[h.ownerPathParam]
				if _, svcErr := h.resource.GetByKind(ctx, h.ownerKind, ownerID); svcErr != nil {
					return nil, svcErr
				}
				resource.OwnerID = &ownerID
				resource.OwnerKind = &h.ownerKind
			}
			resource.Href = h.href(resource)

			created, svcErr := h.resource.Create(ctx, resource)
			if svcErr != nil {
				return nil, svcErr
			}
			return h.present(created)
		},
		handleError,
	}

	handle(w, r, cfg, http.StatusCreated)
}

// Get handles GET requests to retrieve a single resource.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			resource, svcErr := h.find(r)
			if svcErr != nil {
				return nil, svcErr
			}
			return h.present(resource)
		},
	}

	handleGet(w, r, cfg)
}

// List handles GET requests to list resources of the kind, or under one owner.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			ctx := r.Context()
			listArgs := services.NewListArguments(r.URL.Query())

			var resources api.ResourceList
			var total int64
			var svcErr *errors.ServiceError
			if h.isOwned {
				ownerID := mux.Vars(r)[h.ownerPathParam]
				resources, total, svcErr = h.resource.ListByOwner(ctx, h.kind, ownerID, listArgs)
			} else {
				resources, total, svcErr = h.resource.ListByKind(ctx, h.kind, listArgs)
			}
			if svcErr != nil {
				return nil, svcErr
			}
			return presentResourceList(h.kind, listArgs, resources, total, func(string) string { return h.plural })
		},
	}

	handleList(w, r, cfg)
}

// Patch handles PATCH requests. Only a changed spec bumps the generation.
func (h *ResourceHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch api.ResourcePatchRequest

	cfg := &handlerConfig{
		&patch,
		[]validate{},
		func() (interface{}, *errors.ServiceError) {
			found, svcErr := h.find(r)
			if svcErr != nil {
				return nil, svcErr
			}

			if patch.Spec != nil {
				specJSON, err := json.Marshal(*patch.Spec)
				if err != nil {
					return nil, errors.GeneralError("Failed to marshal spec: %v", err)
				}
				found.Spec = specJSON
			}
			if patch.Labels != nil {
				labelsJSON, err := json.Marshal(*patch.Labels)
				if err != nil {
					return nil, errors.GeneralError("Failed to marshal labels: %v", err)
				}
				found.Labels = labelsJSON
			}

			resource, svcErr := h.resource.Replace(r.Context(), found)
			if svcErr != nil {
				return nil, svcErr
			}
			return h.present(resource)
		},
		handleError,
	}

	handle(w, r, cfg, http.StatusOK)
}

// Delete handles DELETE requests to remove a resource.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			resource, svcErr := h.find(r)
			if svcErr != nil {
				return nil, svcErr
			}
			if svcErr := h.resource.Delete(r.Context(), h.kind, resource.ID); svcErr != nil {
				return nil, svcErr
			}
			return nil, nil
		},
	}

	handleDelete(w, r, cfg, http.StatusNoContent)
}

func (h *ResourceHandler) find(r *http.Request) (*api.Resource, *errors.ServiceError) {
	vars := mux.Vars(r)
	if h.isOwned {
		return h.resource.GetByOwner(r.Context(), h.kind, vars[h.ownerPathParam], vars["id"])
	}
	return h.resource.GetByKind(r.Context(), h.kind, vars["id"])
}

// validateKind accepts an omitted kind or the handler's own kind.
func (h *ResourceHandler) validateKind(req *api.ResourceCreateRequest) validate {
	return func() *errors.ServiceError {
		if req.Kind == nil {
			return nil
		}
		return validateKind(req, "Kind", "kind", h.kind)()
	}
}

func (h *ResourceHandler) href(resource *api.Resource) string {
	if h.isOwned && resource.OwnerID != nil {
		return fmt.Sprintf("%s/%s/%s/%s/%s", BasePath, h.ownerPlural, *resource.OwnerID, h.plural, resource.ID)
	}
	return fmt.Sprintf("%s/%s/%s", BasePath, h.plural, resource.ID)
}

func (h *ResourceHandler) present(resource *api.Resource) (interface{}, *errors.ServiceError) {
	presented, err := presenters.PresentResource(resource, h.plural)
	if err != nil {
		return nil, errors.GeneralError("Unable to present %s: %s", h.kind, err)
	}
	return presented, nil
}

func presentResourceList(
	kind string, args *services.ListArguments, resources api.ResourceList, total int64, plural func(kind string) string,
) (interface{}, *errors.ServiceError) {
	list := presenters.ResourceList{
		Kind:  kind + "List",
		Page:  args.Page,
		Total: total,
		Items: make([]presenters.Resource, 0, len(resources)),
	}
	for _, resource := range resources {
		presented, err := presenters.PresentResource(resource, plural(resource.Kind))
		if err != nil {
			return nil, errors.GeneralError("Unable to present %s: %s", resource.Kind, err)
		}
		list.Items = append(list.Items, presented)
	}
	list.Size = len(list.Items)
	return list, nil
}
