package handlers

import (
	"net/http"
	"sort"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
)

// KindLister returns every registered resource definition.
type KindLister interface {
	All() []*api.ResourceDefinition
}

type metadataHandler struct {
	kinds KindLister
}

func NewMetadataHandler(kinds KindLister) *metadataHandler {
	return &metadataHandler{kinds: kinds}
}

type metadataKind struct {
	Kind             string   `json:"kind"`
	Href             string   `json:"href"`
	Owner            string   `json:"owner,omitempty"`
	RequiredAdapters []string `json:"required_adapters"`
}

// Get returns the API version and the kinds it serves.
func (h metadataHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			kinds := []metadataKind{}
			for _, def := range h.kinds.All() {
				kinds = append(kinds, metadataKind{
					Kind:             def.Kind,
					Href:             BasePath + "/" + def.Plural,
					Owner:            def.GetOwnerKind(),
					RequiredAdapters: def.StatusConfig.RequiredAdapters,
				})
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i].Kind < kinds[j].Kind })
			return map[string]interface{}{
				"kind":    "API",
				"id":      "hyperfleet",
				"href":    BasePath,
				"version": api.Version,
				"kinds":   kinds,
			}, nil
		},
	}

	handleGet(w, r, cfg)
}
