package factories

import (
	"context"
	"fmt"
	"strings"

	"github.com/bxcodec/faker/v3"
	"gorm.io/datatypes"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/plugins/resources"
)

// NewResource stores a root resource of kind at generation 1 through the
// resource service, so its status is derived like one created over HTTP.
func (f *Factories) NewResource(id, kind string) (*api.Resource, error) {
	return f.create(&api.Resource{
		Meta: api.Meta{ID: id},
		Kind: kind,
	})
}

func (f *Factories) NewCluster(id string) (*api.Resource, error) {
	return f.NewResource(id, "Cluster")
}

func (f *Factories) NewClusterList(count int) (api.ResourceList, error) {
	var list api.ResourceList
	for i := 0; i < count; i++ {
		c, err := f.NewCluster(f.NewID())
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

// NewNodePool stores a NodePool owned by the given cluster
func (f *Factories) NewNodePool(id, clusterID string) (*api.Resource, error) {
	ownerKind := "Cluster"
	return f.create(&api.Resource{
		Meta:      api.Meta{ID: id},
		Kind:      "NodePool",
		OwnerID:   &clusterID,
		OwnerKind: &ownerKind,
	})
}

func (f *Factories) create(resource *api.Resource) (*api.Resource, error) {
	resourceService := resources.Service(&environments.Environment().Services)
	if resourceService == nil {
		return nil, fmt.Errorf("resource service is not initialized")
	}

	resource.Name = fmt.Sprintf("%s-%s", strings.ToLower(faker.Word()), resource.ID[:8])
	resource.Spec = datatypes.JSON(fmt.Sprintf(`{"region":%q}`, faker.Word()))
	resource.Labels = datatypes.JSON(`{"env":"test"}`)
	resource.Href = href(resource)

	created, svcErr := resourceService.Create(context.Background(), resource)
	if svcErr != nil {
		return nil, svcErr
	}
	return created, nil
}

func href(resource *api.Resource) string {
	kinds := environments.Environment().Kinds
	def, ok := kinds.GetByKind(resource.Kind)
	if !ok {
		return ""
	}
	var ownerPlural string
	if owner, ok := kinds.GetByKind(def.GetOwnerKind()); ok {
		ownerPlural = owner.Plural
	}
	return def.Href(hyperfleet.DefaultBasePath, ownerPlural, resource)
}
