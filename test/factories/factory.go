package factories

import (
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

type Factories struct {
}

// NewID generates an ID in the same lowercase base32 ksuid form the API assigns
func (f *Factories) NewID() string {
	return api.NewID()
}
