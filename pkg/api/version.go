package api

// Version and Commit identify the build, set with
// -ldflags "-X github.com/openshift-hyperfleet/hyperfleet/pkg/api.Version=<version>"
var (
	Version = "dev"
	Commit  = "unknown"
)
