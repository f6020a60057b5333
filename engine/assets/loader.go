package assets

import "github.com/matms/mat-engine/engine/resources"

type Loader interface {
	// params is loader specific, e.g. *loaders.ImageParams
	Load(path string, params interface{}) (*resources.Resource, error)
	Unload(*resources.Resource) error
}
