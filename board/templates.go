package board

import (
	"fmt"
	"strings"

	"github.com/ben-axnick/PFCloneLogic/cache"
	"github.com/ben-axnick/PFCloneLogic/config"
)

const templateCachePrefix = "layout:"

func templateLoader(cfg *config.Config, key string) (any, error) {
	name := strings.TrimPrefix(key, templateCachePrefix)
	rows, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q", name)
	}
	return NewTemplate(name, rows)
}

// GetTemplate returns the shared template of a named layout, building it
// on first use.
func GetTemplate(cfg *config.Config, name string) (*Template, error) {
	obj, err := cache.Load(cfg, templateCachePrefix+name, templateLoader)
	if err != nil {
		return nil, err
	}
	return obj.(*Template), nil
}
