package cache

import (
	"sync"

	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/rs/zerolog/log"
)

// The cache holds objects that are expensive to build and immutable once
// built, so that every game, search worker and service request can share
// them. Board templates are the main tenant.

type cache struct {
	sync.Mutex
	objects map[string]any
	loads   int
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache is the process-wide object cache.
var GlobalObjectCache *cache

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting-obj-from-cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading-into-cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	c.loads++
	return obj, nil
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the object cached under name, building it with loadFunc on
// first use. Failed loads are not cached.
func Load(cfg *config.Config, name string, loadFunc loadFunc) (any, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, name, loadFunc)
}

// Loads reports how many objects have been built so far.
func Loads() int {
	if GlobalObjectCache == nil {
		return 0
	}
	GlobalObjectCache.Lock()
	defer GlobalObjectCache.Unlock()
	return GlobalObjectCache.loads
}
