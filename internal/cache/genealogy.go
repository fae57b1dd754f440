package cache

import (
	"context"
	"fmt"
	"time"
)

const genealogyCacheTTL = 2 * time.Minute

func genealogyKey(distributorID uint, depth int) string {
	return fmt.Sprintf("genealogy:%d:%d", distributorID, depth)
}

// GetGenealogy reads a cached genealogy fragment into dest.
func GetGenealogy(ctx context.Context, distributorID uint, depth int, dest interface{}) (bool, error) {
	return GetJSON(ctx, genealogyKey(distributorID, depth), dest)
}

// SetGenealogy caches a genealogy fragment.
func SetGenealogy(ctx context.Context, distributorID uint, depth int, value interface{}) error {
	return SetJSON(ctx, genealogyKey(distributorID, depth), value, genealogyCacheTTL)
}

// InvalidateGenealogy drops cached fragments for one root across the depths
// the portal exposes.
func InvalidateGenealogy(ctx context.Context, distributorID uint, maxDepth int) error {
	for depth := 1; depth <= maxDepth; depth++ {
		if err := Del(ctx, genealogyKey(distributorID, depth)); err != nil {
			return err
		}
	}
	return nil
}
