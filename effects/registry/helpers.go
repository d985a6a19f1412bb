package registry

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	effectmodel "github.com/on-the-ground/unidir_go/effects/internal/model"
)

func hash(key string) int {
	return int(xxhash.Sum64String(key) & 0x7fffffff)
}

// partitionKey is only used to pick a shard; token equality is still Go ==.
func partitionKey(id any) string {
	if p, ok := id.(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return fmt.Sprintf("%T/%v", id, id)
}

func getIndexByHash(id any, numShards int) int {
	switch numShards {
	case 0:
		panic("number of shards cannot be 0")
	case 1:
		return 0
	default:
		return hash(partitionKey(id)) % numShards
	}
}
