package sharding

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard routes a tenant to its shard. All of a tenant's price rules live
// on one shard so a snapshot load is a single-shard query.
func (r *ShardRouter) GetShard(tenantID int64) int {
	shardIndex := int(tenantID % int64(r.ShardCount))
	return shardIndex
}
