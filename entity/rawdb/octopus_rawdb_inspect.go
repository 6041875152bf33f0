package rawdb

import (
	"bytes"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/typedb"
)

// StoreStats按类别统计节点存储中的条目数和大小。
type StoreStats struct {
	Nodes     int
	NodeSize  common.StorageSize
	Preimages int
	ImageSize common.StorageSize
	Unknown   int
	OtherSize common.StorageSize
}

// InspectStore遍历整个键空间，按键的格式给条目分类。
func InspectStore(db typedb.Iteratee) (StoreStats, error) {
	var (
		stats  StoreStats
		count  int
		start  = time.Now()
		logged = time.Now()
	)
	it := db.NewIterator(nil, nil)
	defer it.Release()

	for it.Next() {
		key := it.Key()
		size := common.StorageSize(len(key) + len(it.Value()))

		switch {
		case len(key) == entity.HashLength:
			stats.Nodes++
			stats.NodeSize += size
		case len(key) == len(PreimagePrefix)+entity.HashLength && bytes.HasPrefix(key, PreimagePrefix):
			stats.Preimages++
			stats.ImageSize += size
		default:
			stats.Unknown++
			stats.OtherSize += size
		}
		count++
		if count%1000 == 0 && time.Since(logged) > 8*time.Second {
			log.Info("Inspecting node store", "count", count, "elapsed", common.PrettyDuration(time.Since(start)))
			logged = time.Now()
		}
	}
	return stats, it.Error()
}
