package rawdb

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/typedb"
)

var (
	preimageCounter    = metrics.NewRegisteredCounter("db/preimage/total", nil)
	preimageHitCounter = metrics.NewRegisteredCounter("db/preimage/hits", nil)
)

// ReadPreimage检索给定哈希的单个前映像
func ReadPreimage(db typedb.KeyValueReader, hash entity.Hash) []byte {
	data, _ := db.Get(preimageKey(hash))
	if len(data) != 0 {
		preimageHitCounter.Inc(1)
	}
	return data
}

// WritePreimages将提供的前映像集写入数据库。
func WritePreimages(db typedb.KeyValueWriter, preimages map[entity.Hash][]byte) {
	for hash, preimage := range preimages {
		if err := db.Put(preimageKey(hash), preimage); err != nil {
			log.Crit("Failed to store trie preimage", "err", err)
		}
	}
	preimageCounter.Inc(int64(len(preimages)))
}
