package triecache

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	nodeSharedHitMeter = metrics.NewRegisteredMeter("triecache/node/shared", nil)
	nodeLocalHitMeter  = metrics.NewRegisteredMeter("triecache/node/local", nil)
	nodeMissMeter      = metrics.NewRegisteredMeter("triecache/node/miss", nil)
	nodeInsertMeter    = metrics.NewRegisteredMeter("triecache/node/insert", nil)

	dataHitMeter    = metrics.NewRegisteredMeter("triecache/data/hit", nil)
	dataMissMeter   = metrics.NewRegisteredMeter("triecache/data/miss", nil)
	dataRecordMeter = metrics.NewRegisteredMeter("triecache/data/record", nil)
	dataDetachMeter = metrics.NewRegisteredMeter("triecache/data/detach", nil)

	mergeNodesMeter  = metrics.NewRegisteredMeter("triecache/merge/nodes", nil)
	mergeValuesMeter = metrics.NewRegisteredMeter("triecache/merge/values", nil)

	sharedNodesCounter = metrics.NewRegisteredCounter("triecache/shared/nodes", nil)
	sharedRootsCounter = metrics.NewRegisteredCounter("triecache/shared/roots", nil)
)

var logger = log.New("module", "triecache")
