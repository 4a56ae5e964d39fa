package record

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/sicko7947/wldstore"
)

func countRead(key string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`wld_record_reads_total{key=%q}`, key)).Inc()
}

func countWrite(key string, compressed bool) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`wld_record_writes_total{key=%q}`, key)).Inc()
	if compressed {
		metrics.GetOrCreateCounter(fmt.Sprintf(`wld_record_compressed_writes_total{key=%q}`, key)).Inc()
	}
}

func countFailure(key string, err error) {
	kind := wldstore.KindOf(err)
	metrics.GetOrCreateCounter(fmt.Sprintf(`wld_record_write_failures_total{key=%q,kind=%q}`, key, string(kind))).Inc()
}
