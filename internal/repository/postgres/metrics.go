package postgres

import (
	"time"

	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

func observe(operation, table string, start time.Time) {
	metrics.RecordDBQuery(operation, table, time.Since(start))
}
