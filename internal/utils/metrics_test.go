package utils

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSQLPoolStats(t *testing.T) {
	RecordSQLPoolStats("postgres_test", sql.DBStats{OpenConnections: 7, InUse: 3, Idle: 4, WaitCount: 11})

	assert.Equal(t, 7.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("postgres_test", "open")))
	assert.Equal(t, 3.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("postgres_test", "in_use")))
	assert.Equal(t, 4.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("postgres_test", "idle")))
	assert.Equal(t, 11.0, testutil.ToFloat64(DBPoolWaitTotal.WithLabelValues("postgres_test")))
}

func TestRecordRedisPoolStats(t *testing.T) {
	RecordRedisPoolStats(10, 6, 2)

	assert.Equal(t, 4.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("redis", "in_use")))
	assert.Equal(t, 2.0, testutil.ToFloat64(DBPoolWaitTotal.WithLabelValues("redis")))
}
