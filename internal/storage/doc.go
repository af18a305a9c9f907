// Package storage provides insert-only access to the AutoFarm tables:
// sensor readings, seed levels, alerts, and activity logs.
//
// The device link and API only ever append rows; historical queries are
// served by external tooling reading the SQLite file (or the InfluxDB
// mirror), so no read paths are exposed here.
//
// All repositories operate on the shared *sql.DB opened by the
// infrastructure/database package and are safe for concurrent use.
package storage
