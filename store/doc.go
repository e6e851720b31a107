// Package store defines checkpoint persistence for graph runs.
//
// A Checkpoint holds the JSON-encoded state of a pipeline after a node
// completed, the nodes that were due to run next and the thread it belongs
// to. The human-in-the-loop review pipeline relies on this to stop in one
// process and resume in another.
//
// Back-ends live in sub-packages:
//
//   - store/memory: in-process map, the default
//   - store/file: one JSON file per thread
//   - store/sqlite: mattn/go-sqlite3
//   - store/postgres: jackc/pgx pool
//   - store/redis: redis/go-redis
//
// store/backend picks one of them from configuration.
package store
