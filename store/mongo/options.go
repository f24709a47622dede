package mongo

import "time"

// Options configures the MongoDB store.
type Options struct {
	// URI is the MongoDB connection string.
	URI string
	// Database is the database name.
	Database string
	// ClusterCollection holds cluster-level documents.
	ClusterCollection string
	// NodeCollection holds per-node documents.
	NodeCollection string
	// OperationTimeout bounds each store operation.
	OperationTimeout time.Duration
}

// DefaultOptions returns options with sensible defaults. URI is left empty
// and must be supplied by the caller.
func DefaultOptions() Options {
	return Options{
		Database:          "stathub",
		ClusterCollection: "cluster_stats",
		NodeCollection:    "node_stats",
		OperationTimeout:  10 * time.Second,
	}
}
