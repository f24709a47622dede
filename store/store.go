// Package store defines the backend-resource contract jobs are executed
// against, and the telemetry document types they carry.
package store

import (
	"context"
	"time"
)

// ClusterStats is one cluster-level telemetry document.
type ClusterStats struct {
	ClusterID  string    `bson:"cluster_id" json:"cluster_id"`
	Nodes      int       `bson:"nodes" json:"nodes"`
	CPUPercent float64   `bson:"cpu_percent" json:"cpu_percent"`
	MemPercent float64   `bson:"mem_percent" json:"mem_percent"`
	ReportedAt time.Time `bson:"reported_at" json:"reported_at"`
}

// NodeStats is one per-node telemetry document.
type NodeStats struct {
	ClusterID  string    `bson:"cluster_id" json:"cluster_id"`
	NodeID     string    `bson:"node_id" json:"node_id"`
	CPUPercent float64   `bson:"cpu_percent" json:"cpu_percent"`
	MemPercent float64   `bson:"mem_percent" json:"mem_percent"`
	ReportedAt time.Time `bson:"reported_at" json:"reported_at"`
}

// Store is the shared backend resource. Implementations are accessed only
// from worker goroutines, one operation per job.
type Store interface {
	// ClusterExists reports whether a cluster document with the given
	// identifier has already been inserted.
	ClusterExists(ctx context.Context, clusterID string) (bool, error)

	// InsertClusterStats inserts one cluster telemetry document.
	InsertClusterStats(ctx context.Context, doc ClusterStats) error

	// FindClusterStats returns the document for clusterID, or
	// errors.ErrNotFound when none exists.
	FindClusterStats(ctx context.Context, clusterID string) (*ClusterStats, error)

	// InsertNodeStats inserts one per-node telemetry document.
	InsertNodeStats(ctx context.Context, doc NodeStats) error
}
