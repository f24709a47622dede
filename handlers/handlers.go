// Package handlers wires the job-kind operations to the backend store.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/clusterstats/stathub/core"
	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
	"github.com/clusterstats/stathub/registry"
	"github.com/clusterstats/stathub/store"
)

// Operation names accepted on the intake channel.
const (
	RequestInsert = "insert"
	RequestFind   = "find"
)

// Register installs every handler into reg.
func Register(reg *registry.Registry, st store.Store) error {
	entries := []struct {
		kind    message.JobKind
		request string
		handler core.HandlerFunc
	}{
		{message.KindClusterStats, RequestInsert, InsertClusterStats(st)},
		{message.KindClusterStats, RequestFind, FindClusterStats(st)},
		{message.KindNodeStats, RequestInsert, InsertNodeStats(st)},
	}

	for _, e := range entries {
		if err := reg.Register(e.kind, e.request, e.handler); err != nil {
			return fmt.Errorf("register %s/%s: %w", e.kind, e.request, err)
		}
	}
	return nil
}

// InsertClusterStats inserts a cluster document unless one with the same
// cluster identifier already exists. A repeat submission for a known
// cluster performs zero insert attempts.
func InsertClusterStats(st store.Store) core.HandlerFunc {
	return func(ctx context.Context, job message.Job) error {
		var doc store.ClusterStats
		if err := json.Unmarshal(job.Data, &doc); err != nil {
			return errors.NewDecodeError(err)
		}
		if doc.ClusterID == "" {
			return errors.NewDecodeError(fmt.Errorf("missing cluster_id"))
		}

		exists, err := st.ClusterExists(ctx, doc.ClusterID)
		if err != nil {
			return err
		}
		if exists {
			slog.Debug("Cluster already recorded, skipping insert", "cluster_id", doc.ClusterID)
			return nil
		}

		return st.InsertClusterStats(ctx, doc)
	}
}

// findPayload is the data shape for a cluster find request.
type findPayload struct {
	ClusterID string `json:"cluster_id"`
}

// FindClusterStats looks the cluster document up. Jobs are fire-and-forget,
// so the result only surfaces in the log.
func FindClusterStats(st store.Store) core.HandlerFunc {
	return func(ctx context.Context, job message.Job) error {
		var p findPayload
		if err := json.Unmarshal(job.Data, &p); err != nil {
			return errors.NewDecodeError(err)
		}
		if p.ClusterID == "" {
			return errors.NewDecodeError(fmt.Errorf("missing cluster_id"))
		}

		doc, err := st.FindClusterStats(ctx, p.ClusterID)
		if err != nil {
			return err
		}

		slog.Debug("Cluster stats found",
			"cluster_id", doc.ClusterID,
			"nodes", doc.Nodes,
			"reported_at", doc.ReportedAt)
		return nil
	}
}

// InsertNodeStats inserts one per-node document.
func InsertNodeStats(st store.Store) core.HandlerFunc {
	return func(ctx context.Context, job message.Job) error {
		var doc store.NodeStats
		if err := json.Unmarshal(job.Data, &doc); err != nil {
			return errors.NewDecodeError(err)
		}
		if doc.ClusterID == "" || doc.NodeID == "" {
			return errors.NewDecodeError(fmt.Errorf("missing cluster_id or node_id"))
		}

		return st.InsertNodeStats(ctx, doc)
	}
}
