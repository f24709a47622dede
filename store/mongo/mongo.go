// Package mongo implements the backend store on MongoDB.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/store"
)

// Store implements store.Store backed by MongoDB. The driver maintains its
// own connection pool; each operation checks a handle out for its own
// context and releases it on return.
type Store struct {
	client  *mongo.Client
	options Options
}

// New creates a MongoDB store. Connect must be called before use.
func New(options Options) *Store {
	return &Store{options: options}
}

// Connect establishes the client and verifies the deployment is reachable.
func (s *Store) Connect(ctx context.Context) error {
	opt := mongoopts.Client().ApplyURI(s.options.URI)

	client, err := mongo.Connect(opt)
	if err != nil {
		return errors.NewConnectionError(s.options.URI,
			fmt.Errorf("failed to connect: %w", err))
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return errors.NewConnectionError(s.options.URI,
			fmt.Errorf("ping failed: %w", err))
	}

	s.client = client
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// Health checks that the deployment is still reachable.
func (s *Store) Health(ctx context.Context) error {
	if s.client == nil {
		return errors.ErrNotConnected
	}

	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.NewConnectionError(s.options.URI,
			fmt.Errorf("health check failed: %w", err))
	}
	return nil
}

func (s *Store) clusters() *mongo.Collection {
	return s.client.Database(s.options.Database).Collection(s.options.ClusterCollection)
}

func (s *Store) nodes() *mongo.Collection {
	return s.client.Database(s.options.Database).Collection(s.options.NodeCollection)
}

// ClusterExists reports whether a document for clusterID has been inserted.
func (s *Store) ClusterExists(ctx context.Context, clusterID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.OperationTimeout)
	defer cancel()

	err := s.clusters().FindOne(ctx, bson.M{"cluster_id": clusterID}).Err()
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, errors.NewStoreError("cluster-exists", err)
	}
	return true, nil
}

// InsertClusterStats inserts one cluster telemetry document.
func (s *Store) InsertClusterStats(ctx context.Context, doc store.ClusterStats) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.OperationTimeout)
	defer cancel()

	if _, err := s.clusters().InsertOne(ctx, doc); err != nil {
		return errors.NewStoreError("insert-cluster-stats", err)
	}
	return nil
}

// FindClusterStats returns the document for clusterID.
func (s *Store) FindClusterStats(ctx context.Context, clusterID string) (*store.ClusterStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.OperationTimeout)
	defer cancel()

	var doc store.ClusterStats
	err := s.clusters().FindOne(ctx, bson.M{"cluster_id": clusterID}).Decode(&doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.NewStoreError("find-cluster-stats", err)
	}
	return &doc, nil
}

// InsertNodeStats inserts one per-node telemetry document.
func (s *Store) InsertNodeStats(ctx context.Context, doc store.NodeStats) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.OperationTimeout)
	defer cancel()

	if _, err := s.nodes().InsertOne(ctx, doc); err != nil {
		return errors.NewStoreError("insert-node-stats", err)
	}
	return nil
}
