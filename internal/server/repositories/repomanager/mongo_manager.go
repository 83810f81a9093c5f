package repomanager

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoDatabase = "alumnikeeper"

// MongoRepositoryManager keeps accounts and sessions in one MongoDB database.
type MongoRepositoryManager struct {
	client   *mongo.Client
	users    *users.MongoRepository
	sessions *sessions.MongoRepository
}

// OpenMongo connects to dsn. The database name comes from the URI path.
func OpenMongo(ctx context.Context, dsn string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(mongoDatabaseName(dsn))
	return &MongoRepositoryManager{
		client:   client,
		users:    users.NewMongoRepository(db),
		sessions: sessions.NewMongoRepository(db),
	}, nil
}

func mongoDatabaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func (m *MongoRepositoryManager) Users() users.Repository { return m.users }

func (m *MongoRepositoryManager) Sessions() sessions.Repository { return m.sessions }

// RunMigrations creates the unique and TTL indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.sessions.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
