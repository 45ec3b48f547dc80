package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const authEventsCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureAuditIndexes indexes the audit trail by username and time.
func EnsureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("username_timestamp"),
	}
	if _, err := db.Collection(authEventsCollection).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// InsertEvent appends one entry to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	doc := bson.M{
		"type":         string(event.Type),
		"username":     event.Username,
		"timestamp":    ts.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.Actor != "" {
		doc["actor"] = event.Actor
	}
	if event.RemoteIP != "" {
		doc["remote_ip"] = event.RemoteIP
	}

	_, err := r.db.Collection(authEventsCollection).InsertOne(ctx, doc)
	return err
}
