package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

const (
	enquiriesCollection = "enquiries"
	connectTimeout      = 10 * time.Second
)

// MongoStore persists enquiries as documents in the "enquiries" collection.
// The UUID is stored as _id, so uniqueness is enforced by the server.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri, pings the primary and ensures the created_at
// index exists.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pctx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewMongoStore(client, client.Database(dbName))
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, coll: db.Collection(enquiriesCollection)}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    newestFirst(),
		Options: options.Index().SetName("idx_enquiries_created"),
	})
	if err != nil {
		return fmt.Errorf("create mongo index: %w", err)
	}
	return nil
}

// newestFirst is the sort shared by the index and listings; _id breaks ties.
func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
}

// CreateEnquiry inserts one document. A single InsertOne is atomic.
func (s *MongoStore) CreateEnquiry(ctx context.Context, in domain.EnquiryInput) (*domain.Enquiry, error) {
	// BSON dates carry millisecond precision. Round up so the record is never
	// dated before the call and a later read yields the same instant.
	e := domain.NewEnquiry(uuid.NewString(), domain.CeilTime(time.Now().UTC(), time.Millisecond), in)
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEnquiry fetches by _id, mapping mongo.ErrNoDocuments to ErrNotFound.
func (s *MongoStore) GetEnquiry(ctx context.Context, id string) (*domain.Enquiry, error) {
	var e domain.Enquiry
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// ListEnquiries returns a page ordered newest first and the total count.
func (s *MongoStore) ListEnquiries(ctx context.Context, offset, limit int) ([]domain.Enquiry, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	out := []domain.Enquiry{}
	if total == 0 {
		return out, 0, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{}, pageOptions(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, total, nil
}

func pageOptions(offset, limit int) *options.FindOptions {
	opts := options.Find().SetSort(newestFirst())
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// Stats returns the document count and the newest created_at.
func (s *MongoStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil || count == 0 {
		return 0, nil, err
	}
	var row struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	opts := options.FindOne().
		SetSort(newestFirst()).
		SetProjection(bson.M{"created_at": 1})
	if err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&row); err != nil {
		return 0, nil, err
	}
	newest := row.CreatedAt.UTC()
	return count, &newest, nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
