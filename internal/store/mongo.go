package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spendlens/internal/logger"
	"spendlens/internal/models"
	"spendlens/internal/uuid"
)

// ExpensesCollection holds one document per expense.
const ExpensesCollection = "expenses"

// Cursor is the subset of *mongo.Cursor the store reads results through.
type Cursor interface {
	All(ctx context.Context, results any) error
}

// DataStore is the subset of *mongo.Collection the store needs.
type DataStore interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (Cursor, error)
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) DataStore
}

// MongoCollection adapts *mongo.Collection to DataStore.
type MongoCollection struct {
	*mongo.Collection
}

// Find runs a query and returns its cursor.
func (c *MongoCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (Cursor, error) {
	cur, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to perform Find: %w", err)
	}
	return cur, nil
}

// MongoProvider adapts *mongo.Client to CollectionProvider.
type MongoProvider struct {
	client   *mongo.Client
	database string
}

// NewMongoProvider creates a provider for collections in database.
func NewMongoProvider(client *mongo.Client, database string) *MongoProvider {
	return &MongoProvider{client: client, database: database}
}

// Collection returns a DataStore for the given collection name.
func (p *MongoProvider) Collection(name string) DataStore {
	return &MongoCollection{p.client.Database(p.database).Collection(name)}
}

// ConnectMongo establishes and verifies a connection to MongoDB.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	log := logger.Named("store.mongo")
	log.Debugw("Connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Infow("Connected to MongoDB")
	return client, nil
}

// mongoExpense is the stored document shape.
type mongoExpense struct {
	ID          string               `bson:"_id"`
	UserID      string               `bson:"userId"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Category    string               `bson:"category"`
	Description string               `bson:"description"`
	Currency    string               `bson:"currency"`
	Date        time.Time            `bson:"date"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (d mongoExpense) toModel() (models.Expense, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return models.Expense{}, fmt.Errorf("invalid amount on expense %s: %w", d.ID, err)
	}
	e := models.Expense{
		UserID:      d.UserID,
		Amount:      amount,
		Category:    models.Category(d.Category),
		Description: d.Description,
		Currency:    d.Currency,
		Date:        d.Date.UTC(),
	}
	e.ID = d.ID
	e.CreatedAt = d.CreatedAt
	e.UpdatedAt = d.UpdatedAt
	return e, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid amount %s: %w", d, err)
	}
	return v, nil
}

// MongoStore keeps expenses in a MongoDB collection.
type MongoStore struct {
	provider CollectionProvider
	now      func() time.Time
}

// NewMongoStore creates a store over provider.
func NewMongoStore(provider CollectionProvider) *MongoStore {
	return &MongoStore{provider: provider, now: time.Now}
}

func (s *MongoStore) collection() DataStore {
	return s.provider.Collection(ExpensesCollection)
}

// List returns the user's expenses, newest first.
func (s *MongoStore) List(ctx context.Context, userID string) ([]models.Expense, error) {
	cur, err := s.collection().Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	var docs []mongoExpense
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding expenses: %w", err)
	}

	expenses := make([]models.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.toModel()
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// Create inserts a new expense document.
func (s *MongoStore) Create(ctx context.Context, userID string, f models.ExpenseFields) (*models.Expense, error) {
	amount, err := toDecimal128(f.Amount)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	doc := mongoExpense{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Category:    string(f.Category),
		Description: f.Description,
		Currency:    f.Currency,
		Date:        f.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	e, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update sets the editable fields of the user's expense id.
func (s *MongoStore) Update(ctx context.Context, userID, id string, f models.ExpenseFields) error {
	amount, err := toDecimal128(f.Amount)
	if err != nil {
		return err
	}
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{
			"amount":      amount,
			"category":    string(f.Category),
			"description": f.Description,
			"currency":    f.Currency,
			"date":        f.Date,
			"updatedAt":   s.now().UTC(),
		}})
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user's expense id.
func (s *MongoStore) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": id, "userId": userID}); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}
