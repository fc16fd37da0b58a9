package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spendlens/internal/logger"
	"spendlens/internal/models"
)

// ExpensesRoot is the database path holding one child per user.
const ExpensesRoot = "expenses"

const firebaseDateLayout = "2006-01-02"

// Node is the subset of a Realtime Database reference the store needs.
type Node interface {
	Key() string
	Child(path string) Node
	Get(ctx context.Context, v any) error
	Push(ctx context.Context, v any) (Node, error)
	Set(ctx context.Context, v any) error
	Delete(ctx context.Context) error
}

// RefNode adapts *db.Ref to Node.
type RefNode struct {
	*db.Ref
}

// Key returns the last path segment.
func (n RefNode) Key() string { return n.Ref.Key }

// Child returns the node at path below n.
func (n RefNode) Child(path string) Node { return RefNode{n.Ref.Child(path)} }

// Push creates a child with a generated key.
func (n RefNode) Push(ctx context.Context, v any) (Node, error) {
	ref, err := n.Ref.Push(ctx, v)
	if err != nil {
		return nil, err
	}
	return RefNode{ref}, nil
}

// FirebaseStore keeps expenses at expenses/{userId}/{expenseId} in a
// Firebase Realtime Database.
type FirebaseStore struct {
	root Node
	now  func() time.Time
	log  *zap.SugaredLogger
}

// NewFirebaseStore creates a store rooted at the database's expenses node.
func NewFirebaseStore(client *db.Client) *FirebaseStore {
	return NewFirebaseStoreAt(RefNode{client.NewRef(ExpensesRoot)})
}

// NewFirebaseStoreAt creates a store over an arbitrary root node.
func NewFirebaseStoreAt(root Node) *FirebaseStore {
	return &FirebaseStore{root: root, now: time.Now, log: logger.Named("store.firebase")}
}

// firebaseExpense is the stored document shape.
type firebaseExpense struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

func toFirebase(f models.ExpenseFields) firebaseExpense {
	amount, _ := f.Amount.Float64()
	return firebaseExpense{
		Amount:      amount,
		Category:    string(f.Category),
		Description: f.Description,
		Currency:    f.Currency,
		Date:        f.Date.Format(firebaseDateLayout),
	}
}

func (d firebaseExpense) toModel(userID, id string) (models.Expense, error) {
	date, err := parseDocDate(d.Date)
	if err != nil {
		return models.Expense{}, err
	}
	e := models.Expense{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(d.Amount),
		Category:    models.Category(d.Category),
		Description: d.Description,
		Currency:    d.Currency,
		Date:        date,
	}
	e.ID = id
	e.CreatedAt, _ = time.Parse(time.RFC3339, d.CreatedAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, d.UpdatedAt)
	return e, nil
}

// parseDocDate accepts plain dates and full RFC 3339 timestamps, both of
// which exist in stored data.
func parseDocDate(s string) (time.Time, error) {
	if t, err := time.Parse(firebaseDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// List reads every child of the user's node. Documents that cannot be
// decoded are skipped and logged.
func (s *FirebaseStore) List(ctx context.Context, userID string) ([]models.Expense, error) {
	var raw map[string]json.RawMessage
	if err := s.root.Child(userID).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading expenses: %w", err)
	}

	expenses := make([]models.Expense, 0, len(raw))
	for id, msg := range raw {
		var doc firebaseExpense
		if err := json.Unmarshal(msg, &doc); err != nil {
			s.log.Warnw("Skipping malformed expense", "user_id", userID, "expense_id", id, "error", err)
			continue
		}
		e, err := doc.toModel(userID, id)
		if err != nil {
			s.log.Warnw("Skipping malformed expense", "user_id", userID, "expense_id", id, "error", err)
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// Create pushes a new child under the user's node.
func (s *FirebaseStore) Create(ctx context.Context, userID string, f models.ExpenseFields) (*models.Expense, error) {
	doc := toFirebase(f)
	now := s.now().UTC()
	doc.CreatedAt = now.Format(time.RFC3339)
	doc.UpdatedAt = doc.CreatedAt

	node, err := s.root.Child(userID).Push(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	e, err := doc.toModel(userID, node.Key())
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update overwrites the user's expense id, preserving its creation time.
func (s *FirebaseStore) Update(ctx context.Context, userID, id string, f models.ExpenseFields) error {
	node := s.root.Child(userID).Child(id)

	var existing *firebaseExpense
	if err := node.Get(ctx, &existing); err != nil {
		return fmt.Errorf("reading expense: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}

	doc := toFirebase(f)
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if err := node.Set(ctx, doc); err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}
	return nil
}

// Delete removes the user's expense id.
func (s *FirebaseStore) Delete(ctx context.Context, userID, id string) error {
	if err := s.root.Child(userID).Child(id).Delete(ctx); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}
