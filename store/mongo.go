package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore keeps transactions in the bridge_transactions collection.
// Update serializes writers to one id with a distributed lock, so several
// engine instances can share the collection.
type MongoStore struct {
	db app.Database
}

func NewMongoStore(db app.Database) *MongoStore {
	return &MongoStore{db: db}
}

func lockResource(id string) string {
	return fmt.Sprintf("%s/%s", models.CollectionTransactions, id)
}

func (s *MongoStore) Create(ctx context.Context, tx *models.BridgeTransaction) error {
	err := s.db.InsertOne(ctx, models.CollectionTransactions, tx)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", common.ErrDuplicateId, tx.Id)
	}
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	var tx models.BridgeTransaction
	err := s.db.FindOne(ctx, models.CollectionTransactions, bson.M{"_id": id}, &tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *MongoStore) ListByAddress(ctx context.Context, address string) ([]*models.BridgeTransaction, error) {
	match := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(address) + "$", Options: "i"}
	filter := bson.M{
		"$or": []bson.M{
			{"from_address": match},
			{"to_address": match},
		},
	}

	txs := []*models.BridgeTransaction{}
	if err := s.db.FindMany(ctx, models.CollectionTransactions, filter, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *MongoStore) List(ctx context.Context, phases ...models.Phase) ([]*models.BridgeTransaction, error) {
	filter := bson.M{}
	if len(phases) > 0 {
		filter["phase"] = bson.M{"$in": phases}
	}

	txs := []*models.BridgeTransaction{}
	if err := s.db.FindMany(ctx, models.CollectionTransactions, filter, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.BridgeTransaction, error) {
	logger := log.WithField("transaction_id", id)

	lockId, err := s.db.XLock(ctx, lockResource(id))
	if err != nil {
		return nil, fmt.Errorf("error locking %s: %w", id, err)
	}
	defer func() {
		if err := s.db.Unlock(lockId); err != nil {
			logger.WithError(err).Warn("[STORE] Error unlocking transaction")
		}
	}()

	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(tx); err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"phase":                   tx.Phase,
			"source_tx_ref":           tx.SourceTxRef,
			"target_tx_ref":           tx.TargetTxRef,
			"status_history":          tx.StatusHistory,
			"updated_at":              tx.UpdatedAt,
			"estimated_completion_at": tx.EstimatedCompletionAt,
		},
	}
	err = s.db.UpdateOne(ctx, models.CollectionTransactions, bson.M{"_id": id}, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("phase", tx.Phase).Debug("[STORE] Updated transaction")
	return tx, nil
}
