package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

type TransactionRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewTransactionRepo(db *mongodrv.Database, opTimeout time.Duration) *TransactionRepoMongo {
	return &TransactionRepoMongo{
		coll:      db.Collection(ColTransactions),
		opTimeout: opTimeout,
	}
}

func (repo *TransactionRepoMongo) BulkCreate(ctx context.Context, txns []core.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	docs := make([]any, 0, len(txns))
	ids := make([]string, 0, len(txns))
	for _, t := range txns {
		docs = append(docs, toTransactionDoc(t))
		ids = append(ids, t.ID)
	}

	// Ordered insert stops at the first failure; compensate by removing any
	// documents of this batch that did land, so a schedule is never persisted
	// half-written.
	_, err := repo.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		if _, delErr := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); delErr != nil {
			return fmt.Errorf("transactions.bulkInsert: %w (cleanup failed: %v)", err, delErr)
		}
		return fmt.Errorf("transactions.bulkInsert: %w", err)
	}
	return nil
}

func (repo *TransactionRepoMongo) Get(ctx context.Context, id string) (core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc TransactionDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Transaction{}, core.ErrTransactionNotFound
		}
		return core.Transaction{}, fmt.Errorf("transactions.findOne: %w", err)
	}
	return fromTransactionDoc(doc), nil
}

func (repo *TransactionRepoMongo) Update(ctx context.Context, txn core.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	// The version in the filter makes the write conditional: a concurrent
	// writer that got there first leaves MatchedCount at zero.
	filter := bson.M{"_id": txn.ID, "version": txn.Version}
	updated := toTransactionDoc(txn)
	updated.Version = txn.Version + 1

	result, err := repo.coll.ReplaceOne(ctx, filter, updated)
	if err != nil {
		return fmt.Errorf("transactions.replace: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing document from a lost race.
		count, err := repo.coll.CountDocuments(ctx, bson.M{"_id": txn.ID})
		if err != nil {
			return fmt.Errorf("transactions.replace.recheck: %w", err)
		}
		if count == 0 {
			return core.ErrTransactionNotFound
		}
		return core.ErrTransactionConflict
	}
	return nil
}

func (repo *TransactionRepoMongo) ListByContract(ctx context.Context, contractID string) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "next_payment_date", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"contract_id": contractID}, opts)
	if err != nil {
		return nil, fmt.Errorf("transactions.find: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []core.Transaction
	for cursor.Next(ctx) {
		var doc TransactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("transactions.decode: %w", err)
		}
		txns = append(txns, fromTransactionDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("transactions.cursor: %w", err)
	}

	return txns, nil
}

func (repo *TransactionRepoMongo) DeleteByContract(ctx context.Context, contractID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	result, err := repo.coll.DeleteMany(ctx, bson.M{"contract_id": contractID})
	if err != nil {
		return 0, fmt.Errorf("transactions.deleteByContract: %w", err)
	}
	return result.DeletedCount, nil
}

func (repo *TransactionRepoMongo) FindDue(ctx context.Context, asOf time.Time, maxRetry int, limit int) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	// Pending installments are always eligible; failed/in_retry ones only
	// while retries remain and their retry date, when set, has arrived.
	filter := bson.M{
		"$or": bson.A{
			bson.M{"status": string(core.TransactionStatusPending)},
			bson.M{
				"status":      bson.M{"$in": bson.A{string(core.TransactionStatusFailed), string(core.TransactionStatusInRetry)}},
				"retry_count": bson.M{"$lt": maxRetry},
				"$or": bson.A{
					bson.M{"next_retry_payment_date": bson.M{"$exists": false}},
					bson.M{"next_retry_payment_date": bson.M{"$lte": asOf}},
				},
			},
		},
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "next_payment_date", Value: 1}})

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("transactions.findDue: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []core.Transaction
	for cursor.Next(ctx) {
		var doc TransactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("transactions.findDue.decode: %w", err)
		}
		txns = append(txns, fromTransactionDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("transactions.findDue.cursor: %w", err)
	}

	return txns, nil
}
