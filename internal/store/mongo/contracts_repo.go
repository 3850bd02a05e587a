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

type ContractRepoMongo struct {
	coll      *mongodrv.Collection
	txns      *mongodrv.Collection
	counters  *mongodrv.Collection
	opTimeout time.Duration
}

func NewContractRepo(db *mongodrv.Database, opTimeout time.Duration) *ContractRepoMongo {
	return &ContractRepoMongo{
		coll:      db.Collection(ColContracts),
		txns:      db.Collection(ColTransactions),
		counters:  db.Collection("counters"),
		opTimeout: opTimeout,
	}
}

// notDeleted keeps soft-deleted contracts out of every read and write path.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}

func (repo *ContractRepoMongo) Create(ctx context.Context, c core.Contract) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toContractDoc(c)
	_, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		var we mongodrv.WriteException
		if errors.As(err, &we) {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return core.ErrContractExists
				}
			}
		}
		return fmt.Errorf("contracts.insert: %w", err)
	}
	return nil
}

func (repo *ContractRepoMongo) Get(ctx context.Context, id string) (core.Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc ContractDoc
	err := repo.coll.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Contract{}, core.ErrContractNotFound
		}
		return core.Contract{}, fmt.Errorf("contracts.findOne: %w", err)
	}
	return fromContractDoc(doc), nil
}

func (repo *ContractRepoMongo) GetWithTransactions(ctx context.Context, id string) (core.ContractWithTransactions, error) {
	c, err := repo.Get(ctx, id)
	if err != nil {
		return core.ContractWithTransactions{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "next_payment_date", Value: 1}})
	cursor, err := repo.txns.Find(ctx, bson.M{"contract_id": id}, opts)
	if err != nil {
		return core.ContractWithTransactions{}, fmt.Errorf("contracts.transactions: %w", err)
	}
	defer cursor.Close(ctx)

	out := core.ContractWithTransactions{Contract: c}
	for cursor.Next(ctx) {
		var doc TransactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return core.ContractWithTransactions{}, fmt.Errorf("contracts.transactions.decode: %w", err)
		}
		out.Transactions = append(out.Transactions, fromTransactionDoc(doc))
	}
	if err := cursor.Err(); err != nil {
		return core.ContractWithTransactions{}, fmt.Errorf("contracts.transactions.cursor: %w", err)
	}
	return out, nil
}

func (repo *ContractRepoMongo) Update(ctx context.Context, c core.Contract) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toContractDoc(c)
	result, err := repo.coll.ReplaceOne(ctx, notDeleted(bson.M{"_id": c.ID}), doc)
	if err != nil {
		return fmt.Errorf("contracts.replace: %w", err)
	}
	if result.MatchedCount == 0 {
		return core.ErrContractNotFound
	}
	return nil
}

func (repo *ContractRepoMongo) UpdateStatus(ctx context.Context, id string, status core.ContractStatus, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     string(status),
			"updated_at": updatedAt,
		},
	}

	result, err := repo.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), update)
	if err != nil {
		return fmt.Errorf("contracts.updateStatus: %w", err)
	}
	if result.MatchedCount == 0 {
		return core.ErrContractNotFound
	}
	return nil
}

func (repo *ContractRepoMongo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		},
	}

	result, err := repo.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), update)
	if err != nil {
		return fmt.Errorf("contracts.softDelete: %w", err)
	}
	if result.MatchedCount == 0 {
		return core.ErrContractNotFound
	}
	return nil
}

func (repo *ContractRepoMongo) List(ctx context.Context, filter core.ContractFilter, limit, offset int) ([]core.Contract, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	mongoFilter := notDeleted(bson.M{})
	if filter.ClientID != "" {
		mongoFilter["client_id"] = filter.ClientID
	}
	if filter.Status != "" {
		mongoFilter["status"] = string(filter.Status)
	}

	total, err := repo.coll.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("contracts.count: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := repo.coll.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("contracts.find: %w", err)
	}
	defer cursor.Close(ctx)

	var contracts []core.Contract
	for cursor.Next(ctx) {
		var doc ContractDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("contracts.decode: %w", err)
		}
		contracts = append(contracts, fromContractDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("contracts.cursor: %w", err)
	}

	return contracts, total, nil
}

func (repo *ContractRepoMongo) ExpireContracts(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	filter := notDeleted(bson.M{
		"status":   string(core.ContractStatusActive),
		"end_date": bson.M{"$lt": before},
	})
	update := bson.M{
		"$set": bson.M{
			"status":     string(core.ContractStatusExpired),
			"updated_at": before,
		},
	}

	result, err := repo.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("contracts.expire: %w", err)
	}
	return result.ModifiedCount, nil
}

func (repo *ContractRepoMongo) NextContractNumber(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	year := time.Now().Year()
	counterID := fmt.Sprintf("contract_%d", year)

	// Atomic increment using FindOneAndUpdate with upsert
	filter := bson.M{"_id": counterID}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result struct {
		Seq int64 `bson:"seq"`
	}

	err := repo.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		return "", fmt.Errorf("contracts.nextNumber: %w", err)
	}

	// Format: CT-YYYY-NNNNNN
	return fmt.Sprintf("CT-%d-%06d", year, result.Seq), nil
}
