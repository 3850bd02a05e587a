package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

type PaymentMethodRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewPaymentMethodRepo(db *mongodrv.Database, opTimeout time.Duration) *PaymentMethodRepoMongo {
	return &PaymentMethodRepoMongo{
		coll:      db.Collection(ColPaymentMethods),
		opTimeout: opTimeout,
	}
}

func (repo *PaymentMethodRepoMongo) Create(ctx context.Context, pm core.PaymentMethod) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toPaymentMethodDoc(pm)
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("payment_methods.insert: %w", err)
	}
	return nil
}

func (repo *PaymentMethodRepoMongo) Get(ctx context.Context, id string) (core.PaymentMethod, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc PaymentMethodDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.PaymentMethod{}, core.ErrPaymentMethodNotFound
		}
		return core.PaymentMethod{}, fmt.Errorf("payment_methods.findOne: %w", err)
	}
	return fromPaymentMethodDoc(doc), nil
}

func (repo *PaymentMethodRepoMongo) Update(ctx context.Context, pm core.PaymentMethod) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toPaymentMethodDoc(pm)
	result, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": pm.ID}, doc)
	if err != nil {
		return fmt.Errorf("payment_methods.replace: %w", err)
	}
	if result.MatchedCount == 0 {
		return core.ErrPaymentMethodNotFound
	}
	return nil
}
