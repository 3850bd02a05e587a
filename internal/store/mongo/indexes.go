package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureInsurancesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure insurances indexes: %w", err)
	}
	if err := ensureContractsIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure contracts indexes: %w", err)
	}
	if err := ensureTransactionsIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure transactions indexes: %w", err)
	}
	if err := ensurePaymentMethodsIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure payment_methods indexes: %w", err)
	}
	return nil
}

func ensureInsurancesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColInsurances)
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("insurances_slug_unique").SetUnique(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureContractsIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColContracts)
	models := []mongo.IndexModel{
		newIndex("number", 1, "contracts_number_unique", true),
		newIndex("client_id", 1, "contracts_client_id", false),
		newIndex("status", 1, "contracts_status", false),
		// Serves the expiry sweep: active contracts past their end date.
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("contracts_status_end_date"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureTransactionsIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColTransactions)
	models := []mongo.IndexModel{
		newIndex("contract_id", 1, "txns_contract_id", false),
		// Serves the dunning due query.
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_retry_payment_date", Value: 1}},
			Options: options.Index().SetName("txns_status_retry_date"),
		},
		newIndex("next_payment_date", 1, "txns_next_payment_date", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensurePaymentMethodsIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColPaymentMethods)
	models := []mongo.IndexModel{
		newIndex("client_id", 1, "payment_methods_client_id", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func newIndex(field string, asc int32, name string, unique bool) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: asc}},
		Options: opts,
	}
}
