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

type InsuranceRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewInsuranceRepo(db *mongodrv.Database, opTimeout time.Duration) *InsuranceRepoMongo {
	return &InsuranceRepoMongo{
		coll:      db.Collection(ColInsurances),
		opTimeout: opTimeout,
	}
}

func (repo *InsuranceRepoMongo) List(ctx context.Context) ([]core.Insurance, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("insurances.find: %w", err)
	}
	defer cursor.Close(ctx)

	var list []core.Insurance
	for cursor.Next(ctx) {
		var doc InsuranceDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("insurances.decode: %w", err)
		}
		list = append(list, fromInsuranceDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("insurances.cursor: %w", err)
	}

	return list, nil
}

func (repo *InsuranceRepoMongo) GetByID(ctx context.Context, id string) (core.Insurance, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc InsuranceDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Insurance{}, core.ErrInsuranceNotFound
		}
		return core.Insurance{}, fmt.Errorf("insurances.findOne: %w", err)
	}
	return fromInsuranceDoc(doc), nil
}

func (repo *InsuranceRepoMongo) GetBySlug(ctx context.Context, slug string) (core.Insurance, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc InsuranceDoc
	err := repo.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Insurance{}, core.ErrInsuranceNotFound
		}
		return core.Insurance{}, fmt.Errorf("insurances.findBySlug: %w", err)
	}
	return fromInsuranceDoc(doc), nil
}

func (repo *InsuranceRepoMongo) UpsertBySlug(ctx context.Context, ins core.Insurance) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toInsuranceDoc(ins)
	opts := options.Replace().SetUpsert(true)
	_, err := repo.coll.ReplaceOne(ctx, bson.M{"slug": ins.Slug}, doc, opts)
	if err != nil {
		var we mongodrv.WriteException
		if errors.As(err, &we) {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return core.ErrInsuranceConflict
				}
			}
		}
		return fmt.Errorf("insurances.upsert: %w", err)
	}
	return nil
}
