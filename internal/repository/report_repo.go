package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eternal/internal/model"
)

// ReportRepo persists finished reports, one per owner
type ReportRepo interface {
	Save(ctx context.Context, report *model.Report) error
	GetByOwner(ctx context.Context, ownerID string) (*model.Report, error)
	Delete(ctx context.Context, ownerID string) error
}

type reportRepo struct {
	collection *mongo.Collection
}

// NewReportRepo creates a MongoDB report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		collection: db.Collection("reports"),
	}
}

func (r *reportRepo) Save(ctx context.Context, report *model.Report) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"ownerId": report.OwnerID}, report, opts)
	return err
}

func (r *reportRepo) GetByOwner(ctx context.Context, ownerID string) (*model.Report, error) {
	var report model.Report
	err := r.collection.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) Delete(ctx context.Context, ownerID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"ownerId": ownerID})
	return err
}
