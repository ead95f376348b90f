package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImageURLPrefix is where stored images are served from
const ImageURLPrefix = "/v1/images/"

var ErrImageNotFound = errors.New("image not found")

// StoredImage is a palm image read back from the bucket
type StoredImage struct {
	ID          string
	OwnerID     string
	ContentType string
	Data        []byte
}

// ImageRepo keeps uploaded palm images in a GridFS bucket
type ImageRepo interface {
	Store(ctx context.Context, ownerID string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, id string) (*StoredImage, error)
}

type imageRepo struct {
	db *mongo.Database
}

// NewImageRepo creates a GridFS-backed image repository
func NewImageRepo(db *mongo.Database) ImageRepo {
	return &imageRepo{db: db}
}

func (r *imageRepo) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(r.db, options.GridFSBucket().SetName("palm_images"))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// Store uploads the image and returns the URL it is served from
func (r *imageRepo) Store(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	bucket, err := r.bucket(ctx)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("palm_%s_%d", ownerID, time.Now().UnixMilli())
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"ownerId":     ownerID,
		"contentType": contentType,
	})
	id, err := bucket.UploadFromStream(filename, bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("upload palm image: %w", err)
	}
	return ImageURLPrefix + id.Hex(), nil
}

// Open reads an image by its hex id
func (r *imageRepo) Open(ctx context.Context, id string) (*StoredImage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrImageNotFound
	}
	bucket, err := r.bucket(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := bucket.OpenDownloadStream(oid)
	if err == gridfs.ErrFileNotFound {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read palm image: %w", err)
	}

	img := &StoredImage{ID: id, Data: data}
	if meta := stream.GetFile().Metadata; meta != nil {
		if v, ok := meta.Lookup("ownerId").StringValueOK(); ok {
			img.OwnerID = v
		}
		if v, ok := meta.Lookup("contentType").StringValueOK(); ok {
			img.ContentType = v
		}
	}
	return img, nil
}
