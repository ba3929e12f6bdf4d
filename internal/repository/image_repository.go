package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surf-market/internal/model"
)

const imageBucket = "images"

// ImageRepository keeps compressed board photos and avatars in GridFS.
type ImageRepository struct {
	DB *mongo.Database
}

func NewImageRepository(client *mongo.Client, dbName string) *ImageRepository {
	return &ImageRepository{DB: client.Database(dbName)}
}

func (r *ImageRepository) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(r.DB, options.GridFSBucket().SetName(imageBucket))
}

// Put stores data and returns the hex id of the new file.
func (r *ImageRepository) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	bucket, err := r.bucket()
	if err != nil {
		return "", fmt.Errorf("ImageRepository.Put: %w", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	stream, err := bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return "", fmt.Errorf("ImageRepository.Put: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		stream.SetWriteDeadline(deadline)
	}
	if _, err := io.Copy(stream, bytes.NewReader(data)); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("ImageRepository.Put: %w", err)
	}
	// Close flushes the last chunk and writes the files document.
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("ImageRepository.Put: %w", err)
	}

	return stream.FileID.(primitive.ObjectID).Hex(), nil
}

// Get returns the file contents and the content type recorded at upload.
func (r *ImageRepository) Get(ctx context.Context, id string) ([]byte, string, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", model.ErrImageNotFound
	}

	bucket, err := r.bucket()
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Get: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", model.ErrImageNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Get: %w", err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		stream.SetReadDeadline(deadline)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Get: %w", err)
	}

	contentType := "image/jpeg"
	var meta struct {
		ContentType string `bson:"contentType"`
	}
	if raw := stream.GetFile().Metadata; raw != nil && bson.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}
	return data, contentType, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrImageNotFound
	}

	bucket, err := r.bucket()
	if err != nil {
		return fmt.Errorf("ImageRepository.Delete: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		bucket.SetWriteDeadline(deadline)
	}
	err = bucket.Delete(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return model.ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("ImageRepository.Delete: %w", err)
	}
	return nil
}
