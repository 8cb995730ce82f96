package store

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMediaNotFound is returned for unknown or malformed media ids.
var ErrMediaNotFound = errors.New("media not found")

// Media stores entry images/audio in GridFS. Blobs are referenced by
// opaque hex ids from JournalEntry; they are never embedded inline.
// Uploads are stamped with the owning user so an account clear can
// purge them alongside the history.
type Media struct {
	bucket *gridfs.Bucket
}

func NewMedia(bucket *gridfs.Bucket) *Media {
	return &Media{bucket: bucket}
}

// Put uploads one blob and returns its id.
func (s *Media) Put(userID, filename, contentType string, data []byte) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"content_type": contentType,
		"user_id":      userID,
	})
	id, err := s.bucket.UploadFromStream(filename, bytes.NewReader(data), opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// Get returns the blob bytes and content type for an id.
func (s *Media) Get(id string) ([]byte, string, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrMediaNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(objID)
	if err != nil {
		return nil, "", ErrMediaNotFound
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, "", err
	}

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		if v, err := file.Metadata.LookupErr("content_type"); err == nil {
			if ct, ok := v.StringValueOK(); ok && ct != "" {
				contentType = ct
			}
		}
	}
	return data, contentType, nil
}

// DeleteAllForUser removes every blob the user uploaded, matched via
// the user_id stamped into the upload metadata.
func (s *Media) DeleteAllForUser(ctx context.Context, userID string) error {
	cursor, err := s.bucket.GetFilesCollection().Find(ctx, bson.M{"metadata.user_id": userID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return err
		}
		if err := s.bucket.Delete(file.ID); err != nil {
			return err
		}
	}
	return cursor.Err()
}
