package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/animathic/backend/pkg/retry"
)

// S3AssetRepository is the Storage Adapter (C7, §4.7): server-assigned
// object keys, user-scoped authorization enforced by key prefix, never by
// trusting the caller's claimed ownership.
type S3AssetRepository struct {
	client     *s3.Client
	bucketName string
	logger     *zap.Logger
}

// NewS3AssetRepository constructs an S3AssetRepository.
func NewS3AssetRepository(client *s3.Client, bucketName string, logger *zap.Logger) *S3AssetRepository {
	return &S3AssetRepository{client: client, bucketName: bucketName, logger: logger}
}

// Put uploads localPath under a server-assigned key of shape
// `user_id/<ulid>.mp4` (§5: "keys are collision-free by construction") and
// returns the object key and its public URL. Transient upload failures are
// retried per retry.UploadConfig: at most 3 attempts in total, with
// exponential backoff between them.
func (s *S3AssetRepository) Put(ctx context.Context, userID, localPath, contentType string) (string, string, error) {
	id, err := newULID()
	if err != nil {
		return "", "", fmt.Errorf("generate object key: %w", err)
	}
	objectKey := fmt.Sprintf("%s/%s.mp4", userID, id)

	err = retry.Do(ctx, retry.UploadConfig(), func() error {
		file, err := os.Open(localPath)
		if err != nil {
			return retry.NewNonRetryableError(fmt.Errorf("open artifact: %w", err))
		}
		defer file.Close()

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucketName),
			Key:         aws.String(objectKey),
			Body:        file,
			ContentType: aws.String(contentType),
		})
		return err
	})
	if err != nil {
		s.logger.Error("upload failed", zap.String("object_key", objectKey), zap.Error(err))
		return "", "", fmt.Errorf("upload object: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucketName, objectKey)
	s.logger.Info("uploaded asset", zap.String("object_key", objectKey))
	return objectKey, url, nil
}

// Delete removes objectKey, enforced to belong to userID by prefix match
// (§4.7). Deleting an object that no longer exists is not an error: delete
// is idempotent (§8 "delete idempotence").
func (s *S3AssetRepository) Delete(ctx context.Context, userID, objectKey string) error {
	if !ownsKey(userID, objectKey) {
		return ErrForbidden
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		s.logger.Error("delete failed", zap.String("object_key", objectKey), zap.Error(err))
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PresignedURL issues a time-limited GET URL for objectKey, enforced to
// belong to userID by prefix match (§4.7).
func (s *S3AssetRepository) PresignedURL(ctx context.Context, userID, objectKey string, duration time.Duration) (string, error) {
	if !ownsKey(userID, objectKey) {
		return "", ErrForbidden
	}
	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = duration
	})
	if err != nil {
		s.logger.Error("presign failed", zap.String("object_key", objectKey), zap.Error(err))
		return "", fmt.Errorf("presign object: %w", err)
	}
	return request.URL, nil
}

// HealthCheck performs a lightweight health check on S3.
func (s *S3AssetRepository) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func ownsKey(userID, objectKey string) bool {
	return strings.HasPrefix(objectKey, userID+"/")
}
