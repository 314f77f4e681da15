package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

const receiptPathPrefix = "receipts"

// Archiver stores an immutable JSON receipt for an executed intent.
type Archiver interface {
	Archive(ctx context.Context, intent *domain.PaymentIntent) error
}

// NoopArchiver is used when no object storage is configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, *domain.PaymentIntent) error { return nil }

// MinIOArchiver writes receipts to S3-compatible object storage.
type MinIOArchiver struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOArchiver(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOArchiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	a := &MinIOArchiver{client: client, bucketName: bucketName}
	if err := a.ensureBucketExists(context.Background()); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinIOArchiver) ensureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (a *MinIOArchiver) Archive(ctx context.Context, intent *domain.PaymentIntent) error {
	payload, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	key := ObjectKey(intent.ID)
	_, err = a.client.PutObject(ctx, a.bucketName, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload receipt %s: %w", key, err)
	}
	return nil
}

// ObjectKey returns the storage key for an intent's receipt.
func ObjectKey(intentID string) string {
	return fmt.Sprintf("%s/%s.json", receiptPathPrefix, intentID)
}
