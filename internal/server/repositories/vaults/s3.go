package vaults

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3API is the slice of the S3 client the repository uses; *s3.Client
// satisfies it and tests substitute a fake.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the object-storage backend. BaseEndpoint points the
// client at an S3-compatible service such as MinIO.
type S3Options struct {
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
	Bucket       string
}

// S3Repository stores each vault as one JSON object per user.
type S3Repository struct {
	client s3API
	bucket string
}

// NewS3Repository builds an S3 client with static credentials and the given
// endpoint override, and returns a repository writing into opts.Bucket.
func NewS3Repository(ctx context.Context, opts S3Options) (*S3Repository, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Repository{client: client, bucket: opts.Bucket}, nil
}

func vaultObjectKey(userID string) string {
	return "vaults/" + userID + ".json"
}

// Get fetches and decodes the vault object, or common.ErrVaultNotFound when
// the key does not exist.
func (r *S3Repository) Get(ctx context.Context, userID string) (*vault.VaultState, error) {
	key := vaultObjectKey(userID)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrVaultNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}

	var snap vault.VaultSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode vault object %s: %w", key, err)
	}

	return vault.RestoreVaultState(userID, snap.VaultVersion, snap.EncryptedEntries, snap.LastSyncedAt), nil
}

// Save encodes the aggregate as its snapshot form and overwrites the user's
// object.
func (r *S3Repository) Save(ctx context.Context, state *vault.VaultState) error {
	raw, err := json.Marshal(state.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode vault object: %w", err)
	}

	key := vaultObjectKey(state.UserID)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
