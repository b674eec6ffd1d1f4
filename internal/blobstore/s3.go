package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/crypto/blake2b"

	"github.com/dhiway/starter-kit/internal/models"
)

// S3Config holds the settings for an S3-compatible blob backend.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps blobs in an S3-compatible bucket, one object per digest.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds the S3 client. A non-empty endpoint overrides the AWS
// default, which is how MinIO and other compatible stores are reached.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Put spools the compressed payload to a temp file while digesting, then
// uploads it under its content key.
func (s *S3Store) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	var zero PutResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}

	tmp, err := os.CreateTemp("", "blob-put-*")
	if err != nil {
		return zero, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return zero, err
	}
	zw, err := newCompressor(tmp)
	if err != nil {
		return zero, err
	}

	n, err := io.Copy(io.MultiWriter(zw, hasher), r)
	if err != nil {
		return zero, err
	}
	if err := zw.Close(); err != nil {
		return zero, err
	}

	var hash models.Hash
	copy(hash[:], hasher.Sum(nil))
	result := PutResult{Hash: hash, Size: uint64(n)}

	exists, err := s.Has(ctx, hash)
	if err != nil {
		return zero, err
	}
	if exists {
		return result, nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return zero, err
	}
	key := casKey(hash)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   tmp,
	}); err != nil {
		return zero, fmt.Errorf("put object %s: %w", key, err)
	}

	return result, nil
}

// PutFile imports a regular file from the local filesystem.
func (s *S3Store) PutFile(ctx context.Context, path string) (PutResult, error) {
	return putFile(ctx, s, path)
}

// Open returns a plaintext reader for the blob content.
func (s *S3Store) Open(ctx context.Context, hash models.Hash) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	key := casKey(hash)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return newDecompressReader(out.Body)
}

// Has reports whether content with the digest is stored.
func (s *S3Store) Has(ctx context.Context, hash models.Hash) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	key := casKey(hash)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a blob object. Deleting an absent object succeeds.
func (s *S3Store) Delete(ctx context.Context, hash models.Hash) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	key := casKey(hash)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

var (
	_ BlobStore = (*LocalCAS)(nil)
	_ BlobStore = (*S3Store)(nil)
)
