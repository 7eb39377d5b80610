package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/arcadia-pay/arcpay/internal/utils/safecast"
)

// S3Client is the slice of the AWS S3 API the sink uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var (
	_ Sink    = (*S3Sink)(nil)
	_ Browser = (*S3Sink)(nil)
)

// S3Sink writes each entry as one encrypted JSON object under a key prefix.
// Entry IDs are timestamp-sorted, so lexicographic object order is
// chronological order.
type S3Sink struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink for the given bucket and key prefix.
func NewS3Sink(client S3Client, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Append uploads the entry.
func (s *S3Sink) Append(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.objectKey(entry.ID)),
		Body:                 bytes.NewReader(raw),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit entry: %w", err)
	}

	return nil
}

// List returns up to limit entry IDs, newest first.
func (s *S3Sink) List(ctx context.Context, limit int) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	}
	if limit > 0 {
		maxKeys, err := safecast.IntToInt32(limit)
		if err != nil {
			return nil, err
		}
		input.MaxKeys = aws.Int32(maxKeys)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for i := len(out.Contents) - 1; i >= 0; i-- {
		key := aws.ToString(out.Contents[i].Key)
		key = strings.TrimPrefix(key, s.prefix+"/")
		keys = append(keys, strings.TrimSuffix(key, ".json"))
	}

	return keys, nil
}

// Get downloads and decodes the entry with the given ID.
func (s *S3Sink) Get(ctx context.Context, key string) (*Entry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit entry %q: %w", key, err)
	}
	defer out.Body.Close()

	var entry Entry
	if err := json.NewDecoder(out.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("corrupt audit entry %q: %w", key, err)
	}

	return &entry, nil
}

func (s *S3Sink) objectKey(id string) string {
	return s.prefix + "/" + id + ".json"
}
