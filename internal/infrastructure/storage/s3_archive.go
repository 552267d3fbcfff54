// Package storage archives shipment booking receipts in object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	infraconfig "github.com/dropship/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3ReceiptArchive implements ReceiptArchiver
var _ fulfillment.ReceiptArchiver = (*S3ReceiptArchive)(nil)

// DefaultPrefix is the key prefix used when none is configured
const DefaultPrefix = "shipments"

// Receipt is the archived document
type Receipt struct {
	OrderID    string                    `json:"order_id"`
	ArchivedAt time.Time                 `json:"archived_at"`
	Shipment   *forwarder.ShipmentResult `json:"shipment"`
}

// S3ReceiptArchive stores receipts in any S3-compatible bucket (AWS S3, MinIO, RustFS)
type S3ReceiptArchive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	prefix            string
	presignExpiration time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// S3ReceiptArchiveOption is a functional option for configuring S3ReceiptArchive
type S3ReceiptArchiveOption func(*S3ReceiptArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ReceiptArchiveOption {
	return func(s *S3ReceiptArchive) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long receipt download links stay valid
func WithPresignExpiration(d time.Duration) S3ReceiptArchiveOption {
	return func(s *S3ReceiptArchive) {
		s.presignExpiration = d
	}
}

// NewS3ReceiptArchive creates an archive from configuration
func NewS3ReceiptArchive(cfg *infraconfig.StorageConfig, opts ...S3ReceiptArchiveOption) (*S3ReceiptArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	archive := &S3ReceiptArchive{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		prefix:            prefix,
		presignExpiration: 15 * time.Minute,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3ReceiptArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating receipt bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ReceiptKey returns {prefix}/{order_id}/{shipment_id}.json
func ReceiptKey(prefix, orderID, shipmentID string) string {
	return path.Join(prefix, orderID, shipmentID+".json")
}

// ArchiveShipment uploads the booking receipt of an order
func (s *S3ReceiptArchive) ArchiveShipment(ctx context.Context, orderID string, result *forwarder.ShipmentResult) error {
	key, body, err := encodeReceipt(s.prefix, orderID, result, s.now())
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload receipt %s: %w", key, err)
	}

	s.logger.Debug("Archived shipment receipt",
		zap.String("order_id", orderID),
		zap.String("bucket", s.bucket),
		zap.String("key", key),
	)
	return nil
}

// ReceiptURL returns a presigned download link for an archived receipt
func (s *S3ReceiptArchive) ReceiptURL(ctx context.Context, orderID, shipmentID string) (string, time.Time, error) {
	if orderID == "" || shipmentID == "" {
		return "", time.Time{}, errors.New("order id and shipment id are required")
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ReceiptKey(s.prefix, orderID, shipmentID)),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign receipt: %w", err)
	}
	return req.URL, s.now().Add(s.presignExpiration), nil
}

// Bucket returns the bucket name
func (s *S3ReceiptArchive) Bucket() string {
	return s.bucket
}

func encodeReceipt(prefix, orderID string, result *forwarder.ShipmentResult, now time.Time) (string, []byte, error) {
	if orderID == "" {
		return "", nil, errors.New("order id is required")
	}
	if result == nil || result.ShipmentID == "" {
		return "", nil, errors.New("shipment id is required")
	}

	body, err := json.Marshal(Receipt{
		OrderID:    orderID,
		ArchivedAt: now.UTC(),
		Shipment:   result,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	return ReceiptKey(prefix, orderID, result.ShipmentID), body, nil
}
