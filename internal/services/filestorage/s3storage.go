package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/config"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
)

// objectPutter is the part of the S3 client the storage needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3FileStorage struct {
	client objectPutter
	cfg    *config.S3Config
}

func NewS3FileStorage(cfg *config.Config) (*S3FileStorage, error) {
	if cfg.S3 == nil {
		return nil, ErrS3NotEnabled
	}

	region := cfg.S3.Region
	if region == "" {
		region = "auto"
	}

	credentialsProvider := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.TODO(),
		awsConfig.WithRegion(region),
		awsConfig.WithCredentialsProvider(credentialsProvider),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.EndpointUrl != "" {
			o.BaseEndpoint = &cfg.S3.EndpointUrl
		}
	})

	return newS3FileStorage(s3Client, cfg.S3), nil
}

func newS3FileStorage(client objectPutter, cfg *config.S3Config) *S3FileStorage {
	return &S3FileStorage{client: client, cfg: cfg}
}

func (u *S3FileStorage) Upload(file FileInfo) (string, error) {
	if len(file.Content) == 0 {
		return "", ErrEmptyFile
	}

	key := file.filename()
	if folder := strings.Trim(u.cfg.Folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	mtype := mimetype.Detect(file.Content).String()

	// Memes are shared by link, so objects are uploaded publicly readable.
	input := s3.PutObjectInput{
		Key:         &key,
		ContentType: &mtype,
		Bucket:      &u.cfg.Bucket,
		Body:        bytes.NewReader(file.Content),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if _, err := u.client.PutObject(context.TODO(), &input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return u.publicURL(key), nil
}

// publicURL infers where an uploaded key is served from. Providers whose URL
// cannot be inferred need public_url set; the bare key is returned otherwise.
func (u *S3FileStorage) publicURL(key string) string {
	if u.cfg.PublicUrl != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.cfg.PublicUrl, "/"), key)
	}

	switch {
	case strings.Contains(u.cfg.EndpointUrl, "digitaloceanspaces.com"):
		return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	case strings.Contains(u.cfg.EndpointUrl, "amazonaws.com"):
		endpoint := strings.TrimPrefix(u.cfg.EndpointUrl, "https://")
		endpoint = strings.TrimSuffix(endpoint, "/")
		return fmt.Sprintf("https://%s.%s/%s", u.cfg.Bucket, endpoint, key)
	}

	return key
}
