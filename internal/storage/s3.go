package storage

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Store 将上传内容保存到兼容 S3 的对象存储。
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store 使用静态凭证与自定义 Endpoint 构造 S3 存储客户端。
func NewS3Store(accessKeyID, secretAccessKey, endpoint, bucket, publicBaseURL string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Save 上传对象到 bucket/<逻辑桶>/<唯一名> 并返回公开访问 URL。
func (s *S3Store) Save(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	key := bucket + "/" + objectName(filename)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}); err != nil {
		log.Error().Err(err).Str("key", key).Msg("s3 put object failed")
		return "", err
	}

	return s.publicBaseURL + "/" + key, nil
}
