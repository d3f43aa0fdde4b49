package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Options struct {
	Bucket       string
	AccessKeyID  string
	SecretKey    string
	Endpoint     string // https://<account-id>.r2.cloudflarestorage.com
	PublicDomain string
}

// R2 stores objects in a Cloudflare R2 bucket through its S3 API.
type R2 struct {
	client *s3.Client
	opts   R2Options
}

func NewR2(ctx context.Context, opts R2Options) (*R2, error) {
	if opts.Bucket == "" || opts.AccessKeyID == "" || opts.SecretKey == "" || opts.Endpoint == "" {
		return nil, errors.New("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true // required for R2
	})
	return &R2{client: client, opts: opts}, nil
}

func (r *R2) Upload(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	key := ObjectName(prefix, fh.Filename, time.Now())
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(r.opts.Bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String(contentType(fh)),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return r.publicURL(key), nil
}

func (r *R2) Delete(ctx context.Context, publicURL string) error {
	key, err := r.objectName(publicURL)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *R2) publicURL(key string) string {
	domain := strings.TrimRight(r.opts.PublicDomain, "/")
	return fmt.Sprintf("%s/%s/%s", domain, r.opts.Bucket, key)
}

// objectName accepts URLs on the configured public domain as well as
// r2.dev style URLs.
func (r *R2) objectName(raw string) (string, error) {
	domain := strings.TrimRight(r.opts.PublicDomain, "/")
	if domain != "" {
		if key, ok := strings.CutPrefix(raw, domain+"/"+r.opts.Bucket+"/"); ok && key != "" {
			return key, nil
		}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("not a recognised R2 public url")
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("no object path in url")
	}
	return key, nil
}
