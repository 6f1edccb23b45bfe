// Package deploy uploads build output to an S3 bucket.
package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/errors"
)

// ObjectPutter is the slice of the S3 client the deployer uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Deployer uploads a built output directory to a bucket.
type Deployer struct {
	client ObjectPutter
	bucket string
	prefix string

	// OnProgress is called once per uploaded object key.
	OnProgress func(key string)
}

// New creates a deployer over an existing S3 client.
func New(client ObjectPutter, bucket, prefix string) *Deployer {
	return &Deployer{client: client, bucket: bucket, prefix: prefix}
}

// NewFromConfig resolves AWS credentials from the default chain and creates
// a deployer for the manifest's deploy target.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Deployer, error) {
	if cfg.Deploy.Bucket == "" {
		return nil, errors.New("E150").
			WithDetail("packd.json has no deploy.bucket configured.").
			WithSuggestion("Add a \"deploy\" section with a \"bucket\" to packd.json.")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Deploy.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Deploy.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.New("E150").
			WithDetail("Could not resolve AWS credentials: " + err.Error()).
			Wrap(err)
	}

	return New(s3.NewFromConfig(awsCfg), cfg.Deploy.Bucket, cfg.Deploy.Prefix), nil
}

// Result summarizes one deploy.
type Result struct {
	Uploaded int
	Bytes    int64
	Duration time.Duration
}

// Deploy walks outputDir and uploads every regular file, preserving the
// relative path under the configured key prefix. The first failed upload
// aborts the deploy.
func (d *Deployer) Deploy(ctx context.Context, outputDir string) (*Result, error) {
	info, err := os.Stat(outputDir)
	if err != nil || !info.IsDir() {
		return nil, errors.New("E151").
			WithDetail("Output directory " + outputDir + " does not exist.")
	}

	start := time.Now()
	result := &Result{}

	err = filepath.WalkDir(outputDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(outputDir, path)
		if relErr != nil {
			return relErr
		}
		key := d.prefix + filepath.ToSlash(rel)

		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		stat, statErr := f.Stat()
		if statErr != nil {
			return statErr
		}

		if _, putErr := d.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(contentTypeFor(path)),
		}); putErr != nil {
			return fmt.Errorf("upload %s: %w", key, putErr)
		}

		result.Uploaded++
		result.Bytes += stat.Size()
		if d.OnProgress != nil {
			d.OnProgress(key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New("E150").
			WithDetail(err.Error()).
			Wrap(err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// contentTypeFor guesses a Content-Type from the file extension.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
