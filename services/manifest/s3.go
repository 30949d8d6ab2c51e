package manifest

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type s3Source struct {
	cfg    *config.S3Config
	client s3iface.S3API
}

func NewS3Source(cfg *config.S3Config, client s3iface.S3API) interfaces.ManifestSource {
	return &s3Source{
		cfg:    cfg,
		client: client,
	}
}

// NewS3Client builds a client from static credentials when they are set and
// from the default AWS chain otherwise.
func NewS3Client(cfg *config.S3Config) (s3iface.S3API, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "aws session")
	}
	return s3.New(sess), nil
}

func (s *s3Source) Load(ctx context.Context) (dto.Manifest, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3ManifestSource.Load")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("bucket", s.cfg.Bucket, "key", s.cfg.Key)

	output, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.cfg.Key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to get s3://%s/%s", s.cfg.Bucket, s.cfg.Key)
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read manifest object")
	}

	manifest, err := decode(s.cfg.Key, content)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.Int("result.organizations", len(manifest)))
	return manifest, nil
}
