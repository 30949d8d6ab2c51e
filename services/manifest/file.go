package manifest

import (
	"context"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type fileSource struct {
	path string
}

func NewFileSource(path string) interfaces.ManifestSource {
	return &fileSource{
		path: path,
	}
}

func (s *fileSource) Load(ctx context.Context) (dto.Manifest, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "FileManifestSource.Load")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("path", s.path)

	content, err := os.ReadFile(s.path)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read manifest file")
	}

	manifest, err := decode(s.path, content)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return manifest, nil
}
