package manifest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/dto"
)

const manifestJSON = `{"ECR": ["b.ca"], "ACR": ["domain.ca", "other.ca"]}`

var expected = dto.Manifest{
	{Acronym: "ECR", Domains: []string{"b.ca"}},
	{Acronym: "ACR", Domains: []string{"domain.ca", "other.ca"}},
}

func TestGitHubSource_Load(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(manifestJSON))
	// emulate GitHub's line wrapping
	wrapped := encoded[:20] + "\n" + encoded[20:]

	var gotPath, gotRef, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRef = r.URL.Query().Get("ref")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"encoding": "base64", "content": %q}`, wrapped)
	}))
	defer server.Close()

	source := NewGitHubSource(&config.GitHubConfig{
		APIURL: server.URL,
		Owner:  "cds-snc",
		Repo:   "dns",
		Path:   "domains.json",
		Branch: "main",
		Token:  "secret",
	}, server.Client())

	manifest, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, manifest)
	assert.Equal(t, "/repos/cds-snc/dns/contents/domains.json", gotPath)
	assert.Equal(t, "main", gotRef)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestGitHubSource_LoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	source := NewGitHubSource(&config.GitHubConfig{APIURL: server.URL, Owner: "o", Repo: "r", Path: "domains.json"}, server.Client())

	manifest, err := source.Load(context.Background())
	assert.Nil(t, manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type fakeS3 struct {
	s3iface.S3API
	content []byte
	err     error
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.content))}, nil
}

func TestS3Source_Load(t *testing.T) {
	client := &fakeS3{content: []byte("ECR:\n  - b.ca\nACR:\n  - domain.ca\n  - other.ca\n")}
	source := NewS3Source(&config.S3Config{Bucket: "manifests", Key: "domains.yaml"}, client)

	manifest, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, manifest)
	assert.Equal(t, "manifests", aws.StringValue(client.input.Bucket))
	assert.Equal(t, "domains.yaml", aws.StringValue(client.input.Key))
}

func TestS3Source_LoadFailure(t *testing.T) {
	source := NewS3Source(&config.S3Config{Bucket: "manifests", Key: "domains.json"}, &fakeS3{err: errors.New("access denied")})

	_, err := source.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://manifests/domains.json")
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "domains.json")
		require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o600))

		manifest, err := NewFileSource(path).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, manifest)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "domains.yml")
		require.NoError(t, os.WriteFile(path, []byte("ECR: [b.ca]\nACR: [domain.ca, other.ca]\n"), 0o600))

		manifest, err := NewFileSource(path).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, manifest)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`["domain.ca"]`), 0o600))

		_, err := NewFileSource(path).Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(dir, "nope.json")).Load(context.Background())
		assert.Error(t, err)
	})
}

func TestNewManifestSource(t *testing.T) {
	cfg := &config.Config{
		AppConfig:    &config.AppConfig{ManifestSource: config.ManifestSourceFile, ManifestFilePath: "domains.json"},
		GitHubConfig: &config.GitHubConfig{},
		S3Config:     &config.S3Config{Region: "ca-central-1"},
	}

	source, err := NewManifestSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &fileSource{}, source)

	cfg.AppConfig.ManifestSource = config.ManifestSourceGitHub
	source, err = NewManifestSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &githubSource{}, source)

	cfg.AppConfig.ManifestSource = config.ManifestSourceS3
	source, err = NewManifestSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &s3Source{}, source)

	cfg.AppConfig.ManifestSource = "ftp"
	_, err = NewManifestSource(cfg)
	assert.Error(t, err)
}
