package manifest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type githubSource struct {
	cfg        *config.GitHubConfig
	httpClient *http.Client
}

func NewGitHubSource(cfg *config.GitHubConfig, httpClient *http.Client) interfaces.ManifestSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &githubSource{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

type githubContent struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Load fetches the manifest through the GitHub contents API.
func (s *githubSource) Load(ctx context.Context) (dto.Manifest, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GitHubManifestSource.Load")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("owner", s.cfg.Owner, "repo", s.cfg.Repo, "path", s.cfg.Path, "branch", s.cfg.Branch)

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		strings.TrimRight(s.cfg.APIURL, "/"),
		url.PathEscape(s.cfg.Owner),
		url.PathEscape(s.cfg.Repo),
		strings.TrimLeft(s.cfg.Path, "/"))
	if s.cfg.Branch != "" {
		endpoint += "?ref=" + url.QueryEscape(s.cfg.Branch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to build GitHub request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to call GitHub API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read GitHub response")
	}
	span.LogFields(tracingLog.Int("response.status", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("GitHub API returned %d for %s", resp.StatusCode, s.cfg.Path)
		tracing.TraceErr(span, err)
		return nil, err
	}

	var content githubContent
	if err = json.Unmarshal(body, &content); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to parse GitHub response")
	}
	if content.Encoding != "base64" {
		err = errors.Errorf("unsupported GitHub content encoding %q", content.Encoding)
		tracing.TraceErr(span, err)
		return nil, err
	}

	// GitHub wraps the base64 payload at 60 columns
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to decode manifest content")
	}

	manifest, err := decode(s.cfg.Path, raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.Int("result.organizations", len(manifest)))
	return manifest, nil
}
