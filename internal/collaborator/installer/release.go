package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/resilience"
)

// ErrAssetNotFound is returned when neither the API nor the redirect
// fallback yields a download URL.
var ErrAssetNotFound = errors.New("release asset not found")

// errRateLimited marks a throttled API response. It does not count against
// the breaker.
var errRateLimited = errors.New("release API rate limited")

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
	Size int64  `json:"size"`
}

// target is the resolved download.
type target struct {
	Name string
	URL  string
}

// locate finds the asset to download, preferring the API.
func (i *Installer) locate(ctx context.Context) (target, error) {
	rel, err := resilience.Do(i.breaker, func() (*release, error) {
		resp, err := i.api.R().
			SetContext(ctx).
			SetHeader("Accept", "application/vnd.github+json").
			SetResult(&release{}).
			Get(i.opts.APIURL)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode() >= 500:
			return nil, fmt.Errorf("release API: HTTP %d", resp.StatusCode())
		case !resp.IsSuccess():
			return nil, nil
		}
		return resp.Result().(*release), nil
	})

	switch {
	case errors.Is(err, errRateLimited):
		i.log("[SYSTEM] API rate limited, attempting fallback discovery...")
	case err != nil:
		i.logger.Warn("release API unavailable", zap.Error(err))
	case rel != nil:
		for _, a := range rel.Assets {
			if strings.Contains(a.Name, i.platform.Arch) && strings.HasSuffix(a.Name, i.platform.Ext) {
				return target{Name: a.Name, URL: a.URL}, nil
			}
		}
		i.logger.Debug("no matching asset in release", zap.String("tag", rel.TagName))
	}

	return i.fallback(ctx)
}

// fallback follows the latest-release redirect to learn the tag.
func (i *Installer) fallback(ctx context.Context) (target, error) {
	resp, err := i.api.R().SetContext(ctx).SetDoNotParseResponse(true).Get(i.opts.LatestURL)
	if err != nil {
		return target{}, fmt.Errorf("fallback failed: %w", err)
	}
	raw := resp.RawResponse
	raw.Body.Close()

	tag := path.Base(raw.Request.URL.Path)
	if !strings.HasPrefix(tag, "v") {
		return target{}, fmt.Errorf("%w: could not find %s binary (API rate limit might be active)", ErrAssetNotFound, i.platform.Arch)
	}

	i.log("[SYSTEM] Discovered latest tag via fallback: " + tag)
	name := i.platform.AssetName(tag)
	return target{
		Name: name,
		URL:  strings.TrimRight(i.opts.DownloadBase, "/") + "/" + tag + "/" + name,
	}, nil
}
