package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
)

// fetch downloads url into file, publishing progress as whole percents.
func (i *Installer) fetch(ctx context.Context, url, file string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.download.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to download URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	i.log(fmt.Sprintf("[SYSTEM] Downloading: %d MB", total/1024/1024))

	pw := &progressWriter{total: total, publisher: i.publisher, last: -1}
	n, err := io.Copy(out, io.TeeReader(resp.Body, pw))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(file)
		return fmt.Errorf("failed to write archive: %w", err)
	}

	i.logger.Debug("asset downloaded", zap.String("url", url), zap.Int64("bytes", n))
	return nil
}

// progressWriter counts bytes and publishes each new percentage.
type progressWriter struct {
	total     int64
	written   int64
	last      int
	publisher events.Publisher
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		percent := int(p.written * 100 / p.total)
		if percent != p.last {
			p.last = percent
			p.publisher.PublishStatus(events.DownloadProgress(percent))
		}
	}
	return len(b), nil
}
