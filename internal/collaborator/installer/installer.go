package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/resilience"
)

const (
	DefaultAPIURL       = "https://api.github.com/repos/Genymobile/scrcpy/releases/latest"
	DefaultLatestURL    = "https://github.com/Genymobile/scrcpy/releases/latest"
	DefaultDownloadBase = "https://github.com/Genymobile/scrcpy/releases/download"

	userAgent = "ScrcpyGui-Downloader"

	archiveBase = "scrcpy_temp"
	extractDir  = "temp_extract"
)

// ErrInProgress is returned when an install is already running.
var ErrInProgress = errors.New("download already in progress")

// Options configures where releases come from and where they go.
type Options struct {
	APIURL       string
	LatestURL    string
	DownloadBase string
	// Dir is the folder that receives scrcpy-bin. Empty means the
	// executable's folder, or the working directory if that is unknown.
	Dir string
	// Timeout bounds each API request.
	Timeout time.Duration
	// RetryMax is the number of download retries; zero means 3.
	RetryMax int
}

// Installer fetches and unpacks scrcpy releases.
type Installer struct {
	api       *resty.Client
	download  *retryablehttp.Client
	breaker   *resilience.Breaker
	publisher events.Publisher
	platform  Platform
	opts      Options
	logger    *zap.Logger
	busy      atomic.Bool
}

// New creates an installer for the running platform.
func New(publisher events.Publisher, opts Options, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.LatestURL == "" {
		opts.LatestURL = DefaultLatestURL
	}
	if opts.DownloadBase == "" {
		opts.DownloadBase = DefaultDownloadBase
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}

	download := retryablehttp.NewClient()
	download.RetryMax = opts.RetryMax
	download.RetryWaitMin = 1 * time.Second
	download.RetryWaitMax = 10 * time.Second
	download.Logger = nil

	api := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTransport(download.HTTPClient.Transport)

	breaker := resilience.New("release-api", resilience.Settings{
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRateLimited) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	platform, err := Detect(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		logger.Warn("no release flavor for this platform", zap.Error(err))
	}

	return &Installer{
		api:       api,
		download:  download,
		breaker:   breaker,
		publisher: publisher,
		platform:  platform,
		opts:      opts,
		logger:    logger,
	}
}

// WithPlatform overrides the detected platform.
func (i *Installer) WithPlatform(p Platform) *Installer {
	i.platform = p
	return i
}

// Busy reports whether an install is running.
func (i *Installer) Busy() bool {
	return i.busy.Load()
}

// Install downloads and unpacks the latest release and returns the install
// directory. Completion is also announced with a download-complete event.
func (i *Installer) Install(ctx context.Context) (string, error) {
	if !i.busy.CompareAndSwap(false, true) {
		return "", ErrInProgress
	}
	defer i.busy.Store(false)

	if i.platform.Arch == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}

	dir, err := i.baseDir()
	if err != nil {
		return "", err
	}

	i.log(fmt.Sprintf("[SYSTEM] Detecting platform: %s (%s)", i.platform.OS, i.platform.Arch))
	i.publisher.PublishStatus(events.Downloading(fmt.Sprintf("Fetching latest %s release...", i.platform.Arch)))

	tgt, err := i.locate(ctx)
	if err != nil {
		return "", err
	}
	i.log("[SYSTEM] Found asset: " + tgt.Name)

	archive := filepath.Join(dir, archiveBase+i.platform.Ext)
	defer os.Remove(archive)
	if err := i.fetch(ctx, tgt.URL, archive); err != nil {
		return "", err
	}

	i.log("[SYSTEM] Download finished. Starting extraction...")
	i.publisher.PublishStatus(events.Downloading("Extracting binaries..."))

	dest := filepath.Join(dir, collaborator.BundleDir)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dest, err)
	}
	temp := filepath.Join(dir, extractDir)
	if err := os.RemoveAll(temp); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", temp, err)
	}
	if err := os.MkdirAll(temp, 0o755); err != nil {
		return "", err
	}
	defer os.RemoveAll(temp)

	if i.platform.Ext == ".zip" {
		i.log("[SYSTEM] Decompressing ZIP archive...")
		err = extractZip(ctx, archive, temp)
	} else {
		i.log("[SYSTEM] Decompressing TAR.GZ archive...")
		err = extractTarGz(ctx, archive, temp)
	}
	if err != nil {
		return "", err
	}

	if err := place(temp, dest); err != nil {
		return "", err
	}

	installDir := locateBinary(dest, i.logger)
	i.logger.Info("scrcpy installed", zap.String("dir", installDir), zap.String("asset", tgt.Name))
	i.publisher.PublishStatus(events.DownloadComplete(installDir))
	return installDir, nil
}

func (i *Installer) baseDir() (string, error) {
	if i.opts.Dir != "" {
		return i.opts.Dir, os.MkdirAll(i.opts.Dir, 0o755)
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe), nil
	}
	return os.Getwd()
}

func (i *Installer) log(line string) {
	i.publisher.PublishLog(line)
}
