package settings

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

// Preferences is a read-only view of everything the Store owns.
type Preferences struct {
	Config            SessionConfig `json:"config"`
	Theme             string        `json:"theme"`
	AutoConnect       bool          `json:"autoConnect"`
	DefaultRecordPath string        `json:"defaultRecordPath"`
}

// Store is the configuration store. Until Hydrate completes, mutations only
// change memory so that startup defaults never overwrite persisted state.
type Store struct {
	mu                sync.RWMutex
	cfg               SessionConfig // Protected by mu
	theme             string        // Protected by mu
	autoConnect       bool          // Protected by mu
	defaultRecordPath string        // Protected by mu
	ready             bool          // Protected by mu

	kv        store.Store
	videosDir func() (string, error)
	logger    *zap.Logger
}

// NewStore creates a store holding defaults. videosDir resolves the
// fallback recording folder; nil selects VideosDir.
func NewStore(kv store.Store, videosDir func() (string, error), logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if videosDir == nil {
		videosDir = VideosDir
	}
	return &Store{
		cfg:         Defaults(),
		theme:       DefaultTheme,
		autoConnect: true,
		kv:          kv,
		videosDir:   videosDir,
		logger:      logger,
	}
}

// Hydrate loads persisted state, merges the configuration blob field by
// field over the current in-memory configuration and marks the store
// ready. A corrupt blob is logged and ignored. The merged configuration is
// written back once.
func (s *Store) Hydrate() error {
	theme := DefaultTheme
	if v, ok := s.kv.Get(store.KeyTheme); ok && v != "" {
		theme = v
	}

	auto := true
	if v, ok := s.kv.Get(store.KeyAutoConnect); ok {
		auto = v == "true"
	}

	recordDir, ok := s.kv.Get(store.KeyRecordPath)
	if !ok || recordDir == "" {
		dir, err := s.videosDir()
		if err != nil {
			s.logger.Warn("failed to resolve videos dir", zap.Error(err))
		}
		recordDir = dir
	}
	raw, hasBlob := s.kv.Get(store.KeyConfig)

	s.mu.Lock()
	cfg := s.cfg
	if hasBlob && raw != "" {
		merged := cfg
		if err := sonic.UnmarshalString(raw, &merged); err != nil {
			s.logger.Warn("failed to parse saved config", zap.Error(err))
		} else {
			cfg = merged
		}
	}
	if cfg.RecordPath == "" {
		cfg.RecordPath = recordDir
	}
	s.cfg = cfg
	s.theme = theme
	s.autoConnect = auto
	s.defaultRecordPath = recordDir
	s.ready = true
	s.mu.Unlock()

	s.logger.Info("configuration hydrated",
		zap.String("mode", string(cfg.SessionMode)),
		zap.String("theme", theme),
		zap.Bool("auto_connect", auto))

	return s.persistConfig(cfg)
}

// Ready reports whether Hydrate has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Config returns the current configuration.
func (s *Store) Config() SessionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update merges a partial JSON object over the current configuration.
// Fields absent from patch keep their value.
func (s *Store) Update(patch []byte) (SessionConfig, error) {
	s.mu.Lock()
	next := s.cfg
	if err := sonic.Unmarshal(patch, &next); err != nil {
		s.mu.Unlock()
		return s.Config(), fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if next.SessionMode == "" {
		next.SessionMode = ModeMirror
	}
	if err := next.SessionMode.Validate(); err != nil {
		s.mu.Unlock()
		return s.Config(), err
	}
	s.cfg = next
	ready := s.ready
	s.mu.Unlock()

	if !ready {
		return next, nil
	}
	return next, s.persistConfig(next)
}

// Apply mutates the configuration in place through fn.
func (s *Store) Apply(fn func(*SessionConfig)) (SessionConfig, error) {
	s.mu.Lock()
	next := s.cfg
	fn(&next)
	s.cfg = next
	ready := s.ready
	s.mu.Unlock()

	if !ready {
		return next, nil
	}
	return next, s.persistConfig(next)
}

// SetDevice keeps the configuration's device in step with the active
// device.
func (s *Store) SetDevice(id string) error {
	s.mu.RLock()
	same := s.cfg.Device == id
	s.mu.RUnlock()
	if same {
		return nil
	}
	_, err := s.Apply(func(c *SessionConfig) { c.Device = id })
	return err
}

// Theme returns the current theme.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme changes the theme, persisting it once hydrated.
func (s *Store) SetTheme(theme string) error {
	if theme == "" {
		theme = DefaultTheme
	}
	s.mu.Lock()
	s.theme = theme
	ready := s.ready
	s.mu.Unlock()

	if !ready {
		return nil
	}
	if err := s.kv.Set(store.KeyTheme, theme); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	return nil
}

// AutoConnect reports whether background refresh is enabled.
func (s *Store) AutoConnect() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoConnect
}

// SetAutoConnect toggles background refresh. The flag is written straight
// through, even before hydration.
func (s *Store) SetAutoConnect(on bool) error {
	s.mu.Lock()
	s.autoConnect = on
	s.mu.Unlock()

	if err := s.kv.Set(store.KeyAutoConnect, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("failed to persist auto-connect: %w", err)
	}
	return nil
}

// DefaultRecordPath returns the recording folder used when the
// configuration leaves it empty.
func (s *Store) DefaultRecordPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultRecordPath
}

// Preferences returns a snapshot of everything the store owns.
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Preferences{
		Config:            s.cfg,
		Theme:             s.theme,
		AutoConnect:       s.autoConnect,
		DefaultRecordPath: s.defaultRecordPath,
	}
}

func (s *Store) persistConfig(cfg SessionConfig) error {
	raw, err := sonic.MarshalString(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := s.kv.Set(store.KeyConfig, raw); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}
