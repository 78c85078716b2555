package settings

import (
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

func fixedVideos(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestWritesSuppressedBeforeHydrate(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyConfig, `{"bitrate":16}`))
	before := kv.Writes()

	s := NewStore(kv, fixedVideos("/videos"), nil)
	cfg, err := s.Update([]byte(`{"fps":30}`))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.FPS)
	require.NoError(t, s.SetTheme("dark"))
	require.NoError(t, s.SetDevice("R58M"))

	assert.Equal(t, before, kv.Writes(), "nothing may be persisted before hydrate")
	raw, _ := kv.Get(store.KeyConfig)
	assert.JSONEq(t, `{"bitrate":16}`, raw)
}

func TestHydrateMergesOverDefaults(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyConfig, `{"bitrate":16,"sessionMode":"camera"}`))

	s := NewStore(kv, fixedVideos("/videos"), nil)
	require.NoError(t, s.Hydrate())

	cfg := s.Config()
	assert.Equal(t, 16, cfg.Bitrate)
	assert.Equal(t, ModeCamera, cfg.SessionMode)
	assert.Equal(t, 60, cfg.FPS, "absent fields keep their default")
	assert.Equal(t, 1920, cfg.VdWidth)
	assert.True(t, cfg.AudioEnabled)
	assert.True(t, cfg.AspectRatioLock)
	assert.Equal(t, "/videos", cfg.RecordPath)
	assert.True(t, s.Ready())
}

func TestHydrateKeepsInMemoryChanges(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyConfig, `{"bitrate":16}`))

	s := NewStore(kv, fixedVideos("/videos"), nil)
	_, err := s.Update([]byte(`{"fps":30}`))
	require.NoError(t, err)
	require.NoError(t, s.SetDevice("R58M"))

	require.NoError(t, s.Hydrate())

	cfg := s.Config()
	assert.Equal(t, 16, cfg.Bitrate, "persisted fields win")
	assert.Equal(t, 30, cfg.FPS, "fields absent from the blob keep the in-memory value")
	assert.Equal(t, "R58M", cfg.Device)

	raw, _ := kv.Get(store.KeyConfig)
	var saved SessionConfig
	require.NoError(t, sonic.UnmarshalString(raw, &saved))
	assert.Equal(t, 30, saved.FPS)
}

func TestHydrateCorruptBlobFallsBackToDefaults(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyConfig, `{broken`))

	s := NewStore(kv, fixedVideos(""), nil)
	require.NoError(t, s.Hydrate())
	assert.Equal(t, Defaults(), s.Config())
}

func TestHydrateKeepsStoredRecordPath(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyConfig, `{"recordPath":"/mine"}`))

	s := NewStore(kv, fixedVideos("/videos"), nil)
	require.NoError(t, s.Hydrate())
	assert.Equal(t, "/mine", s.Config().RecordPath)
	assert.Equal(t, "/videos", s.DefaultRecordPath())
}

func TestHydrateRecordPathOverrideKey(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyRecordPath, "/captures"))

	s := NewStore(kv, func() (string, error) { return "", errors.New("unused") }, nil)
	require.NoError(t, s.Hydrate())
	assert.Equal(t, "/captures", s.DefaultRecordPath())
	assert.Equal(t, "/captures", s.Config().RecordPath)
}

func TestUpdatePersistsAfterHydrate(t *testing.T) {
	kv := store.NewMemory()
	s := NewStore(kv, fixedVideos("/videos"), nil)
	require.NoError(t, s.Hydrate())

	_, err := s.Update([]byte(`{"res":"1024","otgEnabled":true}`))
	require.NoError(t, err)

	raw, ok := kv.Get(store.KeyConfig)
	require.True(t, ok)
	var persisted SessionConfig
	require.NoError(t, sonic.UnmarshalString(raw, &persisted))
	assert.Equal(t, "1024", persisted.Res)
	assert.True(t, persisted.OtgEnabled)
	assert.Equal(t, 8, persisted.Bitrate)
}

func TestUpdateRejectsUnknownMode(t *testing.T) {
	s := NewStore(store.NewMemory(), fixedVideos(""), nil)
	require.NoError(t, s.Hydrate())

	_, err := s.Update([]byte(`{"sessionMode":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, ModeMirror, s.Config().SessionMode)

	_, err = s.Update([]byte(`nope`))
	assert.Error(t, err)
}

func TestSetDeviceFollowsActive(t *testing.T) {
	kv := store.NewMemory()
	s := NewStore(kv, fixedVideos(""), nil)
	require.NoError(t, s.Hydrate())

	require.NoError(t, s.SetDevice("10.0.0.5:5555"))
	assert.Equal(t, "10.0.0.5:5555", s.Config().Device)

	writes := kv.Writes()
	require.NoError(t, s.SetDevice("10.0.0.5:5555"))
	assert.Equal(t, writes, kv.Writes(), "unchanged device is not rewritten")
}

func TestThemeAndAutoConnect(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyTheme, "midnight"))
	require.NoError(t, kv.Set(store.KeyAutoConnect, "false"))

	s := NewStore(kv, fixedVideos(""), nil)
	assert.Equal(t, DefaultTheme, s.Theme())
	assert.True(t, s.AutoConnect())

	require.NoError(t, s.Hydrate())
	assert.Equal(t, "midnight", s.Theme())
	assert.False(t, s.AutoConnect())

	require.NoError(t, s.SetTheme(""))
	v, _ := kv.Get(store.KeyTheme)
	assert.Equal(t, DefaultTheme, v)

	require.NoError(t, s.SetAutoConnect(true))
	v, _ = kv.Get(store.KeyAutoConnect)
	assert.Equal(t, "true", v)
}

func TestModeValidateAndLabel(t *testing.T) {
	assert.NoError(t, ModeDesktop.Validate())
	assert.ErrorIs(t, Mode("x").Validate(), ErrUnknownMode)
	assert.Equal(t, "Camera Mode", ModeCamera.Label())
	assert.Equal(t, "Screen Mirroring", ModeMirror.Label())
}

func TestVideosDirFromEnv(t *testing.T) {
	t.Setenv("XDG_VIDEOS_DIR", "/srv/videos")
	dir, err := VideosDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/videos", dir)
}
