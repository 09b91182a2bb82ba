package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const catalogYAML = `
decode:
  "1.0":
    train:
      app:
        cmd: ["python", "-m", "decode.train"]
        env: ["EPOCHS", "SEED"]
      handler:
        image_url: registry.example.com/decode:1.0
        files_down:
          config_id: /config
          data_ids: /data
          artifact_ids: /artifact
        files_up:
          output: /out
          log: /log
          artifact: /artifact
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Get(t *testing.T) {
	t.Parallel()

	loader, err := New(writeCatalog(t, catalogYAML), nil)
	require.NoError(t, err)

	cfg, err := loader.Get(context.Background())
	require.NoError(t, err)

	ep, err := cfg.Lookup("decode", "1.0", "train")
	require.NoError(t, err)
	require.Equal(t, "registry.example.com/decode:1.0", ep.Handler.ImageURL)
	require.Equal(t, []string{"python", "-m", "decode.train"}, ep.App.Cmd)
	require.Equal(t, []string{"EPOCHS", "SEED"}, ep.App.Env)
	require.Equal(t, "/config", ep.Handler.FilesDown["config_id"])
	require.Equal(t, "/out", ep.Handler.FilesUp["output"])
}

func TestLoader_RefreshesOnModification(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, catalogYAML)
	loader, err := New(path, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = loader.Get(ctx)
	require.NoError(t, err)

	updated := catalogYAML + `
other:
  "2.0":
    fit:
      app:
        cmd: ["run"]
      handler:
        image_url: registry.example.com/other:2.0
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	// mtime granularity can swallow back-to-back writes; push it forward explicitly.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	cfg, err := loader.Get(ctx)
	require.NoError(t, err)
	_, err = cfg.Lookup("other", "2.0", "fit")
	require.NoError(t, err)
}

func TestLoader_CachesWhenUnmodified(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, catalogYAML)
	loader, err := New(path, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := loader.Get(ctx)
	require.NoError(t, err)
	second, err := loader.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	loader, err := New(writeCatalog(t, catalogYAML), nil)
	require.NoError(t, err)

	cfg, err := loader.Get(context.Background())
	require.NoError(t, err)

	_, err = cfg.Lookup("nope", "1.0", "train")
	require.ErrorIs(t, err, ErrUnknownApplication)
	_, err = cfg.Lookup("decode", "9.9", "train")
	require.ErrorIs(t, err, ErrUnknownApplication)
	_, err = cfg.Lookup("decode", "1.0", "predict")
	require.ErrorIs(t, err, ErrUnknownApplication)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parse([]byte("- just\n- a\n- list\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_S3PathValidation(t *testing.T) {
	t.Parallel()

	_, err := New("s3://bucket/key.yaml", nil)
	require.ErrorIs(t, err, ErrInvalidSource)

	_, err = newS3Source("s3://bucketonly", nil)
	require.ErrorIs(t, err, ErrInvalidSource)
}
