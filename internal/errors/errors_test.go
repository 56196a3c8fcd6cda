package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", New("empty command line"), "empty command line"},
		{"formatted", Newf("no image at %d", 4), "no image at 4"},
		{"wrapped", Wrap(cause, "rescan"), "rescan: permission denied"},
		{"wrapped formatted", Wrapf(cause, "scan %s", "/pics"), "scan /pics: permission denied"},
		{"file", NewFileError("cannot read", "/pics/a.png", FileAccessDenied, nil), "cannot read: /pics/a.png"},
		{"file with cause", NewFileError("cannot read", "/pics/a.png", FileAccessDenied, cause), "cannot read: /pics/a.png: permission denied"},
		{"file without path", NewFileError("cannot read", "", FileAccessDenied, cause), "cannot read: permission denied"},
		{"config", NewConfigError("invalid value", "watch.debounce", InvalidConfig, nil), "invalid value: watch.debounce"},
		{"binding quotes the pattern", NewBindingError("invalid pattern", `(\d+`, InvalidBinding, nil), `invalid pattern: "(\\d+"`},
		{"binding with cause", NewBindingError("invalid chord", "C-", InvalidBinding, cause), `invalid chord: "C-": permission denied`},
		{"sentinel", ErrFileNotFound, "file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "rescan"))
	assert.Nil(t, Wrapf(nil, "scan %s", "/pics"))
}

func TestFromOS(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.png")
	_, statErr := os.Stat(missing)
	require.Error(t, statErr)

	err := FromOS("failed to stat file", missing, statErr)
	assert.True(t, IsFileNotFound(err))
	assert.Equal(t, missing, err.Path())
	assert.True(t, Is(err, fs.ErrNotExist))

	err = FromOS("failed to read directory", "/root", fs.ErrPermission)
	assert.True(t, IsFileAccessDenied(err))
	assert.False(t, IsFileNotFound(err))
}

func TestPredicates(t *testing.T) {
	watch := NewFileError("failed to watch directory", "/pics", WatchFailed, nil)
	unknown := NewBindingError("unknown action", "zoom", UnknownAction, nil)
	badRegex := NewBindingError("invalid pattern", "(a", InvalidBinding, nil)
	badConfig := NewConfigError("invalid value", "viewer.order", InvalidConfig, nil)

	assert.True(t, IsWatchFailed(watch))
	assert.False(t, IsFileNotFound(watch))
	assert.True(t, IsUnknownAction(unknown))
	assert.False(t, IsInvalidBinding(unknown))
	assert.True(t, IsInvalidBinding(badRegex))
	assert.True(t, IsInvalidConfig(badConfig))
	assert.False(t, IsInvalidConfig(New("other")))
	assert.False(t, IsInvalidConfig(nil))
}

func TestChains(t *testing.T) {
	base := errors.New("missing )")
	bind := NewBindingError("invalid pattern", "(a", InvalidBinding, base)
	cfg := NewConfigError("invalid binding", "bindings[3]", InvalidConfig, bind)
	top := Wrap(cfg, "load config")

	assert.Equal(t, `load config: invalid binding: bindings[3]: invalid pattern: "(a": missing )`, top.Error())
	assert.True(t, Is(top, base))
	assert.True(t, IsInvalidConfig(top))
	assert.True(t, IsInvalidBinding(top))

	var be *BindingError
	require.True(t, As(top, &be))
	assert.Equal(t, "(a", be.Pattern())

	var ce *ConfigError
	require.True(t, As(top, &ce))
	assert.Equal(t, "bindings[3]", ce.Param())
	assert.Equal(t, cfg, Unwrap(top))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(nil))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, FileNotFound, KindOf(Wrap(ErrFileNotFound, "open")))

	// the outermost classified error wins
	inner := NewFileError("failed to read directory", "/pics", FileAccessDenied, nil)
	outer := NewConfigError("invalid value", "watch.strategy", InvalidConfig, inner)
	assert.Equal(t, InvalidConfig, KindOf(Wrap(outer, "load")))

	assert.Equal(t, "watch failed", WatchFailed.String())
	assert.Equal(t, "kind(99)", ErrorKind(99).String())
}
