package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: UnknownValue},
		{name: "empty version", ctx: NewContext("", "2026-01-01", "id"), want: UnknownValue},
		{name: "valid version", ctx: NewContext("1.0.0", "2026-01-01", "id"), want: "1.0.0"},
		{name: "pre-release tag", ctx: NewContext("1.0.0-beta.1", "", ""), want: "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctx.GetVersion())
		})
	}
}

func TestContext_UnknownFields(t *testing.T) {
	t.Parallel()

	var nilCtx *Context
	assert.Equal(t, UnknownValue, nilCtx.GetBuildDate())
	assert.Equal(t, UnknownValue, nilCtx.GetSystemID())

	ctx := NewContext("1.2.3", "", "")
	assert.Equal(t, UnknownValue, ctx.GetBuildDate())
	assert.Equal(t, UnknownValue, ctx.GetSystemID())
}

func TestContext_Release(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "soundpool@1.2.3", NewContext("1.2.3", "", "").Release())
	assert.Equal(t, "soundpool@unknown", (*Context)(nil).Release())
	assert.Equal(t, "soundpool 1.2.3 (built 2026-10-01)", NewContext("1.2.3", "2026-10-01", "").String())
}
