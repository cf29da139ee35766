package envconfig

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResource(t *testing.T) {
	cases := map[string]string{
		"":                        "/cpu/self",
		"/cpu/self/ref":           "/cpu/self/ref",
		"  '/gpu/occa'  ":         "/gpu/occa",
		`"/cpu/self/opt:block=4"`: "/cpu/self/opt:block=4",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("CEED_RESOURCE", k)
			assert.Equal(t, v, Resource())
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"f":     slog.LevelInfo,
		"0":     slog.LevelInfo,
		"true":  slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("CEED_DEBUG", k)
			assert.Equal(t, v, LogLevel())
		})
	}
}

func TestUint(t *testing.T) {
	cases := map[string]uint{
		"0":    0,
		"1":    1,
		"8":    8,
		"-1":   3,
		"junk": 3,
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("CEED_TEST_UINT", k)
			assert.Equal(t, v, Uint("CEED_TEST_UINT", 3)())
		})
	}
}

func TestBlockSize(t *testing.T) {
	t.Setenv("CEED_BLOCK_SIZE", "")
	assert.Equal(t, uint(0), BlockSize())
	t.Setenv("CEED_BLOCK_SIZE", "8")
	assert.Equal(t, uint(8), BlockSize())
}

func TestValues(t *testing.T) {
	t.Setenv("CEED_OCCA_MODE", "Serial")
	vals := Values()
	assert.Equal(t, "Serial", vals["CEED_OCCA_MODE"])
	assert.Contains(t, vals, "CEED_NUM_WORKERS")
}
