package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	s, found, err := Load(filepath.Join(t.TempDir(), "delay.toml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, defaultSettings(), s)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.toml")
	require.NoError(t, Save(path, Settings{DelayMs: 500, SampleRateHz: 192000}))
	s, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Settings{DelayMs: 500, SampleRateHz: 192000}, s)
}

func TestSave_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.toml")
	assert.Error(t, Save(path, Settings{DelayMs: 10001, SampleRateHz: 48000}))
	assert.Error(t, Save(path, Settings{DelayMs: 30, SampleRateHz: 50000}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	assert.NoError(t, Validate(write("ok.toml", "[audio_delay]\ndelay_ms = 30\nsample_rate = 44100\n")))

	err := Validate(write("unknown.toml", "[audio_delay]\ndelay_ms = 30\nfeedback = 0.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feedback")

	err = Validate(write("range.toml", "[audio_delay]\ndelay_ms = 20000\nsample_rate = 22050\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_ms 20000")
	assert.Contains(t, err.Error(), "sample_rate 22050")

	assert.ErrorContains(t, Validate(write("empty.toml", "")), "no [audio_delay] table")
	assert.Error(t, Validate(write("broken.toml", "[audio_delay\n")))
}

func TestRun_SetShowReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.toml")
	var out, errOut bytes.Buffer

	require.Equal(t, 0, run([]string{"-f", path, "set", "-delay", "250"}, &out, &errOut), errOut.String())
	require.Equal(t, 0, run([]string{"-f", path, "set", "-rate", "96000"}, &out, &errOut), errOut.String())

	out.Reset()
	require.Equal(t, 0, run([]string{"-f", path, "show"}, &out, &errOut))
	assert.Contains(t, out.String(), "delay_ms    = 250")
	assert.Contains(t, out.String(), "sample_rate = 96000")
	assert.Contains(t, out.String(), "# stored")

	require.Equal(t, 0, run([]string{"-f", path, "reset"}, &out, &errOut))
	s, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultSettings(), s)

	assert.Equal(t, 1, run([]string{"-f", path, "set", "-rate", "1"}, &out, &errOut))
	assert.Equal(t, 1, run([]string{"-f", path, "set"}, &out, &errOut))
	assert.Equal(t, 2, run([]string{"frobnicate"}, &out, &errOut))
	assert.Equal(t, 2, run(nil, &out, &errOut))
}
