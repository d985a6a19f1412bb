package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/on-the-ground/unidir_go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unidir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const fastDemo = `
log:
  level: error
demo:
  tick: 2ms
  count: 3
  words: [a, b, c]
`

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "unidir", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"countdown", "dictation"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "", levelFlag.DefValue)
}

func TestRootOptions_LogLevelOverridesConfig(t *testing.T) {
	opts := &RootOptions{LogLevel: "warn"}
	require.NoError(t, opts.load())
	assert.Equal(t, "warn", string(opts.Config.Log.Level))
	require.NotNil(t, opts.Logger)

	opts = &RootOptions{LogLevel: "loud"}
	assert.ErrorIs(t, opts.load(), config.ErrInvalidConfig)
}

func TestCountdown(t *testing.T) {
	out, err := execute(t, "countdown", "--config", writeConfig(t, fastDemo))
	require.NoError(t, err)
	assert.Equal(t, "3\n2\n1\n0\nliftoff\n", out)
}

func TestCountdown_CountFlag(t *testing.T) {
	out, err := execute(t, "countdown", "--config", writeConfig(t, fastDemo), "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, "1\n0\nliftoff\n", out)
}

func TestCountdown_Zero(t *testing.T) {
	out, err := execute(t, "countdown", "--config", writeConfig(t, fastDemo), "--count", "0")
	require.NoError(t, err)
	assert.Equal(t, "0\nliftoff\n", out)
}

func TestCountdownReducer(t *testing.T) {
	reduce := countdownReducer(time.Millisecond)

	state, eff := reduce(countdownState{Remaining: 2}, startCountdown{})
	assert.Equal(t, countdownState{Remaining: 2, Running: true}, state)
	assert.False(t, eff.IsNone())

	_, eff = reduce(state, startCountdown{})
	assert.True(t, eff.IsNone())

	state, eff = reduce(state, countdownTicked{})
	assert.Equal(t, countdownState{Remaining: 1, Running: true}, state)
	assert.True(t, eff.IsNone())

	state, eff = reduce(state, countdownTicked{})
	assert.Equal(t, countdownState{Remaining: 0, Running: false}, state)
	assert.False(t, eff.IsNone())

	state, eff = reduce(state, countdownTicked{})
	assert.Equal(t, countdownState{}, state)
	assert.True(t, eff.IsNone())

	state, eff = reduce(countdownState{Remaining: 5, Running: true}, stopCountdown{})
	assert.Equal(t, countdownState{Remaining: 5}, state)
	assert.False(t, eff.IsNone())
}

func TestDictation(t *testing.T) {
	out, err := execute(t, "dictation", "--config", writeConfig(t, fastDemo))
	require.NoError(t, err)
	assert.Equal(t, "heard: a\nheard: b\nheard: c\ntranscript: a b c\n", out)
}

func TestDictation_WordsFlag(t *testing.T) {
	out, err := execute(t, "dictation", "--config", writeConfig(t, fastDemo), "--words", "hello,world")
	require.NoError(t, err)
	assert.Equal(t, "heard: hello\nheard: world\ntranscript: hello world\n", out)
}

func TestDictation_NothingToRecognize(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\ndemo:\n  tick: 2ms\n  words: []\n")
	_, err := execute(t, "dictation", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), errNoSpeech.Error())
}

func TestDictationReducer_Abort(t *testing.T) {
	reduce := dictationReducer(simulatedRecognizer{words: []string{"a"}, interval: time.Millisecond}.start)

	state, eff := reduce(dictationState{}, startDictation{})
	assert.True(t, state.Listening)
	assert.False(t, eff.IsNone())

	state, _ = reduce(state, wordHeard{word: "a"})
	assert.Equal(t, []string{"a"}, state.Partial)

	state, eff = reduce(state, abortDictation{})
	assert.Equal(t, dictationState{}, state)
	assert.False(t, eff.IsNone())

	state, eff = reduce(state, silenceDetected{})
	assert.False(t, eff.IsNone())

	state, _ = reduce(state, dictationFailed{err: errNoSpeech})
	assert.Equal(t, errNoSpeech.Error(), state.Err)
}

func TestSameDictation(t *testing.T) {
	a := dictationState{Partial: []string{"a"}, Listening: true}
	assert.True(t, sameDictation(a, dictationState{Partial: []string{"a"}, Listening: true}))
	assert.False(t, sameDictation(a, dictationState{Partial: []string{"a", "b"}, Listening: true}))
	assert.False(t, sameDictation(a, dictationState{Partial: []string{"a"}}))
}
