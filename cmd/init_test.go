package cmd

import (
	"bufio"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	old := passwordPrompt
	passwordPrompt = func(string) (string, error) { return pw, err }
	t.Cleanup(func() { passwordPrompt = old })
}

func TestCollectConfig(t *testing.T) {
	stubPassword(t, "secret", nil)
	r := bufio.NewReader(strings.NewReader("https://automate.example.com\nabc-123\n integrator \n"))

	fc, err := collectConfig(r, true)
	require.NoError(t, err)
	assert.Equal(t, "https://automate.example.com", fc.ServerURL)
	assert.Equal(t, "abc-123", fc.ClientID)
	assert.Equal(t, "integrator", fc.Auth.Username)
	assert.Equal(t, "secret", fc.Auth.Password)
	assert.Equal(t, "integrator", fc.Auth.Method)
}

func TestCollectConfig_WithoutSavedPassword(t *testing.T) {
	stubPassword(t, "", errors.New("must not be called"))
	r := bufio.NewReader(strings.NewReader("https://automate.example.com\nabc\nintegrator"))

	fc, err := collectConfig(r, false)
	require.NoError(t, err)
	assert.Empty(t, fc.Auth.Password)
}

func TestCollectConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		password string
		wantType clierr.Type
	}{
		{"bad url", "not a url\nabc\nuser\n", "pw", clierr.Validation},
		{"empty client id", "https://a.example.com\n\nuser\n", "pw", clierr.Validation},
		{"empty username", "https://a.example.com\nabc\n   \n", "pw", clierr.Validation},
		{"empty password", "https://a.example.com\nabc\nuser\n", "", clierr.Validation},
		{"input ends early", "https://a.example.com\n", "pw", clierr.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, tt.password, nil)
			_, err := collectConfig(bufio.NewReader(strings.NewReader(tt.input)), true)
			var ce *clierr.Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantType, ce.Type)
		})
	}
}

func TestInitCmd_WritesConfig(t *testing.T) {
	clearConfigEnv(t)
	stubPassword(t, "secret", nil)
	oldPath, oldStdin := configPath, stdin
	t.Cleanup(func() { configPath, stdin = oldPath, oldStdin })
	configPath = filepath.Join(t.TempDir(), "config.toml")
	stdin = strings.NewReader("https://automate.example.com\nabc\nintegrator\n")

	cmd := initCmd()
	cmd.SetOut(new(nopWriter))
	cmd.SetArgs([]string{"--save-password"})
	require.NoError(t, cmd.Execute())

	fc, err := loadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "abc", fc.ClientID)
	assert.Equal(t, "secret", fc.Auth.Password)
}
