package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	replayr "github.com/HRemonen/Replayr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type testEnv struct {
	dir string
}

func newTestEnv(t *testing.T) testEnv {
	return testEnv{dir: t.TempDir()}
}

// run executes the command line args against the environment's SQLite store.
func (e testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	importID = 0
	showFormat = "json"

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "replayr.yaml"),
		"--driver", "sqlite",
		"--store", filepath.Join(e.dir, "replayr.db"),
	}, args...))

	err := rootCmd.Execute()

	// PersistentPostRunE is skipped when a command fails.
	if err != nil && store != nil {
		store.Close()
	}

	return out.String(), err
}

const message = "POST /items HTTP/1.1\r\nHost: example.com\r\nContent-Type: application/json\r\n\r\n{\"name\":\"widget\"}"

func TestImportAndShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, message, "import")
	require.NoError(t, err)
	assert.Equal(t, "imported #1 POST /items\n", out)

	out, err = env.run(t, message, "import", "--id", "10", "-")
	require.NoError(t, err)
	assert.Equal(t, "imported #10 POST /items\n", out)

	out, err = env.run(t, "", "show", "1")
	require.NoError(t, err)

	var req replayr.Request
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, []replayr.Header{
		{Key: "Host", Value: "example.com"},
		{Key: "Content-Type", Value: "application/json"},
	}, req.Headers())
	assert.Equal(t, `{"name":"widget"}`, req.Body())

	out, err = env.run(t, "", "show", "10", "--format", "http")
	require.NoError(t, err)
	assert.Equal(t, message, out)

	out, err = env.run(t, "", "show", "10", "--format", "yaml")
	require.NoError(t, err)

	var fromYAML replayr.Request
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.True(t, req.WithID(10).Equal(fromYAML))
}

func TestImport_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "HEAD / HTTP/1.1\r\n\r\n", "import")
	assert.ErrorIs(t, err, replayr.ErrInvalidMethod)

	_, err = env.run(t, "", "import", filepath.Join(env.dir, "missing.http"))
	assert.Error(t, err)

	_, err = env.run(t, "GET /x HTTP/1.1\r\nX-Name: Jos\xe9\r\n\r\n", "import")
	assert.ErrorIs(t, err, replayr.ErrInvalidUTF8)

	_, err = env.run(t, message, "import", "--id", "1")
	require.NoError(t, err)

	_, err = env.run(t, message, "import", "--id", "1")
	assert.ErrorIs(t, err, replayr.ErrDuplicateID)
}

func TestListAndDelete(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, message, "import")
	require.NoError(t, err)
	_, err = env.run(t, "GET /health HTTP/1.1\r\n\r\n", "import")
	require.NoError(t, err)

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/items")
	assert.Contains(t, out, "/health")
	assert.Contains(t, out, "17 B")

	_, err = env.run(t, "", "delete", "1")
	require.NoError(t, err)

	out, err = env.run(t, "", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "/items")

	_, err = env.run(t, "", "delete", "1")
	assert.ErrorIs(t, err, replayr.ErrNotFound)
}

func TestShow_InvalidArguments(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "show", "abc")
	assert.Error(t, err)

	_, err = env.run(t, "", "show", "1")
	assert.ErrorIs(t, err, replayr.ErrNotFound)

	_, err = env.run(t, message, "import")
	require.NoError(t, err)

	_, err = env.run(t, "", "show", "1", "--format", "xml")
	assert.Error(t, err)
}
