package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := loadConfig("")
	require.NoError(t, err)

	sc := siteConfig(v)
	assert.Equal(t, "Blog", sc.Name)
	assert.Equal(t, ":3000", sc.Addr)
	assert.Equal(t, 5, sc.PageSize)
	assert.Equal(t, 20, sc.FeedSize)
	assert.Equal(t, 5*time.Minute, sc.TagCacheTTL)
	assert.Equal(t, time.Minute, sc.LoginWindow)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  name: Notebook
  url: https://notes.example
page_size: 10
session_secret: from-file
`), 0o644))
	t.Setenv("INKPOST_SESSION_SECRET", "from-env")
	t.Setenv("INKPOST_SITE_AUTHOR", "Ann")

	v, err := loadConfig(path)
	require.NoError(t, err)

	sc := siteConfig(v)
	assert.Equal(t, "Notebook", sc.Name)
	assert.Equal(t, "https://notes.example", sc.URL)
	assert.Equal(t, 10, sc.PageSize)
	assert.Equal(t, "from-env", sc.SessionSecret)
	assert.Equal(t, "Ann", sc.Author)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("post.md", []byte("# Title\n\nhello <script>x</script> world"), 0o644))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"render", "--stats", "post.md"})
	t.Cleanup(func() {
		flagStats = false
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `<h1 id="title">Title</h1>`)
	assert.NotContains(t, out.String(), "<script>")
	assert.Contains(t, errOut.String(), "reading time: 1 min")
}
