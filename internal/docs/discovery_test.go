package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	derrors "git.home.luguber.info/inful/remotevalues/internal/docs/errors"
	"git.home.luguber.info/inful/remotevalues/internal/testutil/testutils"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"index.md":                 "# Home",
		"guides/setup.MDX":         "setup",
		"guides/notes.markdown":    "notes",
		"img/logo.png":             "png",
		"data.json":                "{}",
		".hidden/secret.md":        "no",
		".env":                     "X=1",
		"node_modules/pkg/read.md": "no",
	})

	files, err := NewDiscovery(config.Default().Build).Discover(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelativePath)
	}
	require.Equal(t, []string{"data.json", "guides/notes.markdown", "guides/setup.MDX", "img/logo.png", "index.md"}, rels)

	require.True(t, files[0].IsAsset)
	require.False(t, files[2].IsAsset)
	require.Equal(t, ".mdx", files[2].Extension)
	require.True(t, filepath.IsAbs(files[4].Path))

	docs := Documents(files)
	require.Len(t, docs, 3)

	content, err := docs[2].LoadContent()
	require.NoError(t, err)
	require.Equal(t, "# Home", string(content))
}

func TestDiscover_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{"a.md": "", "b.txt": ""})

	files, err := NewDiscovery(config.BuildConfig{Extensions: []string{".TXT"}}).Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.True(t, files[0].IsAsset)
	require.False(t, files[1].IsAsset)
}

func TestDiscover_Errors(t *testing.T) {
	d := NewDiscovery(config.BuildConfig{})

	_, err := d.Discover(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, derrors.ErrSourceNotFound)

	file := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = d.Discover(file)
	require.ErrorIs(t, err, derrors.ErrSourceNotDir)

	_, err = DocFile{Path: file + ".gone", RelativePath: "gone"}.LoadContent()
	require.ErrorIs(t, err, derrors.ErrFileReadFailed)
}

func TestSkipName(t *testing.T) {
	require.True(t, SkipName(".git"))
	require.True(t, SkipName("node_modules"))
	require.False(t, SkipName("docs"))
}
