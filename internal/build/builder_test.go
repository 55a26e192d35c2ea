package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/testutil/testutils"
)

func newUpstream(t *testing.T) *testutils.Upstream {
	return testutils.NewUpstream(t, map[string]testutils.Response{
		"/release.json": testutils.JSON(`{"tag_name":"v2.0.0"}`),
	})
}

func newBuilder(cfg config.BuildConfig) *Builder {
	return New(cfg, fetch.NewResolver(fetch.NewFetcher(config.Default().Fetch)))
}

func TestBuild_Markdown(t *testing.T) {
	up := newUpstream(t)
	src, out := t.TempDir(), t.TempDir()
	placeholder := up.Placeholder("/release.json", "tag_name")
	testutils.WriteTree(t, src, map[string]string{
		"index.md":        "---\ntitle: Home\n---\n# Latest " + placeholder + "\n",
		"guide/setup.md":  "Install " + placeholder + " now.\n",
		"guide/off.md":    "---\nremote_values: false\n---\nKeep " + placeholder + "\n",
		"guide/broken.md": "Missing " + up.Placeholder("/missing", "") + ".\n",
		"img/logo.png":    "png",
	})

	b := newBuilder(config.Default().Build)
	res, err := b.Build(context.Background(), src, out)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.NotEmpty(t, res.BuildID)
	require.Len(t, res.Documents, 4)
	require.Equal(t, 1, res.Assets)
	require.Equal(t, 2, up.TotalHits(), "shared cache fetches each key once per build")

	testutils.NewFileAssertions(t, out).
		Equals("index.md", "---\ntitle: Home\n---\n# Latest v2.0.0\n").
		Equals("guide/setup.md", "Install v2.0.0 now.\n").
		Equals("guide/off.md", "Keep "+placeholder+"\n").
		Equals("guide/broken.md", "Missing .\n").
		Equals("img/logo.png", "png")

	require.Equal(t, "guide/broken.md", res.Documents[0].Path)
	require.Equal(t, 1, res.Documents[0].Failed)
	require.Equal(t, metrics.DocumentSkipped, res.Documents[1].Outcome)
	require.Equal(t, 3, res.Count(metrics.DocumentWritten))
	require.Equal(t, 3, res.Placeholders())
}

func TestBuild_UnchangedOutputsAreNotRewritten(t *testing.T) {
	up := newUpstream(t)
	src, out := t.TempDir(), t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"a.md": "v " + up.Placeholder("/release.json", "tag_name") + "\n"})

	b := newBuilder(config.Default().Build)
	_, err := b.Build(context.Background(), src, out)
	require.NoError(t, err)

	target := filepath.Join(out, "a.md")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(target, old, old))

	res, err := b.Build(context.Background(), src, out)
	require.NoError(t, err)
	require.Equal(t, metrics.DocumentUnchanged, res.Documents[0].Outcome)
	info, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(old))
}

func TestBuild_RewritesOutputsThatDifferOnlyInFrontMatterLayout(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	page := "---\ntitle: Home\ndraft: false\n---\nbody\n"
	testutils.WriteTree(t, src, map[string]string{"a.md": page})

	b := newBuilder(config.Default().Build)
	_, err := b.Build(context.Background(), src, out)
	require.NoError(t, err)

	testutils.WriteTree(t, out, map[string]string{"a.md": "---\ndraft: false\ntitle: Home\n---\nbody\n"})
	res, err := b.Build(context.Background(), src, out)
	require.NoError(t, err)
	require.Equal(t, metrics.DocumentWritten, res.Documents[0].Outcome)
	testutils.NewFileAssertions(t, out).Equals("a.md", page)
}

func TestBuild_HTML(t *testing.T) {
	up := newUpstream(t)
	src, out := t.TempDir(), t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"docs/page.mdx": "---\ntitle: x\n---\nVersion " + up.Placeholder("/release.json", "tag_name") + "\n"})

	cfg := config.Default().Build
	cfg.Format = config.OutputHTML
	res, err := newBuilder(cfg).Build(context.Background(), src, out)
	require.NoError(t, err)
	require.Equal(t, "docs/page.html", res.Documents[0].Output)
	testutils.NewFileAssertions(t, out).
		Equals("docs/page.html", "<p>Version v2.0.0</p>\n").
		Missing("docs/page.mdx")
}

func TestBuild_Failures(t *testing.T) {
	src := t.TempDir()
	b := newBuilder(config.Default().Build)

	res, err := b.Build(context.Background(), src, src)
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))

	_, err = b.Build(context.Background(), filepath.Join(src, "missing"), t.TempDir())
	require.ErrorIs(t, err, ErrDiscovery)

	testutils.WriteTree(t, src, map[string]string{"bad.md": "---\ntitle: x\n"})
	res, err = b.Build(context.Background(), src, t.TempDir())
	require.ErrorIs(t, err, ErrDocument)
	require.Equal(t, StatusFailed, res.Status)
}

func TestBuild_OutputInsideSourceIsExcluded(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(src, "public")
	testutils.WriteTree(t, src, map[string]string{"a.md": "a\n", "public/stale.md": "old\n"})

	cfg := config.Default().Build
	noCopy := false
	cfg.CopyAssets = &noCopy
	res, err := newBuilder(cfg).Build(context.Background(), src, out)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	require.Equal(t, "a.md", res.Documents[0].Path)
}

func TestBuild_Cancelled(t *testing.T) {
	src := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"a.md": "a\n", "b.md": "b\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newBuilder(config.Default().Build).Build(ctx, src, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, res.Status)
	require.Empty(t, res.Documents)
}
