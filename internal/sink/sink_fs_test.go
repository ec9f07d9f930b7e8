package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

func sampleRecords() []harvest.Record {
	return []harvest.Record{
		harvest.Success("Alan Turing", "Alan Turing", []string{"https://a.com"}),
		harvest.Failure("Turing Award", harvest.KindNotFound, "PageError: Could not find page."),
		harvest.Success("Gödel", "Kurt Gödel", []string{"https://de.example/ü?x=1&y=2"}),
		harvest.Failure("Mercury", harvest.KindDisambiguation, "DisambiguationError: Options are: ['A', 'B']"),
	}
}

func TestSaveCreatesNestedDirectory(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "a", "b", "out")
	s, err := NewFileSystemSink(root, zap.NewNop())
	require.NoError(t, err)

	path, err := s.Save(context.Background(), sampleRecords())

	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "wikipedia_references.json"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSaveExistingDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewFileSystemSink(root, nil)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), sampleRecords())
	require.NoError(t, err)
	_, err = s.Save(context.Background(), sampleRecords()[:1])
	require.NoError(t, err)

	got, err := Load(s.Path())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewFileSystemSink(t.TempDir(), nil)
	require.NoError(t, err)
	in := sampleRecords()

	path, err := s.Save(context.Background(), in)
	require.NoError(t, err)

	out, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestEncodePreservesNonASCIIAndIndents(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleRecords())
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, "Kurt Gödel")
	require.Contains(t, text, "https://de.example/ü?x=1&y=2")
	require.True(t, strings.HasPrefix(text, "[\n    {\n        \"topic\": \"Alan Turing\",\n"))
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	data, err := Encode(nil)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(data))
}

func TestSaveReportsWriteFailure(t *testing.T) {
	t.Parallel()

	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s, err := NewFileSystemSink(blocker, nil)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), sampleRecords())
	require.Error(t, err)
}

func TestSaveAfterCancelStillWrites(t *testing.T) {
	t.Parallel()

	s, err := NewFileSystemSink(t.TempDir(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path, err := s.Save(ctx, sampleRecords())
	require.NoError(t, err)
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(sampleRecords()))
}

func TestNewFileSystemSinkRequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := NewFileSystemSink("  ", nil)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
