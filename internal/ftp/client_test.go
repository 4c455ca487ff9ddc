package ftp

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"perseo/internal/config"
)

type fakeConn struct {
	cwd     string
	dirs    map[string]bool
	files   map[string]string
	renamed map[string]string
	deleted []string
}

func (f *fakeConn) ChangeDir(dir string) error {
	if !f.dirs[dir] {
		return errors.New("550 no such directory")
	}
	f.cwd = dir
	return nil
}

func (f *fakeConn) CurrentDir() (string, error) { return f.cwd, nil }

func (f *fakeConn) List(string) ([]*ftp.Entry, error) {
	var out []*ftp.Entry
	for name := range f.files {
		out = append(out, &ftp.Entry{Name: name, Type: ftp.EntryTypeFile})
	}
	out = append(out, &ftp.Entry{Name: "sub", Type: ftp.EntryTypeFolder})
	return out, nil
}

func (f *fakeConn) Retr(p string) (io.ReadCloser, error) {
	body, ok := f.files[p]
	if !ok {
		return nil, errors.New("550 not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeConn) Rename(from, to string) error {
	f.renamed[from] = to
	return nil
}

func (f *fakeConn) Delete(p string) error {
	f.deleted = append(f.deleted, p)
	return nil
}

func (f *fakeConn) MakeDir(dir string) error {
	f.dirs[dir] = true
	return nil
}

func (f *fakeConn) Quit() error { return nil }

func newFake() *fakeConn {
	return &fakeConn{
		cwd:     "/",
		dirs:    map[string]bool{"/": true, "nominas/202405": true},
		files:   map[string]string{"NominaFmt2.XLS": "xls", "LEEME.txt": "txt"},
		renamed: map[string]string{},
	}
}

func TestDownloadFilesWithPatternAndArchive(t *testing.T) {
	fc := newFake()
	c := newClient(fc, config.FTPConfig{
		RemoteDir:         "nominas",
		ArchiveDir:        "procesados",
		MoveAfterDownload: true,
	}, zap.NewNop())
	c.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

	local := t.TempDir()
	files, err := c.DownloadFiles("202405", local, "*.XLS")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(local, "NominaFmt2.XLS")}, files)

	b, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "xls", string(b))

	assert.Equal(t, "procesados/NominaFmt2_20240305_140709.XLS", fc.renamed["NominaFmt2.XLS"])
	assert.True(t, fc.dirs["procesados"])
	assert.Equal(t, "nominas/202405", fc.cwd)
}

func TestDownloadFilesDelete(t *testing.T) {
	fc := newFake()
	c := newClient(fc, config.FTPConfig{RemoteDir: "nominas", DeleteAfterDownload: true, FilePattern: "*.txt"}, zap.NewNop())

	files, err := c.DownloadFiles("202405", t.TempDir(), "")
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, []string{"LEEME.txt"}, fc.deleted)
}

func TestDownloadFilesMissingDir(t *testing.T) {
	c := newClient(newFake(), config.FTPConfig{}, zap.NewNop())
	_, err := c.DownloadFiles("202499", t.TempDir(), "")
	assert.Error(t, err)
}
