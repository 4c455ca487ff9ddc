// Package ftp fetches period files from the payroll FTP drop.
package ftp

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"perseo/internal/config"
)

// conn is the part of *ftp.ServerConn the client uses.
type conn interface {
	ChangeDir(dir string) error
	CurrentDir() (string, error)
	List(dir string) ([]*ftp.Entry, error)
	Retr(remotePath string) (io.ReadCloser, error)
	Rename(from, to string) error
	Delete(remotePath string) error
	MakeDir(dir string) error
	Quit() error
}

type serverConn struct {
	*ftp.ServerConn
}

func (s serverConn) Retr(remotePath string) (io.ReadCloser, error) {
	return s.ServerConn.Retr(remotePath)
}

type Client struct {
	conn   conn
	config config.FTPConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewClient(cfg config.FTPConfig, log *zap.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	c, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server: %w", err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Quit()
		return nil, fmt.Errorf("failed to login to FTP server: %w", err)
	}

	return newClient(serverConn{c}, cfg, log), nil
}

func newClient(c conn, cfg config.FTPConfig, log *zap.Logger) *Client {
	return &Client{conn: c, config: cfg, log: log, now: time.Now}
}

// DownloadFiles copies the files of remoteDir (relative to FTP_REMOTE_DIR)
// matching pattern into localDir. An empty pattern falls back to
// FTP_FILE_PATTERN. Remote files are archived or deleted afterwards when
// configured.
func (c *Client) DownloadFiles(remoteDir, localDir, pattern string) ([]string, error) {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local folder: %w", err)
	}

	dir := path.Join(c.config.RemoteDir, remoteDir)
	if dir != "" && dir != "." {
		if err := c.conn.ChangeDir(dir); err != nil {
			return nil, fmt.Errorf("failed to change directory %s: %w", dir, err)
		}
	}

	entries, err := c.conn.List(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	if pattern == "" {
		pattern = c.config.FilePattern
	}

	var downloaded []string
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, entry.Name); !ok {
				continue
			}
		}

		localPath := filepath.Join(localDir, entry.Name)
		if err := c.downloadFile(entry.Name, localPath); err != nil {
			return downloaded, fmt.Errorf("failed to download %s: %w", entry.Name, err)
		}
		downloaded = append(downloaded, localPath)
		c.log.Debug("ftp download", zap.String("file", entry.Name), zap.String("dir", dir))

		if c.config.MoveAfterDownload && c.config.ArchiveDir != "" {
			if err := c.MoveFileWithTimestamp(entry.Name, c.config.ArchiveDir); err != nil {
				c.log.Warn("ftp archive failed", zap.String("file", entry.Name), zap.Error(err))
			}
		} else if c.config.DeleteAfterDownload {
			if err := c.DeleteFile(entry.Name); err != nil {
				c.log.Warn("ftp delete failed", zap.String("file", entry.Name), zap.Error(err))
			}
		}
	}

	return downloaded, nil
}

func (c *Client) downloadFile(remotePath, localPath string) error {
	resp, err := c.conn.Retr(remotePath)
	if err != nil {
		return err
	}
	defer resp.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer localFile.Close()

	_, err = io.Copy(localFile, resp)
	return err
}

// MoveFileWithTimestamp renames the file into destDir adding a timestamp.
func (c *Client) MoveFileWithTimestamp(sourceFile, destDir string) error {
	sourceFile = path.Clean(sourceFile)
	destDir = path.Clean(destDir)

	if err := c.ensureDir(destDir); err != nil {
		return fmt.Errorf("failed to ensure destination directory: %w", err)
	}

	filename := path.Base(sourceFile)
	ext := path.Ext(filename)
	name := filename[:len(filename)-len(ext)]

	destPath := path.Join(destDir, fmt.Sprintf("%s_%s%s", name, c.now().Format("20060102_150405"), ext))

	if err := c.conn.Rename(sourceFile, destPath); err != nil {
		return fmt.Errorf("failed to move file from [%s] to [%s]: %w", sourceFile, destPath, err)
	}
	return nil
}

func (c *Client) DeleteFile(remotePath string) error {
	if err := c.conn.Delete(remotePath); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", remotePath, err)
	}
	return nil
}

// ensureDir creates dir without leaving the current directory.
func (c *Client) ensureDir(dir string) error {
	origDir, err := c.conn.CurrentDir()
	if err != nil {
		return err
	}

	if err := c.conn.ChangeDir(dir); err != nil {
		if err := c.conn.MakeDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	_ = c.conn.ChangeDir(origDir)
	return nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Quit()
	}
	return nil
}
