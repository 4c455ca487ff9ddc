package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// MoveFile moves src into dstDir, adding a timestamp when the name is taken.
func MoveFile(src, dstDir string) (string, error) {
	if err := EnsureDir(dstDir); err != nil {
		return "", err
	}

	base := filepath.Base(src)
	dst := filepath.Join(dstDir, base)

	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(base)
		name := base[:len(base)-len(ext)]
		dst = filepath.Join(
			dstDir,
			fmt.Sprintf("%s_%d%s", name, time.Now().Unix(), ext),
		)
	}

	return dst, os.Rename(src, dst)
}

// RequireFile fails unless path exists and is a regular file.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s no se encontró: %w", path, err)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s no es un archivo", path)
	}
	return nil
}

// RequireDir fails unless path exists and is a directory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no existe el directorio %s: %w", path, err)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s no es un directorio", path)
	}
	return nil
}

// TimestampedName builds prefix_quincena_YYYY-MM-DD_HHMMSS.ext
func TimestampedName(prefix, quincena, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s", prefix, quincena, now.Format("2006-01-02_150405"), ext)
}
