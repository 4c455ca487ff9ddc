package orchestrator

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"perseo/internal/config"
	"perseo/internal/ftp"
	"perseo/internal/payroll"
)

// Downloader is the part of the FTP client the fetch steps use.
type Downloader interface {
	DownloadFiles(remoteDir, localDir, pattern string) ([]string, error)
	Close() error
}

func dialFTP(cfg config.FTPConfig, log *zap.Logger) (Downloader, error) {
	return ftp.NewClient(cfg, log)
}

func (s *Service) download(remoteDir, localDir, pattern string) ([]string, error) {
	if err := s.Config.Validate(config.NeedFTPHost); err != nil {
		return nil, err
	}
	dial := s.dial
	if dial == nil {
		dial = dialFTP
	}
	client, err := dial(s.Config.FTP, s.Log)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	files, err := client.DownloadFiles(remoteDir, localDir, pattern)
	if err != nil {
		return files, err
	}
	s.Log.Info("ftp download", zap.String("remote", remoteDir), zap.String("local", localDir), zap.Int("files", len(files)))
	return files, nil
}

// FetchFeed downloads {quincena}/NominaFmt2.XLS into the EXPLOTACION_BASE_DIR.
func (s *Service) FetchFeed(ctx context.Context, quincena string) ([]string, error) {
	q, err := payroll.ValidateQuincena(quincena)
	if err != nil {
		return nil, err
	}
	if err := s.Config.Validate(config.NeedExplotacion); err != nil {
		return nil, err
	}
	return s.download(q, filepath.Dir(FeedPath(s.Config.ExplotacionBaseDir, q)), NominasFilename)
}

// FetchStamps downloads the receipts of a period into TIMBRADOS_BASE_DIR.
func (s *Service) FetchStamps(ctx context.Context, quincena, tipo, subdir string) ([]string, error) {
	q, err := payroll.ValidateQuincena(quincena)
	if err != nil {
		return nil, err
	}
	t, err := payroll.ParseTipo(tipo)
	if err != nil {
		return nil, err
	}
	if err := s.Config.Validate(config.NeedTimbrados); err != nil {
		return nil, err
	}

	remote := payroll.StampDir(q, t)
	if subdir = strings.TrimSpace(subdir); subdir != "" {
		remote = path.Join(remote, subdir)
	}
	return s.download(remote, StampsDir(s.Config.TimbradosBaseDir, q, t, subdir), "*.xml")
}
