package orchestrator

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"perseo/internal/blob"
	"perseo/internal/config"
	"perseo/internal/db"
)

var (
	ErrPeriodClosed  = errors.New("la quincena está cerrada")
	ErrPeriodMissing = errors.New("la quincena no existe")
	ErrMissingInput  = errors.New("no se encontró la entrada")
)

type ImportStep struct {
	Name string
	Run  func(ctx context.Context) error
}

// ImportChain runs steps in order and stops at the first error.
type ImportChain struct {
	Steps []ImportStep
	log   *zap.Logger
}

func New(log *zap.Logger) *ImportChain {
	return &ImportChain{log: log}
}

func (c *ImportChain) Add(name string, fn func(ctx context.Context) error) {
	c.Steps = append(c.Steps, ImportStep{
		Name: name,
		Run:  fn,
	})
}

func (c *ImportChain) Run(ctx context.Context) error {
	for i, step := range c.Steps {
		c.logSection(step.Name)

		start := time.Now()
		if err := step.Run(ctx); err != nil {
			c.log.Error("step failed", zap.String("step", step.Name), zap.Error(err))
			return err
		}

		c.log.Info("step completed",
			zap.Int("step", i+1),
			zap.String("name", step.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

func (c *ImportChain) logSection(title string) {
	c.log.Info("=====================================================")
	c.log.Info(title)
	c.log.Info("=====================================================")
}

// Service runs the batch operations. Out receives the operator report.
type Service struct {
	DB     *db.DB
	Config *config.Config
	Blob   blob.Store
	Log    *zap.Logger
	Out    io.Writer

	// Refeed lets alimentar run again on a period already fed.
	Refeed bool

	now  func() time.Time
	dial func(config.FTPConfig, *zap.Logger) (Downloader, error)
}

func NewService(d *db.DB, cfg *config.Config, store blob.Store, log *zap.Logger, out io.Writer) *Service {
	return &Service{DB: d, Config: cfg, Blob: store, Log: log, Out: out, now: time.Now}
}
