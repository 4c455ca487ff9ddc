package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"perseo/internal/config"
	"perseo/internal/db"
	"perseo/internal/importer"
	"perseo/internal/metrics"
	"perseo/internal/model"
	"perseo/internal/payroll"
	"perseo/internal/repository"
	"perseo/internal/utils"
	"perseo/internal/worker"
)

const (
	JobAlimentar = "alimentar"

	NominasFilename = "NominaFmt2.XLS"

	feedChunk     = 500
	progressEvery = 100
)

type FeedReport struct {
	Quincena        string
	File            string
	QuincenaCreada  bool
	Rows            int
	CentrosTrabajos []string
	Personas        []string
	Plazas          []string
}

// FeedPath is where alimentar expects the payroll spreadsheet of a period.
func FeedPath(base, quincena string) string {
	return filepath.Join(base, quincena, NominasFilename)
}

// Feed loads the payroll spreadsheet of a period into nominas. Missing work
// centers, people and positions are created on the way. Everything happens
// in one transaction.
func (s *Service) Feed(ctx context.Context, quincena string) (FeedReport, error) {
	report := FeedReport{Quincena: quincena}

	q, err := payroll.ValidateQuincena(quincena)
	if err != nil {
		return report, err
	}
	if err := s.Config.Validate(config.NeedExplotacion); err != nil {
		return report, err
	}

	report.File = FeedPath(s.Config.ExplotacionBaseDir, q)
	if err := utils.RequireFile(report.File); err != nil {
		s.Log.Warn("payroll file unavailable", zap.String("path", report.File), zap.Error(err))
		return report, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}

	err = s.runJob(ctx, JobAlimentar, q, !s.Refeed, func(ctx context.Context) error {
		rows, err := s.parseSheet(ctx, report.File)
		if err != nil {
			return err
		}
		return s.DB.WithTx(ctx, nil, func(tx *db.Tx) error {
			return s.feedRows(ctx, tx, q, rows, &report)
		})
	})
	return report, err
}

// parseSheet reads every data row with a pool of ParseWorkers and returns
// them in sheet order. Any bad row fails the whole file.
func (s *Service) parseSheet(ctx context.Context, path string) ([]importer.PayrollRow, error) {
	sheet, err := importer.OpenSheet(path)
	if err != nil {
		return nil, err
	}

	jobs := worker.SplitRows(JobAlimentar, sheet, importer.FirstDataRow, feedChunk)
	total := int64(max(sheet.Rows()-importer.FirstDataRow, 0))
	metrics.Reset(total)
	s.Log.Info("payroll sheet loaded", zap.String("path", path), zap.Int64("rows", total), zap.Int("chunks", len(jobs)))

	jobCh := make(chan worker.RowJob, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	rowCh := make(chan importer.PayrollRow, s.Config.BufferSize)
	errCh := make(chan worker.RowError, s.Config.BufferSize)
	fileMetrics := make(chan metrics.FileMetric, len(jobs)+1)

	metricsDone := make(chan struct{})
	go metrics.CollectFileMetrics(s.Log, fileMetrics, metricsDone)

	progressDone := make(chan struct{})
	progressStopped := make(chan struct{})
	go func() {
		metrics.StartProgressBar(s.Out, total, progressDone)
		close(progressStopped)
	}()

	var (
		rows    []importer.PayrollRow
		rowErrs []worker.RowError
		collect sync.WaitGroup
	)
	collect.Add(2)
	go func() {
		defer collect.Done()
		for r := range rowCh {
			rows = append(rows, r)
		}
	}()
	go func() {
		defer collect.Done()
		for e := range errCh {
			rowErrs = append(rowErrs, e)
		}
	}()

	var parseWg sync.WaitGroup
	for range max(s.Config.Worker, 1) {
		parseWg.Add(1)
		go worker.ParseWorker(ctx, &parseWg, jobCh, rowCh, errCh, fileMetrics, s.Log)
	}

	parseWg.Wait()
	close(rowCh)
	close(errCh)
	collect.Wait()

	close(fileMetrics)
	<-metricsDone

	close(progressDone)
	<-progressStopped

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rowErrs) > 0 {
		sort.Slice(rowErrs, func(i, j int) bool { return rowErrs[i].Line < rowErrs[j].Line })
		for _, e := range rowErrs {
			s.Log.Error("bad payroll row", zap.Int("line", e.Line), zap.Error(e.Err))
		}
		return nil, fmt.Errorf("%d filas con errores, la primera: %w", len(rowErrs), rowErrs[0].Err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Line < rows[j].Line })
	return rows, nil
}

func (s *Service) feedRows(ctx context.Context, tx *db.Tx, quincena string, rows []importer.PayrollRow, report *FeedReport) error {
	store := repository.New(&tx.Conn)

	q, err := store.QuincenaByClave(ctx, quincena)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if q, err = store.CreateQuincena(ctx, quincena, model.QuincenaAbierta); err != nil {
			return err
		}
		report.QuincenaCreada = true
		fmt.Fprintf(s.Out, "  Quincena %s insertada\n", quincena)
	case err != nil:
		return err
	case !q.Abierta():
		return fmt.Errorf("%s: %w", quincena, ErrPeriodClosed)
	}

	centros, err := store.CatalogIDs(ctx, "centros_trabajos")
	if err != nil {
		return err
	}
	plazas, err := store.CatalogIDs(ctx, "plazas")
	if err != nil {
		return err
	}
	personas, err := store.PersonaIDs(ctx)
	if err != nil {
		return err
	}

	// catalogs first: the bulk writer owns the transaction once it starts
	for _, r := range rows {
		if _, ok := centros[r.CentroTrabajoClave]; !ok {
			id, err := store.CreateCatalog(ctx, "centros_trabajos", r.CentroTrabajoClave, model.ND)
			if err != nil {
				return err
			}
			centros[r.CentroTrabajoClave] = id
			report.CentrosTrabajos = append(report.CentrosTrabajos, r.CentroTrabajoClave)
			fmt.Fprintf(s.Out, "  Centro de Trabajo %s insertado\n", r.CentroTrabajoClave)
		}
		if _, ok := personas[r.RFC]; !ok {
			id, err := store.CreatePersona(ctx, model.Persona{
				RFC:             r.RFC,
				Nombres:         r.Nombres,
				ApellidoPrimero: r.ApellidoPrimero,
				ApellidoSegundo: r.ApellidoSegundo,
				Modelo:          r.Modelo,
				NumEmpleado:     r.NumEmpleado,
			})
			if err != nil {
				return err
			}
			personas[r.RFC] = id
			report.Personas = append(report.Personas, r.RFC)
			fmt.Fprintf(s.Out, "  Persona %s insertada\n", r.RFC)
		}
		if _, ok := plazas[r.PlazaClave]; !ok {
			id, err := store.CreateCatalog(ctx, "plazas", r.PlazaClave, model.ND)
			if err != nil {
				return err
			}
			plazas[r.PlazaClave] = id
			report.Plazas = append(report.Plazas, r.PlazaClave)
			fmt.Fprintf(s.Out, "  Plaza %s insertada\n", r.PlazaClave)
		}
	}

	w, err := worker.NewBulkWriter(ctx, tx, "nominas", repository.NominaColumns, worker.DefaultBatchSize, JobAlimentar, s.Log)
	if err != nil {
		return err
	}

	now := s.now()
	fmt.Fprintln(s.Out, "Alimentando nominas...")
	for _, r := range rows {
		n := model.Nomina{
			Universal:       model.NewUniversal(now),
			QuincenaID:      q.ID,
			PersonaID:       personas[r.RFC],
			CentroTrabajoID: centros[r.CentroTrabajoClave],
			PlazaID:         plazas[r.PlazaClave],
			Tipo:            r.Tipo,
			Percepcion:      r.Percepcion,
			Deduccion:       r.Deduccion,
			Importe:         r.Importe,
		}
		if err := w.Add(ctx, repository.NominaValues(n)); err != nil {
			return err
		}

		report.Rows++
		if report.Rows%progressEvery == 0 {
			fmt.Fprintf(s.Out, "  Van %d...\n", report.Rows)
		}
	}

	_, err = w.Close(ctx)
	return err
}

func (r FeedReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Nominas terminado: %d nominas alimentadas en la quincena %s.\n", r.Rows, r.Quincena)
	if n := len(r.CentrosTrabajos) + len(r.Personas) + len(r.Plazas); n > 0 {
		fmt.Fprintf(w, "  Insertados: %d centros de trabajo, %d personas, %d plazas.\n",
			len(r.CentrosTrabajos), len(r.Personas), len(r.Plazas))
	}
}
