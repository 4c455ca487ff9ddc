package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"perseo/internal/cfdi"
	"perseo/internal/config"
	"perseo/internal/db"
	"perseo/internal/metrics"
	"perseo/internal/model"
	"perseo/internal/payroll"
	"perseo/internal/repository"
	"perseo/internal/utils"
	"perseo/internal/worker"
)

const JobTimbrados = "timbrados"

type StampReport struct {
	Quincena string
	Tipo     model.NominaTipo
	Dir      string

	// file names per validation problem
	Problems           map[cfdi.Problem][]string
	ParseErrors        []string
	NominaNoEncontrada []string

	Updated   int
	Processed int
}

var problemOrder = []cfdi.Problem{
	cfdi.ProblemEmisorRFC,
	cfdi.ProblemEmisorNombre,
	cfdi.ProblemEmisorRegimen,
	cfdi.ProblemNoReceptorRFC,
	cfdi.ProblemReceptorRFC,
}

func (r StampReport) Print(w io.Writer) {
	for _, p := range problemOrder {
		if files := r.Problems[p]; len(files) > 0 {
			fmt.Fprintf(w, "  En %d %s\n", len(files), p)
			fmt.Fprintf(w, "  %s\n", strings.Join(files, ", "))
		}
	}
	if len(r.ParseErrors) > 0 {
		fmt.Fprintf(w, "  En %d no se pudo leer el XML\n", len(r.ParseErrors))
		fmt.Fprintf(w, "  %s\n", strings.Join(r.ParseErrors, ", "))
	}
	if len(r.NominaNoEncontrada) > 0 {
		fmt.Fprintf(w, "  En %d no se encontró la nómina\n", len(r.NominaNoEncontrada))
		fmt.Fprintf(w, "  %s\n", strings.Join(r.NominaNoEncontrada, ", "))
	}
	fmt.Fprintf(w, "  Se actualizaron %d registros en Nominas.\n", r.Updated)
	fmt.Fprintf(w, "  Se procesaron %d archivos XML.\n", r.Processed)
}

// StampsDir resolves the folder of stamped receipts of a period and type.
func StampsDir(base, quincena string, tipo model.NominaTipo, subdir string) string {
	dir := filepath.Join(base, payroll.StampDir(quincena, tipo))
	if subdir = strings.TrimSpace(subdir); subdir != "" {
		dir = filepath.Join(dir, subdir)
	}
	return dir
}

// UpdateStamps copies the TimbreFiscalDigital of every receipt in the period
// folder into the latest matching nomina.
func (s *Service) UpdateStamps(ctx context.Context, quincena, tipo, subdir string) (StampReport, error) {
	report := StampReport{Quincena: quincena, Problems: map[cfdi.Problem][]string{}}

	if err := s.Config.Validate(config.NeedTimbrados, config.NeedEmisorRFC, config.NeedEmisorNombre, config.NeedEmisorRegFis); err != nil {
		return report, err
	}
	q, err := payroll.ValidateQuincena(quincena)
	if err != nil {
		return report, err
	}
	t, err := payroll.ParseTipo(tipo)
	if err != nil {
		return report, err
	}
	report.Tipo = t

	report.Dir = StampsDir(s.Config.TimbradosBaseDir, q, t, subdir)
	if err := utils.RequireDir(report.Dir); err != nil {
		return report, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}

	files, err := filepath.Glob(filepath.Join(report.Dir, "*.xml"))
	if err != nil {
		return report, err
	}
	sort.Strings(files)

	issuer := cfdi.Issuer{
		RFC:           s.Config.EmisorRFC,
		Nombre:        s.Config.EmisorNombre,
		RegimenFiscal: s.Config.EmisorRegFis,
	}

	job := JobTimbrados + "-" + strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
	err = s.runJob(ctx, job, q, false, func(ctx context.Context) error {
		results := s.readStamps(ctx, job, files, issuer)
		return s.DB.WithTx(ctx, nil, func(tx *db.Tx) error {
			return s.applyStamps(ctx, repository.New(&tx.Conn), q, t, results, &report)
		})
	})
	return report, err
}

// readStamps parses the receipts with a pool of StampWorkers and returns the
// results in file order.
func (s *Service) readStamps(ctx context.Context, job string, files []string, issuer cfdi.Issuer) []worker.StampResult {
	jobs := make(chan worker.StampJob, len(files))
	for _, f := range files {
		jobs <- worker.StampJob{Path: f, Issuer: issuer}
	}
	close(jobs)

	out := make(chan worker.StampResult, len(files))
	var wg sync.WaitGroup
	for range max(s.Config.Worker, 1) {
		wg.Add(1)
		go worker.StampWorker(ctx, &wg, jobs, out)
	}
	wg.Wait()
	close(out)

	results := make([]worker.StampResult, 0, len(files))
	for r := range out {
		status := metrics.StatusSuccess
		if r.Err != nil || r.Problem != cfdi.ProblemNone {
			status = metrics.StatusFailed
		}
		metrics.FilesProcessed.WithLabelValues(job, status).Inc()
		results = append(results, r)
	}
	metrics.RowsProcessed.WithLabelValues(job).Add(float64(len(results)))

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results
}

func (s *Service) applyStamps(ctx context.Context, store *repository.Store, q string, tipo model.NominaTipo, results []worker.StampResult, report *StampReport) error {
	for _, r := range results {
		name := filepath.Base(r.Path)
		log := s.Log.With(zap.String("file", name))

		if r.Err != nil {
			log.Warn("receipt unreadable", zap.Error(r.Err))
			report.ParseErrors = append(report.ParseErrors, name)
			continue
		}
		if r.Problem != cfdi.ProblemNone {
			log.Warn("receipt rejected", zap.String("problem", string(r.Problem)))
			report.Problems[r.Problem] = append(report.Problems[r.Problem], name)
			continue
		}

		rfc := r.Comprobante.Receptor.Rfc
		nomina, err := store.LatestNomina(ctx, rfc, q, tipo)
		if errors.Is(err, repository.ErrNotFound) {
			report.NominaNoEncontrada = append(report.NominaNoEncontrada, rfc)
			continue
		}
		if err != nil {
			return err
		}

		timbrado, changed, err := mergeTimbre(nomina.Timbrado, r.Comprobante.Complemento.Timbre)
		if err != nil {
			log.Warn("bad FechaTimbrado", zap.Error(err))
			report.ParseErrors = append(report.ParseErrors, name)
			continue
		}
		if len(changed) > 0 {
			log.Debug("stamp changed", zap.Strings("fields", changed), zap.Int64("nomina", nomina.ID))
			timbrado.TFD = string(r.Raw)
			if err := store.UpdateNominaTimbrado(ctx, nomina.ID, timbrado); err != nil {
				return err
			}
			report.Updated++
		}
		report.Processed++
	}
	return nil
}

// mergeTimbre overlays the receipt stamp on the stored one and names the
// fields that differ. Empty receipt attributes are ignored, and so is a
// receipt without stamp.
func mergeTimbre(cur model.Timbrado, tfd *cfdi.TimbreFiscalDigital) (model.Timbrado, []string, error) {
	var changed []string
	if tfd == nil {
		return cur, nil, nil
	}
	set := func(field string, dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = append(changed, field)
		}
	}

	set("tfd_version", &cur.TFDVersion, tfd.Version)
	set("tfd_uuid", &cur.TFDUUID, tfd.UUID)

	if tfd.FechaTimbrado != "" {
		var stored string
		if cur.TFDFechaTimbrado != nil {
			stored = cur.TFDFechaTimbrado.Format(cfdi.TimeLayout)
		}
		if stored != tfd.FechaTimbrado {
			fecha, err := tfd.Fecha()
			if err != nil {
				return cur, nil, err
			}
			cur.TFDFechaTimbrado = &fecha
			changed = append(changed, "tfd_fecha_timbrado")
		}
	}

	set("tfd_sello_cfd", &cur.TFDSelloCFD, tfd.SelloCFD)
	set("tfd_num_cert_sat", &cur.TFDNumCertSAT, tfd.NoCertificadoSAT)
	set("tfd_sello_sat", &cur.TFDSelloSAT, tfd.SelloSAT)
	return cur, changed, nil
}
