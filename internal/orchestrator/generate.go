package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"perseo/internal/blob"
	"perseo/internal/db"
	"perseo/internal/exporter"
	"perseo/internal/metrics"
	"perseo/internal/model"
	"perseo/internal/payroll"
	"perseo/internal/repository"
)

const (
	JobGenerarNominas                 = "generar-nominas"
	JobGenerarMonederos               = "generar-monederos"
	JobGenerarPensionados             = "generar-pensionados"
	JobGenerarDispersionesPensionados = "generar-dispersiones-pensionados"
)

type GenerateReport struct {
	Quincena    string
	Descripcion string
	File        string
	BlobKey     string
	Rows        int
	SinCuentas  []model.Persona
}

func (r GenerateReport) Print(w io.Writer) {
	if len(r.SinCuentas) > 0 {
		fmt.Fprintln(w, "AVISO: Hubo personas sin cuentas:")
		for _, p := range r.SinCuentas {
			fmt.Fprintf(w, "- %s %s\n", p.RFC, p.NombreCompleto())
		}
	}
	fmt.Fprintf(w, "Nominas terminado: %d %s en %s\n", r.Rows, r.Descripcion, r.File)
	if r.BlobKey != "" {
		fmt.Fprintf(w, "  Copia guardada en %s\n", r.BlobKey)
	}
}

// generation describes one export. row returns false when the person has
// no usable account.
type generation struct {
	job         string
	descripcion string
	layout      exporter.Layout
	tipo        model.NominaTipo
	requireOpen bool
	begin       func(ctx context.Context, store *repository.Store, st *genState) error
	include     func(n model.NominaDetalle) bool
	row         func(st *genState, n model.NominaDetalle, cuentas []model.Cuenta) ([]any, bool)
}

type genState struct {
	quincena string
	bancos   map[int64]*model.Banco
	touched  map[int64]bool
	rows     int
}

// banco returns the shared copy of the bank so counters accumulate.
func (st *genState) banco(b *model.Banco) *model.Banco {
	if shared, ok := st.bancos[b.ID]; ok {
		return shared
	}
	cp := *b
	st.bancos[b.ID] = &cp
	return &cp
}

// nextCheck advances the bank counter and builds the check number.
func (st *genState) nextCheck(b *model.Banco) string {
	b.ConsecutivoGenerado++
	st.touched[b.ID] = true
	return payroll.CheckNumber(b.Clave, b.ConsecutivoGenerado)
}

func notPensioner(n model.NominaDetalle) bool { return n.Persona.Modelo != payroll.PensionerModel }
func pensioner(n model.NominaDetalle) bool    { return n.Persona.Modelo == payroll.PensionerModel }

func salaryRow(st *genState, n model.NominaDetalle, cuentas []model.Cuenta) ([]any, bool) {
	cuenta, ok := payroll.SalaryAccount(cuentas)
	if !ok {
		return nil, false
	}
	banco := st.banco(cuenta.Banco)
	numCheque := st.nextCheck(banco)
	return []any{
		st.quincena,
		n.CentroTrabajoClave,
		n.Persona.RFC,
		n.Persona.NombreCompleto(),
		n.Persona.NumEmpleado,
		n.Persona.Modelo,
		n.PlazaClave,
		banco.Nombre,
		banco.Clave,
		cuenta.NumCuenta,
		n.Importe,
		numCheque,
	}, true
}

// GenerateNominas exports the salary payments of everyone but pensioners and
// advances each bank's check counter.
func (s *Service) GenerateNominas(ctx context.Context, quincena string) (GenerateReport, error) {
	return s.generate(ctx, quincena, generation{
		job:         JobGenerarNominas,
		descripcion: "nominas generadas",
		layout:      exporter.Nominas,
		tipo:        model.TipoSalario,
		include:     notPensioner,
		row:         salaryRow,
	})
}

// GeneratePensionados is GenerateNominas for pensioners only.
func (s *Service) GeneratePensionados(ctx context.Context, quincena string) (GenerateReport, error) {
	return s.generate(ctx, quincena, generation{
		job:         JobGenerarPensionados,
		descripcion: "pensionados generados",
		layout:      exporter.Pensionados,
		tipo:        model.TipoSalario,
		include:     pensioner,
		row:         salaryRow,
	})
}

// GenerateMonederos exports the grocery voucher payments. The card issuer's
// counter restarts from its consecutivo on every run.
func (s *Service) GenerateMonederos(ctx context.Context, quincena string) (GenerateReport, error) {
	var monedero *model.Banco
	return s.generate(ctx, quincena, generation{
		job:         JobGenerarMonederos,
		descripcion: "monederos generados",
		layout:      exporter.Monederos,
		tipo:        model.TipoDespensa,
		begin: func(ctx context.Context, store *repository.Store, st *genState) error {
			b, err := store.BancoByClave(ctx, payroll.BancoMonederoClave)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no existe el banco con clave %s: %w", payroll.BancoMonederoClave, err)
			}
			if err != nil {
				return err
			}
			monedero = st.banco(&b)
			monedero.ConsecutivoGenerado = monedero.Consecutivo
			st.touched[monedero.ID] = true
			return nil
		},
		row: func(st *genState, n model.NominaDetalle, cuentas []model.Cuenta) ([]any, bool) {
			cuenta, ok := payroll.GroceryAccount(cuentas)
			if !ok {
				return nil, false
			}
			return []any{
				"J",
				n.Persona.RFC,
				n.Importe,
				st.nextCheck(monedero),
				cuenta.NumCuenta,
				st.quincena,
				n.Persona.Modelo,
			}, true
		},
	})
}

// GenerateDispersionesPensionados exports the pensioner bank transfers of an
// open period. Bank counters are not touched.
func (s *Service) GenerateDispersionesPensionados(ctx context.Context, quincena string) (GenerateReport, error) {
	return s.generate(ctx, quincena, generation{
		job:         JobGenerarDispersionesPensionados,
		descripcion: "dispersiones pensionados generados",
		layout:      exporter.DispersionesPensionados,
		tipo:        model.TipoSalario,
		requireOpen: true,
		include:     pensioner,
		row: func(st *genState, n model.NominaDetalle, cuentas []model.Cuenta) ([]any, bool) {
			cuenta, ok := payroll.SalaryAccount(cuentas)
			if !ok {
				return nil, false
			}
			consecutivo := st.rows + 1
			return []any{
				consecutivo,
				"04",
				"9",
				cuenta.Banco.ClaveDispersionPensionados,
				cuenta.NumCuenta,
				n.Importe,
				consecutivo,
				n.Persona.RFC,
				n.Persona.NombreCompleto(),
				payroll.DispersalReference(st.quincena),
				payroll.DispersalConcept(st.quincena),
			}, true
		},
	})
}

func (s *Service) generate(ctx context.Context, quincena string, g generation) (GenerateReport, error) {
	report := GenerateReport{Quincena: quincena, Descripcion: g.descripcion}

	q, err := payroll.ValidateQuincena(quincena)
	if err != nil {
		return report, err
	}

	err = s.runJob(ctx, g.job, q, false, func(ctx context.Context) error {
		return s.DB.WithTx(ctx, nil, func(tx *db.Tx) error {
			return s.export(ctx, repository.New(&tx.Conn), q, g, &report)
		})
	})
	if err != nil {
		return report, err
	}

	if s.Blob != nil {
		key := blob.ExportKey(g.layout.Prefix, q, report.File)
		if _, err := blob.UploadFile(ctx, s.Blob, key, report.File, blob.ContentTypeXLSX); err != nil {
			return report, err
		}
		report.BlobKey = key
		s.Log.Info("export uploaded", zap.String("driver", string(s.Blob.Driver())), zap.String("key", key))
	}
	return report, nil
}

func (s *Service) export(ctx context.Context, store *repository.Store, q string, g generation, report *GenerateReport) error {
	if g.requireOpen {
		periodo, err := store.QuincenaByClave(ctx, q)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", q, ErrPeriodMissing)
		}
		if err != nil {
			return err
		}
		if !periodo.Abierta() {
			return fmt.Errorf("%s: %w", q, ErrPeriodClosed)
		}
	}

	st := &genState{quincena: q, bancos: map[int64]*model.Banco{}, touched: map[int64]bool{}}
	bancos, err := store.BancosActive(ctx)
	if err != nil {
		return err
	}
	for i := range bancos {
		st.bancos[bancos[i].ID] = &bancos[i]
	}

	if g.begin != nil {
		if err := g.begin(ctx, store, st); err != nil {
			return err
		}
	}

	nominas, err := store.NominasForPeriod(ctx, q, g.tipo)
	if err != nil {
		return err
	}

	var (
		selected []model.NominaDetalle
		ids      []int64
		seen     = map[int64]bool{}
	)
	for _, n := range nominas {
		if g.include != nil && !g.include(n) {
			continue
		}
		selected = append(selected, n)
		if !seen[n.PersonaID] {
			seen[n.PersonaID] = true
			ids = append(ids, n.PersonaID)
		}
	}

	cuentas, err := store.CuentasForPersonas(ctx, ids)
	if err != nil {
		return err
	}

	w, err := exporter.New(g.layout)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, n := range selected {
		values, ok := g.row(st, n, cuentas[n.PersonaID])
		if !ok {
			report.SinCuentas = append(report.SinCuentas, n.Persona)
			continue
		}
		if err := w.Append(values...); err != nil {
			return err
		}

		st.rows++
		if st.rows%progressEvery == 0 {
			fmt.Fprintf(s.Out, "  Van %d...\n", st.rows)
		}
	}
	metrics.RowsProcessed.WithLabelValues(g.job).Add(float64(len(selected)))
	metrics.RowsInserted.WithLabelValues(g.job).Add(float64(st.rows))

	file, err := w.Save(s.Config.OutputDir, q, s.now())
	if err != nil {
		return err
	}
	report.File = file
	report.Rows = st.rows

	for id := range st.touched {
		if err := store.UpdateBancoConsecutivo(ctx, id, st.bancos[id].ConsecutivoGenerado); err != nil {
			return err
		}
	}
	return nil
}
