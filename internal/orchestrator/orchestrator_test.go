package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"perseo/internal/blob"
	"perseo/internal/cfdi"
	"perseo/internal/config"
	"perseo/internal/db"
	"perseo/internal/model"
	"perseo/internal/payroll"
	"perseo/internal/repository"
)

type fixture struct {
	svc   *Service
	store *repository.Store
	out   *bytes.Buffer
	cfg   *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	d, err := db.NewSQLite(ctx, filepath.Join(dir, "perseo.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Migrate(ctx))

	cfg := &config.Config{
		ExplotacionBaseDir: filepath.Join(dir, "explotacion"),
		TimbradosBaseDir:   filepath.Join(dir, "timbrados"),
		OutputDir:          filepath.Join(dir, "salida"),
		EmisorRFC:          "GEC850101AAA",
		EmisorNombre:       "GOBIERNO DEL ESTADO",
		EmisorRegFis:       "603",
		Worker:             2,
		BufferSize:         10,
	}
	out := &bytes.Buffer{}
	return &fixture{
		svc:   NewService(d, cfg, blob.NewMemory(), zap.NewNop(), out),
		store: repository.New(&d.Conn),
		out:   out,
		cfg:   cfg,
	}
}

type sheetRow struct {
	ct, rfc, nombre, plaza, importe, modelo string
	despensa                                bool
}

var feedRows = []sheetRow{
	{"CT01", "LOMA800101AB1", "LOPEZ MARTINEZ ANA", "P01", "1000000", "1", false},
	{"CT01", "LOMA800101AB1", "LOPEZ MARTINEZ ANA", "P01", "150000", "1", true},
	{"CT02", "PEGJ700101XY2", "PEREZ GOMEZ JUAN", "P02", "800000", "3", false},
	{"CT02", "RUSR800101AB3", "RUIZ SOTO ROSA", "P02", "500000", "1", false},
}

func (f *fixture) writeFeed(t *testing.T, quincena string, rows []sheetRow) {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"ENCABEZADO"}))
	for i, r := range rows {
		cells := make([]any, 241)
		for j := range cells {
			cells[j] = ""
		}
		cells[1], cells[2], cells[3], cells[8] = r.ct, r.rfc, r.nombre, r.plaza
		cells[12], cells[13], cells[14] = r.importe, "0", r.importe
		cells[26], cells[27] = "P", "07"
		if r.despensa {
			cells[32], cells[33] = "P", "ME"
		}
		cells[236], cells[240] = r.modelo, "4521"
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &cells))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	path := FeedPath(f.cfg.ExplotacionBaseDir, quincena)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func (f *fixture) feed(t *testing.T) {
	t.Helper()
	f.writeFeed(t, "202405", feedRows)
	_, err := f.svc.Feed(context.Background(), "202405")
	require.NoError(t, err)
}

func TestImportChain(t *testing.T) {
	var ran []string
	chain := New(zap.NewNop())
	chain.Add("uno", func(context.Context) error { ran = append(ran, "uno"); return nil })
	chain.Add("dos", func(context.Context) error { ran = append(ran, "dos"); return errors.New("falla") })
	chain.Add("tres", func(context.Context) error { ran = append(ran, "tres"); return nil })

	assert.EqualError(t, chain.Run(context.Background()), "falla")
	assert.Equal(t, []string{"uno", "dos"}, ran)
}

func TestJobLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	require.NoError(t, f.svc.AcquireJob(ctx, "generar-nominas", "202405", "p1", false))
	assert.ErrorIs(t, f.svc.AcquireJob(ctx, "generar-nominas", "202405", "p2", false), ErrJobRunning)
	require.NoError(t, f.svc.AcquireJob(ctx, "generar-nominas", "202406", "p3", false))

	require.NoError(t, f.svc.FinishJob(ctx, "generar-nominas", "202405", "p1", nil))
	assert.ErrorIs(t, f.svc.AcquireJob(ctx, "generar-nominas", "202405", "p4", true), ErrJobDone)
	require.NoError(t, f.svc.AcquireJob(ctx, "generar-nominas", "202405", "p4", false))

	run, err := f.store.JobRun(ctx, "generar-nominas", "202405")
	require.NoError(t, err)
	assert.Equal(t, "p4", run.ProcessID)
	assert.Equal(t, model.JobRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	now = now.Add(2 * time.Hour)
	require.NoError(t, f.svc.AcquireJob(ctx, "generar-nominas", "202405", "p5", false))

	require.NoError(t, f.svc.FinishJob(ctx, "generar-nominas", "202405", "p5", errors.New("sin espacio")))
	run, err = f.store.JobRun(ctx, "generar-nominas", "202405")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, run.Status)
	assert.Equal(t, "sin espacio", run.ErrorMessage)
}

func TestFeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeFeed(t, "202405", feedRows)

	report, err := f.svc.Feed(ctx, "202405")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Rows)
	assert.True(t, report.QuincenaCreada)
	assert.Equal(t, []string{"CT01", "CT02"}, report.CentrosTrabajos)
	assert.Equal(t, []string{"LOMA800101AB1", "PEGJ700101XY2", "RUSR800101AB3"}, report.Personas)
	assert.Equal(t, []string{"P01", "P02"}, report.Plazas)
	assert.Contains(t, f.out.String(), "Quincena 202405 insertada")

	salarios, err := f.store.NominasForPeriod(ctx, "202405", model.TipoSalario)
	require.NoError(t, err)
	require.Len(t, salarios, 3)
	assert.Equal(t, "LOMA800101AB1", salarios[0].Persona.RFC)
	assert.Equal(t, "10000", salarios[0].Importe.String())
	assert.Equal(t, "ANA", salarios[0].Persona.Nombres)
	assert.Equal(t, "MARTINEZ", salarios[0].Persona.ApellidoSegundo)
	assert.Equal(t, payroll.PensionerModel, salarios[1].Persona.Modelo)

	despensas, err := f.store.NominasForPeriod(ctx, "202405", model.TipoDespensa)
	require.NoError(t, err)
	require.Len(t, despensas, 1)
	assert.Equal(t, "1500", despensas[0].Importe.String())

	centros, err := f.store.CatalogIDs(ctx, "centros_trabajos")
	require.NoError(t, err)
	assert.Len(t, centros, 2)

	_, err = f.svc.Feed(ctx, "202405")
	assert.ErrorIs(t, err, ErrJobDone)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "4 nominas alimentadas en la quincena 202405")
}

func TestFeedRefusals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Feed(ctx, "202425")
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)

	_, err = f.svc.Feed(ctx, "202405")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = f.store.CreateQuincena(ctx, "202406", model.QuincenaCerrada)
	require.NoError(t, err)
	f.writeFeed(t, "202406", feedRows[:1])
	_, err = f.svc.Feed(ctx, "202406")
	assert.ErrorIs(t, err, ErrPeriodClosed)

	n, err := f.store.NominasForPeriod(ctx, "202406", model.TipoSalario)
	require.NoError(t, err)
	assert.Empty(t, n)

	f.writeFeed(t, "202407", []sheetRow{{"CT01", "", "SIN RFC", "P01", "100", "1", false}})
	_, err = f.svc.Feed(ctx, "202407")
	assert.ErrorContains(t, err, "1 filas con errores")

	f.cfg.ExplotacionBaseDir = ""
	_, err = f.svc.Feed(ctx, "202405")
	assert.ErrorContains(t, err, "EXPLOTACION_BASE_DIR")
}

func (f *fixture) accounts(t *testing.T) (banorte, previvale int64) {
	t.Helper()
	ctx := context.Background()
	insert := func(r *repository.Resource, body map[string]any) int64 {
		values, err := r.Values(body, false)
		require.NoError(t, err)
		id, err := f.store.Insert(ctx, r, values)
		require.NoError(t, err)
		return id
	}

	banorte = insert(repository.Bancos, map[string]any{
		"clave": "2", "nombre": "BANORTE", "clave_dispersion_pensionados": "072", "consecutivo_generado": "10",
	})
	previvale = insert(repository.Bancos, map[string]any{
		"clave": "9", "nombre": "PREVIVALE", "consecutivo": "500", "consecutivo_generado": "999",
	})

	personas, err := f.store.PersonaIDs(ctx)
	require.NoError(t, err)
	for _, c := range []struct {
		rfc   string
		banco int64
		num   string
	}{
		{"LOMA800101AB1", previvale, "999111"},
		{"LOMA800101AB1", banorte, "111"},
		{"PEGJ700101XY2", banorte, "222"},
	} {
		insert(repository.Cuentas, map[string]any{"persona_id": personas[c.rfc], "banco_id": c.banco, "num_cuenta": c.num})
	}
	return banorte, previvale
}

func readExport(t *testing.T, path string) [][]string {
	t.Helper()
	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestGenerators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.feed(t)
	f.accounts(t)

	nominas, err := f.svc.GenerateNominas(ctx, "202405")
	require.NoError(t, err)
	assert.Equal(t, 1, nominas.Rows)
	require.Len(t, nominas.SinCuentas, 1)
	assert.Equal(t, "RUSR800101AB3", nominas.SinCuentas[0].RFC)
	assert.Equal(t, f.cfg.OutputDir, filepath.Dir(nominas.File))

	rows := readExport(t, nominas.File)
	require.Len(t, rows, 2)
	assert.Equal(t, "QUINCENA", rows[0][0])
	assert.Equal(t, []string{"202405", "CT01", "LOMA800101AB1", "ANA LOPEZ MARTINEZ"}, rows[1][:4])
	assert.Equal(t, "BANORTE", rows[1][7])
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "111", rows[1][9])
	assert.Equal(t, "020000011", rows[1][11])

	info, err := f.svc.Blob.Head(ctx, nominas.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, blob.ContentTypeXLSX, info.ContentType)

	pensionados, err := f.svc.GeneratePensionados(ctx, "202405")
	require.NoError(t, err)
	rows = readExport(t, pensionados.File)
	require.Len(t, rows, 2)
	assert.Equal(t, "PEGJ700101XY2", rows[1][2])
	assert.Equal(t, "020000012", rows[1][11])

	monederos, err := f.svc.GenerateMonederos(ctx, "202405")
	require.NoError(t, err)
	rows = readExport(t, monederos.File)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"J", "LOMA800101AB1"}, rows[1][:2])
	assert.Equal(t, []string{"090000501", "999111", "202405"}, rows[1][3:6])

	dispersiones, err := f.svc.GenerateDispersionesPensionados(ctx, "202405")
	require.NoError(t, err)
	rows = readExport(t, dispersiones.File)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "04", "9", "072", "222"}, rows[1][:5])
	assert.Equal(t, []string{"0524", "QUINCENA 05 PENSIONADOS"}, rows[1][9:11])

	banorte, err := f.store.BancoByClave(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 12, banorte.ConsecutivoGenerado)
	previvale, err := f.store.BancoByClave(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, 501, previvale.ConsecutivoGenerado)

	var buf bytes.Buffer
	nominas.Print(&buf)
	assert.Contains(t, buf.String(), "AVISO: Hubo personas sin cuentas:")
	assert.Contains(t, buf.String(), "- RUSR800101AB3 ROSA RUIZ SOTO")
	assert.Contains(t, buf.String(), "1 nominas generadas en ")
}

func TestGeneratorRefusals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.GenerateMonederos(ctx, "202405")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.GenerateDispersionesPensionados(ctx, "202405")
	assert.ErrorIs(t, err, ErrPeriodMissing)

	_, err = f.store.CreateQuincena(ctx, "202405", model.QuincenaCerrada)
	require.NoError(t, err)
	_, err = f.svc.GenerateDispersionesPensionados(ctx, "202405")
	assert.ErrorIs(t, err, ErrPeriodClosed)

	_, err = f.svc.GenerateNominas(ctx, "2024")
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)

	require.NoError(t, f.svc.AcquireJob(ctx, JobGenerarNominas, "202405", "otro", false))
	_, err = f.svc.GenerateNominas(ctx, "202405")
	assert.ErrorIs(t, err, ErrJobRunning)
}

const receiptTemplate = `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" Version="4.0">
  <cfdi:Emisor Rfc="{EMISOR}" Nombre="GOBIERNO DEL ESTADO" RegimenFiscal="603"/>
  <cfdi:Receptor Rfc="{RECEPTOR}"/>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital Version="1.1" UUID="UUID-{RECEPTOR}" FechaTimbrado="2024-03-14T10:05:30" SelloCFD="a" NoCertificadoSAT="0001" SelloSAT="b"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

const unstampedTemplate = `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0">
  <cfdi:Emisor Rfc="{EMISOR}" Nombre="GOBIERNO DEL ESTADO" RegimenFiscal="603"/>
  <cfdi:Receptor Rfc="{RECEPTOR}"/>
</cfdi:Comprobante>`

func fill(template, emisor, receptor string) string {
	r := bytes.ReplaceAll([]byte(template), []byte("{EMISOR}"), []byte(emisor))
	return string(bytes.ReplaceAll(r, []byte("{RECEPTOR}"), []byte(receptor)))
}

func receipt(emisor, receptor string) string {
	return fill(receiptTemplate, emisor, receptor)
}

func (f *fixture) writeStamps(t *testing.T, files map[string]string) {
	t.Helper()
	dir := StampsDir(f.cfg.TimbradosBaseDir, "202405", model.TipoSalario, "")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
}

func TestUpdateStamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.feed(t)

	f.writeStamps(t, map[string]string{
		"LOMA800101AB1_202405.xml":   receipt("GEC850101AAA", "LOMA800101AB1"),
		"PEGJ700101XY2_202405.xml":   receipt("OTRO850101AAA", "PEGJ700101XY2"),
		"PEGJ700101XY2_202405_b.xml": receipt("gec850101aaa", "PEGJ700101XY2"),
		"RUSR800101AB3_202405.xml":   fill(unstampedTemplate, "GEC850101AAA", "RUSR800101AB3"),
		"XAXX010101000_202405.xml":   receipt("GEC850101AAA", "XAXX010101000"),
		"ROTO800101AB1_202405.xml":   "<roto",
		"LEEME.txt":                  "no es xml",
	})

	report, err := f.svc.UpdateStamps(ctx, "202405", "salario", "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, []string{"PEGJ700101XY2_202405.xml", "PEGJ700101XY2_202405_b.xml"}, report.Problems[cfdi.ProblemEmisorRFC])
	assert.Equal(t, []string{"XAXX010101000"}, report.NominaNoEncontrada)
	assert.Equal(t, []string{"ROTO800101AB1_202405.xml"}, report.ParseErrors)

	n, err := f.store.LatestNomina(ctx, "LOMA800101AB1", "202405", model.TipoSalario)
	require.NoError(t, err)
	assert.Equal(t, "UUID-LOMA800101AB1", n.TFDUUID)
	assert.Equal(t, "0001", n.TFDNumCertSAT)
	require.NotNil(t, n.TFDFechaTimbrado)
	assert.Equal(t, "2024-03-14T10:05:30", n.TFDFechaTimbrado.Format("2006-01-02T15:04:05"))

	for _, rfc := range []string{"PEGJ700101XY2", "RUSR800101AB3"} {
		n, err := f.store.LatestNomina(ctx, rfc, "202405", model.TipoSalario)
		require.NoError(t, err)
		assert.Empty(t, n.TFDUUID, rfc)
		assert.Empty(t, n.TFD, rfc)
	}

	again, err := f.svc.UpdateStamps(ctx, "202405", "SALARIO", "")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
	assert.Equal(t, 2, again.Processed)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "En 2 el RFC del emisor no coincide")
	assert.Contains(t, buf.String(), "Se actualizaron 1 registros en Nominas.")
}

func TestUpdateStampsIssuerMustMatchExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.feed(t)
	f.writeStamps(t, map[string]string{
		"LOMA800101AB1_202405.xml": receipt("GEC850101AAA", "LOMA800101AB1"),
	})

	f.cfg.EmisorNombre = "Gobierno del Estado"
	report, err := f.svc.UpdateStamps(ctx, "202405", "SALARIO", "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, []string{"LOMA800101AB1_202405.xml"}, report.Problems[cfdi.ProblemEmisorNombre])

	f.cfg.EmisorNombre = "GOBIERNO DEL ESTADO"
	f.cfg.EmisorRegFis = "601"
	report, err = f.svc.UpdateStamps(ctx, "202405", "SALARIO", "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, []string{"LOMA800101AB1_202405.xml"}, report.Problems[cfdi.ProblemEmisorRegimen])

	n, err := f.store.LatestNomina(ctx, "LOMA800101AB1", "202405", model.TipoSalario)
	require.NoError(t, err)
	assert.Empty(t, n.TFDUUID)
}

func TestUpdateStampsRefusals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UpdateStamps(ctx, "202405", "DESPENSA", "")
	assert.Error(t, err)

	_, err = f.svc.UpdateStamps(ctx, "202405", "AGUINALDO", "lote1")
	assert.ErrorIs(t, err, ErrMissingInput)

	f.writeStamps(t, map[string]string{
		"LOMA800101AB1_202405.xml": receipt("GEC850101AAA", "LOMA800101AB1"),
	})
	f.cfg.EmisorNombre = ""
	f.cfg.EmisorRegFis = ""
	_, err = f.svc.UpdateStamps(ctx, "202405", "SALARIO", "")
	assert.ErrorContains(t, err, "CFDI_EMISOR_NOMBRE, CFDI_EMISOR_REGFIS")

	f.cfg.EmisorRFC = ""
	f.cfg.TimbradosBaseDir = ""
	_, err = f.svc.UpdateStamps(ctx, "202405", "SALARIO", "")
	assert.ErrorContains(t, err, "TIMBRADOS_BASE_DIR, CFDI_EMISOR_RFC")
}

func TestStampsDir(t *testing.T) {
	assert.Equal(t, filepath.Join("base", "202405ApoyosAnuales", "lote"), StampsDir("base", "202405", model.TipoApoyoAnual, " lote "))
	assert.Equal(t, filepath.Join("base", "202424Aguinaldos"), StampsDir("base", "202424", model.TipoAguinaldo, ""))
}

type fakeDownloader struct {
	remote, local, pattern string
	closed                 bool
}

func (d *fakeDownloader) DownloadFiles(remoteDir, localDir, pattern string) ([]string, error) {
	d.remote, d.local, d.pattern = remoteDir, localDir, pattern
	return []string{filepath.Join(localDir, "x")}, nil
}

func (d *fakeDownloader) Close() error { d.closed = true; return nil }

func TestFetch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fake := &fakeDownloader{}
	f.svc.dial = func(config.FTPConfig, *zap.Logger) (Downloader, error) { return fake, nil }

	_, err := f.svc.FetchFeed(ctx, "202405")
	assert.ErrorContains(t, err, "FTP_HOST")

	f.cfg.FTP.Host = "ftp.local"
	files, err := f.svc.FetchFeed(ctx, "202405")
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "202405", fake.remote)
	assert.Equal(t, filepath.Join(f.cfg.ExplotacionBaseDir, "202405"), fake.local)
	assert.Equal(t, NominasFilename, fake.pattern)
	assert.True(t, fake.closed)

	_, err = f.svc.FetchStamps(ctx, "202405", "aguinaldo", "lote1")
	require.NoError(t, err)
	assert.Equal(t, "202405Aguinaldos/lote1", fake.remote)
	assert.Equal(t, "*.xml", fake.pattern)
}
