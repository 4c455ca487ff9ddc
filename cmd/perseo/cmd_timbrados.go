package main

import (
	"context"

	"github.com/spf13/cobra"

	"perseo/internal/model"
	"perseo/internal/orchestrator"
)

var timbradosCmd = &cobra.Command{
	Use:   "timbrados",
	Short: "Stamped CFDI receipts",
}

var (
	stampsSubdir  string
	stampsFromFTP bool
)

var actualizarCmd = &cobra.Command{
	Use:   "actualizar QUINCENA [TIPO]",
	Short: "Copy the TimbreFiscalDigital of each XML into its nomina",
	Long: `Reads every XML in TIMBRADOS_BASE_DIR for the period and type.
TIPO is SALARIO (default), AGUINALDO or "APOYO ANUAL".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quincena, tipo := args[0], string(model.TipoSalario)
		if len(args) > 1 {
			tipo = args[1]
		}

		svc, closeSvc, err := newService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		var report orchestrator.StampReport
		chain := orchestrator.New(zlog)
		if stampsFromFTP {
			chain.Add("Descargar timbrados", func(ctx context.Context) error {
				_, err := svc.FetchStamps(ctx, quincena, tipo, stampsSubdir)
				return err
			})
		}
		chain.Add("Actualizar timbrados "+quincena, func(ctx context.Context) error {
			report, err = svc.UpdateStamps(ctx, quincena, tipo, stampsSubdir)
			return err
		})
		if err := chain.Run(cmd.Context()); err != nil {
			return err
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	actualizarCmd.Flags().StringVar(&stampsSubdir, "subdir", "", "Subdirectory inside the period folder")
	actualizarCmd.Flags().BoolVar(&stampsFromFTP, "ftp", false, "Download the XML files from FTP first")

	timbradosCmd.AddCommand(actualizarCmd)
}
