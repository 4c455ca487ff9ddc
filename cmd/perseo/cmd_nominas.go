package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"perseo/internal/orchestrator"
)

var nominasCmd = &cobra.Command{
	Use:   "nominas",
	Short: "Import payroll and generate the bank spreadsheets",
}

var (
	feedFromFTP bool
	feedForce   bool
)

var alimentarCmd = &cobra.Command{
	Use:   "alimentar QUINCENA",
	Short: "Load {EXPLOTACION_BASE_DIR}/QUINCENA/NominaFmt2.XLS into nominas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quincena := args[0]
		svc, closeSvc, err := newService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()
		svc.Refeed = feedForce

		var report orchestrator.FeedReport
		chain := orchestrator.New(zlog)
		if feedFromFTP {
			chain.Add("Descargar "+orchestrator.NominasFilename, func(ctx context.Context) error {
				_, err := svc.FetchFeed(ctx, quincena)
				return err
			})
		}
		chain.Add("Alimentar nominas "+quincena, func(ctx context.Context) error {
			report, err = svc.Feed(ctx, quincena)
			return err
		})

		if err := chain.Run(cmd.Context()); err != nil {
			if errors.Is(err, orchestrator.ErrMissingInput) {
				fmt.Fprintf(cmd.OutOrStdout(), "AVISO: %v\n", err)
				return nil
			}
			return err
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}

type generateFunc func(*orchestrator.Service, context.Context, string) (orchestrator.GenerateReport, error)

func generarCmd(use, short string, generate generateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " QUINCENA",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeSvc, err := newService(cmd)
			if err != nil {
				return err
			}
			defer closeSvc()

			report, err := generate(svc, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}
}

func init() {
	alimentarCmd.Flags().BoolVar(&feedFromFTP, "ftp", false, "Download the spreadsheet from FTP first")
	alimentarCmd.Flags().BoolVar(&feedForce, "forzar", false, "Feed again a period already fed")

	nominasCmd.AddCommand(alimentarCmd)
	nominasCmd.AddCommand(generarCmd("generar-nominas",
		"Salary payments of everyone but pensioners", (*orchestrator.Service).GenerateNominas))
	nominasCmd.AddCommand(generarCmd("generar-monederos",
		"Grocery voucher payments", (*orchestrator.Service).GenerateMonederos))
	nominasCmd.AddCommand(generarCmd("generar-pensionados",
		"Salary payments of pensioners", (*orchestrator.Service).GeneratePensionados))
	nominasCmd.AddCommand(generarCmd("generar-dispersiones-pensionados",
		"Bank transfers of pensioners for an open period", (*orchestrator.Service).GenerateDispersionesPensionados))
}
