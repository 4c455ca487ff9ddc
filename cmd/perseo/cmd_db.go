package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"perseo/internal/auth"
	"perseo/internal/db"
	"perseo/internal/model"
	"perseo/internal/repository"
	"perseo/internal/utils"
)

const adminRol = "ADMINISTRADOR"

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("DB connection failed: %w", err)
		}
		defer d.Close()

		if err := d.Migrate(cmd.Context()); err != nil {
			return err
		}
		zlog.Info("migrated", zap.String("driver", cfg.DBDriver))
		fmt.Fprintln(cmd.OutOrStdout(), "Tablas creadas.")
		return nil
	},
}

var seedEmail string

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the modules, the administrator role and optionally its user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		d, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("DB connection failed: %w", err)
		}
		defer d.Close()

		return d.WithTx(ctx, nil, func(tx *db.Tx) error {
			store := repository.New(&tx.Conn)
			rolID, err := store.Seed(ctx, adminRol, auth.ADMINISTRAR)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Modulos y rol %s listos.\n", adminRol)

			if seedEmail == "" {
				return nil
			}
			email, err := utils.SafeEmail(seedEmail, false)
			if err != nil {
				return fmt.Errorf("email %q: %w", seedEmail, err)
			}

			u, err := store.UsuarioByEmail(ctx, email)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				password, err := auth.GeneratePassword(16)
				if err != nil {
					return err
				}
				hash, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				u.ID, err = store.CreateUsuario(ctx, model.Usuario{
					Email:            email,
					Nombres:          adminRol,
					ApellidoPaterno:  "PERSEO",
					Contrasena:       hash,
					APIKeyExpiracion: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Usuario %s creado con la contraseña %s\n", email, password)
			case err != nil:
				return err
			}
			return store.AssignRol(ctx, u.ID, rolID)
		})
	},
}

func init() {
	dbSeedCmd.Flags().StringVar(&seedEmail, "email", "", "E-mail of the administrator user to create")

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbSeedCmd)
}
