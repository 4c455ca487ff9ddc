package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"perseo/internal/auth"
	"perseo/internal/db"
	"perseo/internal/model"
	"perseo/internal/repository"
	"perseo/internal/utils"
)

var usuariosCmd = &cobra.Command{
	Use:   "usuarios",
	Short: "User credentials",
}

// withUsuario opens the database and loads the user named by the e-mail
// argument. A missing user is reported, not failed.
func withUsuario(cmd *cobra.Command, email string, fn func(store *repository.Store, u model.Usuario) error) error {
	d, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("DB connection failed: %w", err)
	}
	defer d.Close()

	store := repository.New(&d.Conn)
	clean, err := utils.SafeEmail(email, false)
	if err == nil {
		var u model.Usuario
		if u, err = store.UsuarioByEmail(cmd.Context(), clean); err == nil {
			return fn(store, u)
		}
	}
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, utils.ErrInvalid) {
		fmt.Fprintf(cmd.OutOrStdout(), "No existe el e-mail %s en usuarios\n", email)
		return nil
	}
	return err
}

func printAPIKey(w io.Writer, u model.Usuario) {
	fmt.Fprintf(w, "Usuario: %s\n", u.Email)
	fmt.Fprintf(w, "API key: %s\n", u.APIKey)
	fmt.Fprintf(w, "Expira:  %s\n", u.APIKeyExpiracion.Format("2006-01-02"))
}

var apiKeyDias int

var nuevaAPIKeyCmd = &cobra.Command{
	Use:   "nueva-api-key EMAIL",
	Short: "Issue a new API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsuario(cmd, args[0], func(store *repository.Store, u model.Usuario) error {
			u.APIKey = auth.GenerateAPIKey(u.ID, u.Email)
			u.APIKeyExpiracion = time.Now().AddDate(0, 0, apiKeyDias)
			if err := store.UpdateAPIKey(cmd.Context(), u.ID, u.APIKey, u.APIKeyExpiracion); err != nil {
				return err
			}
			printAPIKey(cmd.OutOrStdout(), u)
			return nil
		})
	},
}

var mostrarAPIKeyCmd = &cobra.Command{
	Use:   "mostrar-api-key EMAIL",
	Short: "Show the API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsuario(cmd, args[0], func(_ *repository.Store, u model.Usuario) error {
			printAPIKey(cmd.OutOrStdout(), u)
			return nil
		})
	},
}

var nuevaContrasenaCmd = &cobra.Command{
	Use:   "nueva-contrasena EMAIL",
	Short: "Set a new password read twice from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsuario(cmd, args[0], func(store *repository.Store, u model.Usuario) error {
			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			fmt.Fprint(out, "Contraseña: ")
			first, _ := in.ReadString('\n')
			fmt.Fprint(out, "De nuevo la misma contraseña: ")
			second, _ := in.ReadString('\n')

			first, second = strings.TrimSpace(first), strings.TrimSpace(second)
			if first != second {
				fmt.Fprintln(out, "No son iguales las contraseñas. Por favor intente de nuevo.")
				return nil
			}
			if !utils.ValidContrasena(first) {
				fmt.Fprintln(out, "La contraseña debe tener de 8 a 48 letras y números, con una mayúscula, una minúscula y un número.")
				return nil
			}

			hash, err := auth.HashPassword(first)
			if err != nil {
				return err
			}
			if err := store.UpdateContrasena(cmd.Context(), u.ID, hash); err != nil {
				return err
			}
			fmt.Fprintf(out, "Se ha cambiado la contraseña de %s en usuarios\n", u.Email)
			return nil
		})
	},
}

func init() {
	nuevaAPIKeyCmd.Flags().IntVar(&apiKeyDias, "dias", 90, "Days until the API key expires")

	usuariosCmd.AddCommand(nuevaAPIKeyCmd)
	usuariosCmd.AddCommand(mostrarAPIKeyCmd)
	usuariosCmd.AddCommand(nuevaContrasenaCmd)
}
