package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"perseo/internal/auth"
	"perseo/internal/config"
	"perseo/internal/db"
	"perseo/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API, /metrics and /healthz",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.NeedSecretKey); err != nil {
			return err
		}
		loc, err := time.LoadLocation(cfg.TZName)
		if err != nil {
			return fmt.Errorf("TZ_NAME: %w", err)
		}
		signer, err := auth.NewSigner(cfg.SecretKey)
		if err != nil {
			return err
		}

		d, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("DB connection failed: %w", err)
		}
		defer d.Close()

		return web.Serve(cmd.Context(), cfg.HTTPAddr, web.New(d, signer, zlog, loc), zlog)
	},
}
