package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/timberland/blocksmith/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Web.Addr
			}

			server, err := web.NewServer(a.gen, a.store, a.factory, a.history)
			if err != nil {
				return err
			}

			fmt.Printf("Starting blocksmith on http://localhost%s\n", addr)
			return http.ListenAndServe(addr, server.Routes())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to configured web.addr)")
	return cmd
}
