package main

import (
	"log"

	"github.com/spf13/cobra"

	"title-party/internal/config"
	"title-party/internal/db"
)

func main() {
	log.SetFlags(0)
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "load-catalog",
		Short:         "Upsert word cards and themes from a CSV file into postgres.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				log.Printf("failed to load .env: %v", err)
			}
			cfg := config.FromViper(v)

			catalog, err := db.ReadCatalogFile(cfg.CatalogPath)
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close(conn)

			loaded, err := db.LoadCatalog(conn, catalog)
			if err != nil {
				return err
			}
			log.Printf("loaded %d catalog rows (%d cards, %d themes)", loaded, len(catalog.Cards), len(catalog.Themes))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("catalog-path", config.Default().CatalogPath, "path to the catalog csv (env: CATALOG_PATH)")
	fs.String("database-url", "", "postgres connection string (env: DATABASE_URL)")
	if err := config.BindFlags(fs, v); err != nil {
		cobra.CheckErr(err)
	}
	return cmd
}
