package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateBackup bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if migrateBackup && cfg.Store.Driver == "sqlite" {
			if err := backupFile(cfg.Store.DatabaseURL); err != nil {
				return eris.Wrap(err, "backup database")
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("migrations applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

// backupFile copies the sqlite database aside before migrating. A missing
// file is fine on first run.
func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close() //nolint:errcheck

	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format("20060102T150405"))
	dst, err := os.Create(backup)
	if err != nil {
		return err
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	zap.L().Info("database backed up", zap.String("path", backup))
	return nil
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateBackup, "backup", false, "copy the sqlite database aside first")
	rootCmd.AddCommand(migrateCmd)
}
