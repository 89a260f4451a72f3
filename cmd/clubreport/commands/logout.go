package commands

import (
	"fmt"

	"clubreport-backend/lib/serviceutil"
	"clubreport-backend/lib/sqliteutil"
	"clubreport-backend/services/session"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored platform session, forcing a fresh login on the next run.",
	Run: func(cmd *cobra.Command, args []string) {
		sessionDb, err := sqliteutil.OpenDB(session.Schema, config.SessionDb)
		if err != nil {
			serviceutil.Fatal("failed to open session database", err)
		}
		defer sessionDb.Close()

		err = session.NewStore(sessionDb).Invalidate(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to drop session", err)
		}
		fmt.Println("Stored session dropped.")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
