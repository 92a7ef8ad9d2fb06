package main

import (
	"database/sql"
	"fmt"

	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/internal/customer"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last migration run recorded in the mysql job repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := mysql.ParseDSN(dsn); err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("invalid dsn: %w", err)}
			}
			db, err := sql.Open("mysql", dsn)
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}
			defer db.Close()
			chunkbatch.SetJobRepository(chunkbatch.NewSQLRepository(db))

			execution, err := chunkbatch.GetLastJobExecution(cmd.Context(), customer.JobName)
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}
			if execution == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "job %s has not run yet\n", customer.JobName)
				return nil
			}
			if execution.JobStatus.IsRunning() {
				fmt.Fprintf(cmd.OutOrStdout(), "job %s (run %s) is %s since %v\n", execution.JobName, execution.RunId, execution.JobStatus, execution.StartTime)
			}
			printReport(cmd.OutOrStdout(), execution)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "MySQL DSN of the database holding the job repository")
	return cmd
}
