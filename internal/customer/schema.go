package customer

import (
	"context"
	"database/sql"

	"github.com/chararch/chunkbatch"
)

//Schema the target table
const Schema = `CREATE TABLE IF NOT EXISTS customers (
  id BIGINT NOT NULL PRIMARY KEY,
  first_name VARCHAR(128) NOT NULL,
  last_name VARCHAR(128) NOT NULL,
  email VARCHAR(256) NOT NULL,
  phone VARCHAR(32) NOT NULL,
  new_loyalty_tier VARCHAR(16) NOT NULL
)`

//CreateSchema tasklet creating the customers table
func CreateSchema(db *sql.DB) chunkbatch.Task {
	return func(execution *chunkbatch.StepExecution) chunkbatch.BatchError {
		if _, err := db.ExecContext(context.Background(), Schema); err != nil {
			return chunkbatch.NewBatchError(chunkbatch.ErrCodeDbFail, "create table customers", err)
		}
		return nil
	}
}
