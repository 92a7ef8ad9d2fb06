package customer

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch"
)

func TestWriter_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix+"(?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?)")).
		WithArgs(int64(1), "Ann", "Lee", "ann@example.com", "5550101", "Premium",
			int64(2), "Bob", "Ray", "bob@example.com", "5550102", "Basic").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("insert into customers").WillReturnError(fmt.Errorf("Duplicate entry '1' for key 'PRIMARY'"))

	tx, err := db.Begin()
	assert.Equal(t, nil, err)
	w := &Writer{}
	chunkCtx := &chunkbatch.ChunkContext{Tx: tx}
	items := []interface{}{
		&Customer{Id: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "5550101", NewLoyaltyTier: "Premium"},
		&Customer{Id: 2, FirstName: "Bob", LastName: "Ray", Email: "bob@example.com", Phone: "5550102", NewLoyaltyTier: "Basic"},
	}
	assert.Equal(t, nil, w.Write(items, chunkCtx))

	be := w.Write(items[:1], chunkCtx)
	assert.Equal(t, chunkbatch.ErrCodeWrite, be.Code())
	assert.Equal(t, chunkbatch.StageWrite, be.Stage())
	assert.Equal(t, nil, mock.ExpectationsWereMet())

	be = w.Write(items, &chunkbatch.ChunkContext{})
	assert.Equal(t, chunkbatch.ErrCodeWrite, be.Code())
	be = w.Write([]interface{}{"x"}, chunkCtx)
	assert.Equal(t, chunkbatch.ErrCodeWrite, be.Code())
}
