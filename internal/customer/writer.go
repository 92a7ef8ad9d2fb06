package customer

import (
	"context"
	"database/sql"
	"strings"

	"github.com/chararch/chunkbatch"
)

const insertPrefix = "insert into customers(id, first_name, last_name, email, phone, new_loyalty_tier) values "

//Writer inserts a chunk of *Customer with one statement on the chunk transaction
type Writer struct {
}

func (w *Writer) Write(items []interface{}, chunkCtx *chunkbatch.ChunkContext) chunkbatch.BatchError {
	tx, ok := chunkCtx.Tx.(*sql.Tx)
	if !ok {
		return chunkbatch.NewBatchError(chunkbatch.ErrCodeWrite, "chunk transaction is %T, not *sql.Tx", chunkCtx.Tx)
	}
	if len(items) == 0 {
		return nil
	}
	query, args, err := insertStatement(items)
	if err != nil {
		return err
	}
	if _, e := tx.ExecContext(context.WithoutCancel(chunkCtx.Context()), query, args...); e != nil {
		return chunkbatch.NewBatchError(chunkbatch.ErrCodeWrite, "insert %d customers", len(items), e)
	}
	return nil
}

func insertStatement(items []interface{}) (string, []interface{}, chunkbatch.BatchError) {
	var sb strings.Builder
	sb.WriteString(insertPrefix)
	args := make([]interface{}, 0, len(items)*6)
	for i, item := range items {
		c, ok := item.(*Customer)
		if !ok {
			return "", nil, chunkbatch.NewBatchError(chunkbatch.ErrCodeWrite, "unexpected item type:%T", item)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, c.Id, c.FirstName, c.LastName, c.Email, c.Phone, c.NewLoyaltyTier)
	}
	return sb.String(), args, nil
}
