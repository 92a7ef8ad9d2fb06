package customer

import (
	"database/sql"

	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/file"
)

const (
	JobName     = "customerMigration"
	SchemaStep  = "createSchema"
	MigrateStep = "migrateCustomers"
)

//JobOptions what a migration run needs
type JobOptions struct {
	DB *sql.DB
	//Input CSV file name, may contain {param,format} patterns resolved from job params
	Input string
	//Storage where Input lives, local file system when nil
	Storage file.FileStorage
	Config  chunkbatch.StepConfig
	//Listeners job, step, chunk or skip listeners
	Listeners []interface{}
	//SkipSchema the customers table is expected to exist
	SkipSchema bool
}

//InputFile the file model of the legacy customer export
func InputFile(name string, storage file.FileStorage) file.FileObjectModel {
	if storage == nil {
		storage = &file.LocalFileSystem{}
	}
	return file.FileObjectModel{
		FileStore:     storage,
		FileName:      name,
		Type:          file.CSV,
		Header:        true,
		ItemPrototype: &CsvRow{},
	}
}

//NewMigrationJob the customer migration: create the target table, then migrate the CSV in chunks
func NewMigrationJob(opts JobOptions) chunkbatch.Job {
	migrate := chunkbatch.NewStep(MigrateStep).
		ReadFile(InputFile(opts.Input, opts.Storage)).
		Processor(&Processor{}).
		Writer(&Writer{}).
		Config(opts.Config).
		TransactionManager(chunkbatch.NewTransactionManager(opts.DB)).
		Build()
	builder := chunkbatch.NewJob(JobName)
	if !opts.SkipSchema {
		builder.Step(chunkbatch.NewStep(SchemaStep, CreateSchema(opts.DB)).Build())
	}
	builder.Step(migrate)
	if len(opts.Listeners) > 0 {
		builder.Listener(opts.Listeners...)
	}
	return builder.Build()
}
