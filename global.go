package chunkbatch

import (
	"database/sql"
	"os"
	"sync"

	"github.com/chararch/chunkbatch/internal/logs"
)

//log
var logger logs.Logger = logs.NewLogger(os.Stdout, logs.Info)

//SetLogger set a logger instance for the engine
func SetLogger(l logs.Logger) {
	if l == nil {
		panic("logger must not be nil")
	}
	logger = l
}

//task pool
const (
	DefaultJobPoolSize = 10
)

var jobPool = newTaskPool(DefaultJobPoolSize)

//SetMaxRunningJobs set max number of parallel jobs
func SetMaxRunningJobs(size int) {
	jobPool.SetMaxSize(size)
}

var globalMu sync.RWMutex

//transaction manager
var txManager TransactionManager

//SetDB register a *sql.DB instance, it backs the default transaction manager unless one has been set
func SetDB(sqlDb *sql.DB) {
	if sqlDb == nil {
		panic("sqlDb must not be nil")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if txManager == nil {
		txManager = NewTransactionManager(sqlDb)
	}
}

//SetTransactionManager register the default TransactionManager of chunk steps
func SetTransactionManager(txMgr TransactionManager) {
	if txMgr == nil {
		panic("transaction manager must not be nil")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	txManager = txMgr
}

func getTxManager() TransactionManager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return txManager
}

//job repository
var repository JobRepository = NewMemoryRepository()

//SetJobRepository register the JobRepository keeping job and step executions
func SetJobRepository(repo JobRepository) {
	if repo == nil {
		panic("job repository must not be nil")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	repository = repo
}

func getRepository() JobRepository {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return repository
}
