package status

//BatchStatus status of job or step execution
type BatchStatus string

const (
	//STARTING represent beginning of a job or step execution
	STARTING BatchStatus = "STARTING"
	//RUNNING job or step have been started and is running
	RUNNING BatchStatus = "RUNNING"
	//STOPPING job or step is requested to stop before its next chunk
	STOPPING BatchStatus = "STOPPING"
	//STOPPED job or step have been stopped
	STOPPED BatchStatus = "STOPPED"
	//COMPLETED job or step have finished successfully
	COMPLETED BatchStatus = "COMPLETED"
	//FAILED job or step have failed
	FAILED BatchStatus = "FAILED"
	//UNKNOWN job or step have aborted due to unknown reason
	UNKNOWN BatchStatus = "UNKNOWN"
)

var statuses = map[BatchStatus]int{
	STARTING:  0,
	RUNNING:   1,
	STOPPING:  2,
	STOPPED:   3,
	COMPLETED: 4,
	FAILED:    5,
	UNKNOWN:   6,
}

// And combines two statuses, the more severe one wins
func (s BatchStatus) And(other BatchStatus) BatchStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if ok1 && ok2 {
		if i1 < i2 {
			return other
		}
		return s
	} else if ok1 {
		return other
	}
	return s
}

// IsRunning reports whether an execution in this status has not reached a terminal state
func (s BatchStatus) IsRunning() bool {
	return s == STARTING || s == RUNNING || s == STOPPING
}

// IsTerminal reports whether the status is final
func (s BatchStatus) IsTerminal() bool {
	return s == STOPPED || s == COMPLETED || s == FAILED || s == UNKNOWN
}

func (s BatchStatus) String() string {
	return string(s)
}
