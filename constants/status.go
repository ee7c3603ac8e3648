package constants

// JobStatus is the canonical status for document rows.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // ingested, waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusDecoded JobStatus = "DECODED" // all entries decoded and stored
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// Entry status labels stored for decoded entries. OK marks a clean decode;
// the rest mirror the output tags.
const (
	EntryStatusOK        = "OK"
	EntryStatusIllegible = "ILL"
	EntryStatusInvalid   = "ERR"
	EntryStatusAmbiguous = "AMB"
)
