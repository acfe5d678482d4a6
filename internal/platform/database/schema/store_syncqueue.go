package schema

// SyncQueueTable represents the 'store.syncqueue' table
type SyncQueueTable struct {
	Table       string
	ID          string
	Operation   string
	RecordType  string
	RecordID    string
	Payload     string
	RetryCount  string
	CreatedAt   string
	LastAttempt string
}

// SyncQueue is the schema definition for store.syncqueue
var SyncQueue = SyncQueueTable{
	Table:       "store.syncqueue",
	ID:          "id",
	Operation:   "operation",
	RecordType:  "recordtype",
	RecordID:    "recordid",
	Payload:     "payload",
	RetryCount:  "retrycount",
	CreatedAt:   "createdat",
	LastAttempt: "lastattempt",
}

// Columns returns all standard column names
func (t SyncQueueTable) Columns() []string {
	return []string{
		t.ID, t.Operation, t.RecordType, t.RecordID, t.Payload, t.RetryCount, t.CreatedAt, t.LastAttempt,
	}
}
