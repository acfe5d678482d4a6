package schema

// StoreRecordTable represents the 'store.record' table
type StoreRecordTable struct {
	Table      string
	ID         string
	RecordType string
	Data       string
	CreatedAt  string
	UpdatedAt  string
	SyncedAt   string
	Version    string
	IsDeleted  string
}

// StoreRecord is the schema definition for store.record
var StoreRecord = StoreRecordTable{
	Table:      "store.record",
	ID:         "id",
	RecordType: "recordtype",
	Data:       "data",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
	SyncedAt:   "syncedat",
	Version:    "version",
	IsDeleted:  "isdeleted",
}

// Columns returns all standard column names
func (t StoreRecordTable) Columns() []string {
	return []string{
		t.ID, t.RecordType, t.Data, t.CreatedAt, t.UpdatedAt, t.SyncedAt, t.Version, t.IsDeleted,
	}
}
