package domain

// SheetApplyResult reports one apply pass: the fresh post-update snapshot
// plus per-row outcomes. Skipped rows had no ID cell; rejected rows
// addressed an id/user pair with no matching record.
type SheetApplyResult struct {
	Snapshot      string `json:"snapshot"`
	RowsUpdated   int    `json:"rows_updated"`
	RowsUnchanged int    `json:"rows_unchanged"`
	RowsSkipped   int    `json:"rows_skipped"`
	RowsRejected  int    `json:"rows_rejected"`
}
