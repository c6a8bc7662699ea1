package dto

// SearchRequest captures the kiosk search form.
type SearchRequest struct {
	Term     string `form:"term" json:"term"`
	CampusID string `form:"campus_id" json:"campus_id"`
}

// CurrentAttendanceRequest captures the check-out lookup query.
type CurrentAttendanceRequest struct {
	PersonIDs []string `form:"person_ids" json:"person_ids"`
}

// LabelRequest identifies people whose open attendance should be printed.
// Format selects the output: name tags by default, "csv" or "roster" for
// tabular roster exports.
type LabelRequest struct {
	PersonIDs []string `json:"person_ids" binding:"required,min=1"`
	Format    string   `json:"format" binding:"omitempty,oneof=labels csv roster"`
}
