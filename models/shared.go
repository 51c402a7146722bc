package models

// Page is the paging window requested by a list endpoint.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// MaxPage is the deepest page a list endpoint will serve.
const MaxPage = 100000

// Normalize clamps the window to sane bounds.
func (p Page) Normalize(defaultSize, maxSize int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Skip is the number of records before the window.
func (p Page) Skip() int64 {
	if p.Page < 1 || p.PageSize <= 0 {
		return 0
	}
	return int64(p.Page-1) * int64(p.PageSize)
}

// ListResponse is the envelope returned by paginated endpoints.
type ListResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// ReportRenderPayload is the asynq payload of a report rendering job.
type ReportRenderPayload struct {
	ReportID    string `json:"reportId"`
	RequestedBy string `json:"requestedBy"`
}

// MatchRefreshPayload is the asynq payload of a match cache refresh.
// An empty SponsorID refreshes every sponsor.
type MatchRefreshPayload struct {
	SponsorID string `json:"sponsorId,omitempty"`
}
