package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 250
)

type Pagination struct {
	Page  int `form:"page,default=1" json:"page"`
	Limit int `form:"limit,default=20" json:"limit"`
}

// Normalize clamps page and limit into their valid ranges.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type PageInfo struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

func BuildPageInfo(p Pagination, total int64) PageInfo {
	n := p.Normalize()
	return PageInfo{
		Page:    n.Page,
		Limit:   n.Limit,
		Total:   total,
		HasMore: int64(n.Page*n.Limit) < total,
	}
}
