package models

// Counts 统计只由记录集合推导，从不单独维护
type Counts struct {
	Borrowed    int `json:"borrowed"`
	Returned    int `json:"returned"`
	NotReturned int `json:"notReturned"`
}

func CountRecords(rs []Record) Counts {
	var c Counts
	for _, r := range rs {
		c.Add(r.Status)
	}
	return c
}

func (c *Counts) Add(s Status) {
	switch s {
	case StatusBorrowed:
		c.Borrowed++
	case StatusReturned:
		c.Returned++
	case StatusNotReturned:
		c.NotReturned++
	}
}
