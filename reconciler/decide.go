package reconciler

import "Gin_postgres_redis_robe_tracker/models"

// decideBorrow: a code may be borrowed unless it already has a borrowed record.
func decideBorrow(rs []models.Record, code string) Kind {
	if openIndex(rs, code) >= 0 {
		return KindRejectedAlreadyBorrowed
	}
	return KindBorrowed
}

// decideReturn picks the first borrowed record for code in insertion order.
// Without one, a returned record means a repeated return, anything else means
// the code was never borrowed.
func decideReturn(rs []models.Record, code string) (Kind, int) {
	if i := openIndex(rs, code); i >= 0 {
		return KindReturned, i
	}
	for _, r := range rs {
		if r.ExternalID == code && r.Status == models.StatusReturned {
			return KindRejectedAlreadyReturned, -1
		}
	}
	return KindRejectedNotBorrowed, -1
}

func openIndex(rs []models.Record, code string) int {
	for i, r := range rs {
		if r.ExternalID == code && r.IsBorrowed() {
			return i
		}
	}
	return -1
}
