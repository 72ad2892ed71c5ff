package reconciler

import (
	"errors"

	"Gin_postgres_redis_robe_tracker/models"
)

var ErrEmptyCode = errors.New("empty item code")

type Kind string

const (
	KindBorrowed                Kind = "borrowed"
	KindReturned                Kind = "returned"
	KindRejectedAlreadyBorrowed Kind = "rejected_already_borrowed"
	KindRejectedNotBorrowed     Kind = "rejected_not_borrowed"
	KindRejectedAlreadyReturned Kind = "rejected_already_returned"
	KindFailed                  Kind = "failed"
)

// Outcome is the single result of one scan. Record is set for Borrowed and Returned,
// Err only for Failed.
type Outcome struct {
	Kind   Kind
	Code   string
	Record *models.Record
	Err    error
}

// StopScan reports whether the scanner session should be closed now. Only failures keep
// it open so the operator can simply scan again.
func (o Outcome) StopScan() bool { return o.Kind != KindFailed }

func (o Outcome) Rejected() bool {
	switch o.Kind {
	case KindRejectedAlreadyBorrowed, KindRejectedNotBorrowed, KindRejectedAlreadyReturned:
		return true
	}
	return false
}

var messages = map[Kind]string{
	KindBorrowed:                "הגלימה הושאלה בהצלחה",
	KindReturned:                "הגלימה הוחזרה בהצלחה",
	KindRejectedAlreadyBorrowed: "גלימה זו כבר מושאלת!",
	KindRejectedNotBorrowed:     "גלימה זו לא מושאלת!",
	KindRejectedAlreadyReturned: "גלימה זו כבר הוחזרה!",
	KindFailed:                  "שגיאה בשמירת הנתונים. אנא נסה שוב.",
}

// Message is the operator-facing text for the outcome.
func (o Outcome) Message() string {
	if errors.Is(o.Err, ErrEmptyCode) {
		return "קוד ריק. אנא סרוק שוב."
	}
	return messages[o.Kind]
}

func failed(code string, err error) Outcome {
	return Outcome{Kind: KindFailed, Code: code, Err: err}
}
