// models/robe_record.go
package models

import "time"

const RecordTable = "robe_records"

// Status 借还状态。not_returned 只可能由外部数据写入，业务逻辑不会产生它。
type Status string

const (
	StatusBorrowed    Status = "borrowed"
	StatusReturned    Status = "returned"
	StatusNotReturned Status = "not_returned"
)

// 全部合法状态，顺序即统计/导出的顺序
var Statuses = []Status{StatusBorrowed, StatusReturned, StatusNotReturned}

var statusLabels = map[Status]string{
	StatusBorrowed:    "מושאל",
	StatusReturned:    "הוחזר",
	StatusNotReturned: "לא הוחזר",
}

const UnknownStatusLabel = "לא ידוע"

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label 返回给操作员看的希伯来语文案；未知值不会回落到原始 key
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return UnknownStatusLabel
}

// Record 一件长袍的一次借还周期
type Record struct {
	Key        string     `gorm:"column:store_key;type:uuid;primaryKey" json:"key"`  // 存储层分配
	ExternalID string     `gorm:"size:255;index;not null" json:"externalId"`         // 扫码得到的编号
	BorrowedAt time.Time  `gorm:"index;not null" json:"borrowedAt"`                  // 创建后不可变
	ReturnedAt *time.Time `gorm:"index" json:"returnedAt,omitempty"`                 // 为空 = 仍在借出
	Status     Status     `gorm:"size:20;not null;default:'borrowed'" json:"status"` // 冗余列，需与 ReturnedAt 一致
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Record) TableName() string { return RecordTable }

func (r Record) IsBorrowed() bool { return r.Status == StatusBorrowed }

// Consistent: returnedAt 有值 <=> status = returned
func (r Record) Consistent() bool {
	return (r.ReturnedAt != nil) == (r.Status == StatusReturned)
}

// NewBorrow 构造一条新的借出记录（尚无 Key）
func NewBorrow(code string, at time.Time) Record {
	return Record{
		ExternalID: code,
		BorrowedAt: at,
		Status:     StatusBorrowed,
	}
}
