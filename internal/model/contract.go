package model

import (
	"time"

	"gorm.io/gorm"
)

// ContractType is a classification label for contracts (e.g. framework,
// one-off). Referenced by contracts, so it is soft-deleted.
type ContractType struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);index;not null"`
	CreatedBy *string        `json:"created_by" gorm:"type:uuid"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// ContractProgress is a status/stage label referenced by contracts.
type ContractProgress struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);index"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contract represents a customer contract tracked by the back office.
type Contract struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Segment            string         `json:"segment" gorm:"type:varchar(50);index;not null"`
	PicUserID          *string        `json:"pic_user_id" gorm:"type:uuid;index"`
	ServiceID          *uint          `json:"service_id" gorm:"index"`
	ContractTypeID     *uint          `json:"contract_type_id" gorm:"index"`
	ContractProgressID *uint          `json:"contract_progress_id" gorm:"index"`
	ContractKind       string         `json:"contract_kind" gorm:"type:varchar(50)"`
	CustomerName       string         `json:"customer_name" gorm:"type:varchar(200);index;not null"`
	ContractNumber     string         `json:"contract_number" gorm:"type:varchar(100);index;not null"`
	ContractValue      float64        `json:"contract_value" gorm:"type:numeric"`
	ProgressNote       string         `json:"progress_note" gorm:"type:text"`
	PaymentNote        *string        `json:"payment_note" gorm:"type:text"`
	ContractDate       *time.Time     `json:"contract_date"`
	CreatedBy          *string        `json:"created_by" gorm:"type:uuid"`
	CreatedAt          time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// ContractLink is an attached document or reference URL for a contract.
// Links are pure attachments and are hard-deleted with no updated_at.
type ContractLink struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ContractID uint      `json:"contract_id" gorm:"index;not null"`
	Label      *string   `json:"label" gorm:"type:varchar(200)"`
	URL        string    `json:"url" gorm:"type:text;not null"`
	IsPrimary  bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}
