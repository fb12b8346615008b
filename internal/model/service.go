package model

import (
	"time"

	"gorm.io/gorm"
)

// ServiceType is a category label for services.
type ServiceType struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);index;not null"`
	CreatedBy *string        `json:"created_by" gorm:"type:uuid"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Service represents a sellable service referenced by contracts.
type Service struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100);index;not null"`
	ServiceTypeID *uint          `json:"service_type_id" gorm:"index"`
	CreatedBy     *string        `json:"created_by" gorm:"type:uuid"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
