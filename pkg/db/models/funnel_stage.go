package models

import (
	"time"

	"github.com/google/uuid"
)

// FunnelStage is a store-scoped ordered CRM pipeline bucket. Leads
// reference stages by lowercased name, not by foreign key.
type FunnelStage struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID `gorm:"column:store_id;type:uuid;not null;index:idx_funnel_stages_store_name,unique"`
	Name       string    `gorm:"column:name;not null;index:idx_funnel_stages_store_name,unique"`
	Color      string    `gorm:"column:color;not null;default:'#6b7280'"`
	OrderIndex int       `gorm:"column:order_index;not null;default:0"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName maps the model onto the crm_funnel_stages table.
func (FunnelStage) TableName() string { return "crm_funnel_stages" }
