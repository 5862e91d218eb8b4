package merchants

import (
	"github.com/google/uuid"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
)

// ListFilters describe the inputs supported by the merchant list.
type ListFilters struct {
	Category      *enums.MerchantCategory
	AssignedRepID *uuid.UUID
	Stage         *enums.PipelineStage
	City          *string
	District      *string
	Archived      *bool
	Query         string
}

// MerchantList wraps the paginated merchants plus the next page cursor.
type MerchantList struct {
	Merchants  []models.Merchant `json:"merchants"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type listParams struct {
	Filters ListFilters
	Cursor  *pagination.Cursor
	Limit   int
}
