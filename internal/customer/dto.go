// AngelaMos | 2026
// dto.go

package customer

import (
	"strings"
	"time"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

// CustomerRequest is the full field set for create and update. Update
// replaces every field, so omitted optional fields are cleared.
type CustomerRequest struct {
	Name    string  `json:"name"              validate:"required,min=1,max=255"`
	Email   *string `json:"email,omitempty"   validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone,omitempty"   validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

func (r *CustomerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = core.TrimToNil(r.Email)
	if r.Email != nil {
		lower := strings.ToLower(*r.Email)
		r.Email = &lower
	}
	r.Phone = core.TrimToNil(r.Phone)
	r.Address = core.TrimToNil(r.Address)
}

func (r CustomerRequest) toEntity(id int64) *Customer {
	return &Customer{
		ID:      id,
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
	}
}

type CustomerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

func ToCustomerResponse(c *Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

func ToCustomerResponseList(customers []Customer) []CustomerResponse {
	responses := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responses = append(responses, ToCustomerResponse(&customers[i]))
	}
	return responses
}
