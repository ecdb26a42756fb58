// AngelaMos | 2026
// dto.go

package lead

import (
	"strings"
	"time"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

type CreateLeadRequest struct {
	Name       string  `json:"name"              validate:"required,min=1,max=255"`
	Email      *string `json:"email,omitempty"   validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone,omitempty"   validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=500"`
	StatusID   int64   `json:"status_id"         validate:"required,oneof=1 2 3 4"`
	AssignedTo *int64  `json:"assigned_to"       validate:"required,gt=0"`
}

// UpdateLeadRequest replaces every field. A null assigned_to clears the
// assignment.
type UpdateLeadRequest struct {
	Name       string  `json:"name"              validate:"required,min=1,max=255"`
	Email      *string `json:"email,omitempty"   validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone,omitempty"   validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=500"`
	StatusID   int64   `json:"status_id"         validate:"required,oneof=1 2 3 4"`
	AssignedTo *int64  `json:"assigned_to"       validate:"omitempty,gt=0"`
}

func normalizeContact(name *string, email, phone, address **string) {
	*name = strings.TrimSpace(*name)
	*email = core.TrimToNil(*email)
	if *email != nil {
		lower := strings.ToLower(**email)
		*email = &lower
	}
	*phone = core.TrimToNil(*phone)
	*address = core.TrimToNil(*address)
}

func (r *CreateLeadRequest) Normalize() {
	normalizeContact(&r.Name, &r.Email, &r.Phone, &r.Address)
}

func (r *UpdateLeadRequest) Normalize() {
	normalizeContact(&r.Name, &r.Email, &r.Phone, &r.Address)
}

func (r CreateLeadRequest) toEntity() *Lead {
	return &Lead{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		StatusID:   r.StatusID,
		AssignedTo: r.AssignedTo,
	}
}

func (r UpdateLeadRequest) toEntity(id int64) *Lead {
	return &Lead{
		ID:         id,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		StatusID:   r.StatusID,
		AssignedTo: r.AssignedTo,
	}
}

// ListFilter narrows a listing. ActorEmail names the user whose assigned
// leads an administrator wants to see.
type ListFilter struct {
	ActorEmail string
}

type LeadResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	Address        *string   `json:"address"`
	StatusID       int64     `json:"status_id"`
	StatusName     *string   `json:"status_name"`
	AssignedTo     *int64    `json:"assigned_to"`
	AssignedToName *string   `json:"assigned_to_name"`
	CreatedAt      time.Time `json:"created_at"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

func ToLeadResponse(l *Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		Address:        l.Address,
		StatusID:       l.StatusID,
		StatusName:     l.StatusName,
		AssignedTo:     l.AssignedTo,
		AssignedToName: l.AssignedToName,
		CreatedAt:      l.CreatedAt,
	}
}

func ToLeadResponseList(leads []Lead) []LeadResponse {
	responses := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		responses = append(responses, ToLeadResponse(&leads[i]))
	}
	return responses
}
