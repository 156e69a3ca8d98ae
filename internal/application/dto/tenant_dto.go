package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTenantRequest alta self-service de una empresa con su usuario dueño.
type CreateTenantRequest struct {
	TenantName    string `json:"tenantName" validate:"required,min=2,max=120"`
	Slug          string `json:"slug" validate:"omitempty,max=50"`
	Plan          string `json:"plan" validate:"omitempty,max=30"`
	PrimaryCrop   string `json:"primaryCrop" validate:"omitempty,max=80"`
	ContactEmail  string `json:"contactEmail" validate:"omitempty,email"`
	AdminFullName string `json:"adminFullName" validate:"required,min=2,max=120"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8,max=72"`
	AdminPhone    string `json:"adminPhone" validate:"omitempty,max=30"`
}

// TenantResponse salida de un tenant.
type TenantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Plan         string    `json:"plan"`
	PrimaryCrop  string    `json:"primary_crop"`
	ContactEmail string    `json:"contact_email"`
	CreatedBy    string    `json:"created_by"`
	CurrentUsers int       `json:"current_users"`
	MaxUsers     int       `json:"max_users"`
	Status       string    `json:"status"`
	Modules      []string  `json:"modules,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateTenantResponse respuesta de alta de tenant.
type CreateTenantResponse struct {
	Success bool            `json:"success"`
	Tenant  *TenantResponse `json:"tenant"`
}

// TenantLimitsResponse límites de usuarios del plan. MaxUsers -1 = sin límite.
type TenantLimitsResponse struct {
	CurrentUsers int    `json:"current_users"`
	MaxUsers     int    `json:"max_users"`
	Plan         string `json:"plan"`
	CanAddMore   bool   `json:"can_add_more"`
}

// PlanResponse fila del catálogo de planes.
type PlanResponse struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	MaxUsers     int             `json:"max_users"`
	Modules      []string        `json:"modules"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

// PlanListResponse catálogo completo.
type PlanListResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// CheckEmailResponse resultado de la verificación de email en el alta.
type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}
