package services

import (
	"time"

	"github.com/blogem/registros/repositories"
)

// Services holds all service instances
type Services struct {
	Auth    AuthService
	Audit   AuditService
	Records RecordService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, auditLocation *time.Location) *Services {
	audit := NewAuditService(repos.Events, auditLocation)
	return &Services{
		Auth:    NewAuthService(repos.Users),
		Audit:   audit,
		Records: NewRecordService(repos.Records, audit),
	}
}
