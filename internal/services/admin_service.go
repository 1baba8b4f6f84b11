package services

import (
	"time"

	"malinoise/internal/models"
	"malinoise/internal/pdf"
	"malinoise/internal/repositories"
)

type DashboardStats struct {
	Users                int       `json:"users"`
	VerifiedUsers        int       `json:"verified_users"`
	PendingVerifications int       `json:"pending_verifications"`
	LastUpdate           time.Time `json:"last_update"`
}

// AdminService — данные для панели CEO: список аккаунтов, счётчики, выгрузка
// PDF-отчёта.
type AdminService interface {
	ListUsers(limit, offset int) ([]*models.User, error)
	Stats() (*DashboardStats, error)
	UserReport(generatedBy string) ([]byte, error)
}

type adminService struct {
	users         repositories.UserRepository
	verifications repositories.VerificationRepository
	reports       pdf.Generator
	now           func() time.Time
}

func NewAdminService(
	users repositories.UserRepository,
	verifications repositories.VerificationRepository,
	reports pdf.Generator,
	now func() time.Time,
) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{
		users:         users,
		verifications: verifications,
		reports:       reports,
		now:           now,
	}
}

func (s *adminService) ListUsers(limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(limit, offset)
}

func (s *adminService) Stats() (*DashboardStats, error) {
	total, err := s.users.GetCount()
	if err != nil {
		return nil, err
	}
	verified, err := s.users.GetVerifiedCount()
	if err != nil {
		return nil, err
	}
	pending, err := s.verifications.CountActive(s.now())
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Users:                total,
		VerifiedUsers:        verified,
		PendingVerifications: pending,
		LastUpdate:           s.now(),
	}, nil
}

func (s *adminService) UserReport(generatedBy string) ([]byte, error) {
	users, err := s.users.List(1000, 0)
	if err != nil {
		return nil, err
	}
	return s.reports.GenerateUserReport(pdf.UserReportData{
		GeneratedBy: generatedBy,
		GeneratedAt: s.now(),
		Users:       users,
	})
}
