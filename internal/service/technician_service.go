package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TechnicianService manages technician accounts and their availability.
type TechnicianService struct {
	accounts    repository.AccountRepository
	technicians repository.TechnicianRepository
	tickets     repository.TicketRepository
	principals  *auth.PrincipalCache
	bcryptCost  int
	logger      *zap.Logger
}

// TechnicianDependencies encapsulates repositories required for technician management.
type TechnicianDependencies struct {
	AccountRepo    repository.AccountRepository
	TechnicianRepo repository.TechnicianRepository
	TicketRepo     repository.TicketRepository
	Principals     *auth.PrincipalCache
	Logger         *zap.Logger
}

// TechnicianCreateInput carries the fields of a new technician.
type TechnicianCreateInput struct {
	Name         string
	Email        string
	Password     string
	PhotoURL     *string
	Availability []string
}

// NewTechnicianService constructs the service.
func NewTechnicianService(cfg config.Config, deps TechnicianDependencies) *TechnicianService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TechnicianService{
		accounts:    deps.AccountRepo,
		technicians: deps.TechnicianRepo,
		tickets:     deps.TicketRepo,
		principals:  deps.Principals,
		bcryptCost:  cfg.Auth.BcryptCost,
		logger:      logger,
	}
}

func requireAdmin(caller domain.Caller) error {
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// Create adds a technician account. Availability must hold at least one slot.
func (s *TechnicianService) Create(ctx context.Context, caller domain.Caller, input TechnicianCreateInput) (*domain.Technician, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	name, email, err := validateIdentity(input.Name, input.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	slots, err := normalizeSlots(input.Availability)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, apperrors.NewValidationError("availability must have at least one slot", map[string]any{"field": "availability"})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleTechnician,
		PhotoURL:     input.PhotoURL,
		Availability: slots,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("technician created", zap.String("technician_id", account.ID), zap.Strings("availability", slots))
	return &domain.Technician{Account: *account}, nil
}

// List returns every technician with its open load, oldest first.
func (s *TechnicianService) List(ctx context.Context, caller domain.Caller) ([]domain.Technician, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	techs, err := s.technicians.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return techs, nil
}

// Get fetches a technician. Technicians may read their own record.
func (s *TechnicianService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.Technician, error) {
	if err := requireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	tech, err := s.technicians.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "technician", map[string]any{"technician_id": id})
	}
	return tech, nil
}

// UpdateAvailability replaces the technician's slots. An empty set makes the
// technician unassignable without touching existing tickets.
func (s *TechnicianService) UpdateAvailability(ctx context.Context, caller domain.Caller, id string, slots []string) (*domain.Technician, error) {
	if err := requireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	normalized, err := normalizeSlots(slots)
	if err != nil {
		return nil, err
	}
	if err := s.technicians.UpdateAvailability(ctx, id, normalized); err != nil {
		return nil, notFoundOr(err, "technician", map[string]any{"technician_id": id})
	}
	return s.Get(ctx, caller, id)
}

// Delete removes a technician that no ticket references.
func (s *TechnicianService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := validateID("id", id); err != nil {
		return err
	}
	if _, err := s.technicians.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "technician", map[string]any{"technician_id": id})
	}

	count, err := s.tickets.CountByTechnician(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("technician has tickets and cannot be deleted", map[string]any{
			"technician_id": id,
			"tickets":       count,
		})
	}

	if err := s.technicians.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("technician has tickets and cannot be deleted", map[string]any{"technician_id": id})
		}
		return notFoundOr(err, "technician", map[string]any{"technician_id": id})
	}
	s.principals.Invalidate(id)
	s.logger.Info("technician deleted", zap.String("technician_id", id))
	return nil
}

func requireSelfOrAdmin(caller domain.Caller, id string) error {
	if caller.IsAdmin() || (caller.IsTechnician() && caller.ID == id) {
		return nil
	}
	return apperrors.NewForbidden("admin or the technician themselves required")
}

// normalizeSlots trims, validates and de-duplicates "HH:MM" slot labels.
func normalizeSlots(slots []string) ([]string, error) {
	seen := make(map[string]struct{}, len(slots))
	result := make([]string, 0, len(slots))
	for _, raw := range slots {
		slot := strings.TrimSpace(raw)
		if _, err := time.Parse("15:04", slot); err != nil {
			return nil, apperrors.NewValidationError("invalid availability slot", map[string]any{"slot": raw, "format": "HH:MM"})
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		result = append(result, slot)
	}
	return result, nil
}

func validateIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return name, email, nil
}
