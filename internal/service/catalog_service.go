package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CatalogService manages the priced services clients pick from.
type CatalogService struct {
	services repository.ServiceRepository
	tickets  repository.TicketRepository
	logger   *zap.Logger
}

// CatalogDependencies bundles repositories for the catalog.
type CatalogDependencies struct {
	ServiceRepo repository.ServiceRepository
	TicketRepo  repository.TicketRepository
	Logger      *zap.Logger
}

// ServiceCreateInput describes a new catalog entry. IsDefault defaults to true.
type ServiceCreateInput struct {
	Title     string
	Price     domain.Cents
	IsDefault *bool
}

// ServiceUpdateInput carries optional field changes.
type ServiceUpdateInput struct {
	Title  *string
	Price  *domain.Cents
	Active *bool
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{services: deps.ServiceRepo, tickets: deps.TicketRepo, logger: logger}
}

// Create adds a catalog service.
func (s *CatalogService) Create(ctx context.Context, caller domain.Caller, input ServiceCreateInput) (*domain.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	isDefault := true
	if input.IsDefault != nil {
		isDefault = *input.IsDefault
	}

	svc := &domain.Service{Title: title, Price: input.Price, Active: true, IsDefault: isDefault}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("catalog service created", zap.String("service_id", svc.ID), zap.Int64("price_cents", int64(svc.Price)))
	return svc, nil
}

// List returns catalog services, optionally only the active ones.
func (s *CatalogService) List(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	services, err := s.services.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return services, nil
}

// Update changes title, price or active flag.
func (s *CatalogService) Update(ctx context.Context, caller domain.Caller, id string, input ServiceUpdateInput) (*domain.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	svc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		svc.Title = title
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		svc.Price = *input.Price
	}
	if input.Title != nil || input.Price != nil {
		if err := s.services.Update(ctx, svc); err != nil {
			return nil, notFoundOr(err, "service", map[string]any{"service_id": id})
		}
	}
	if input.Active != nil && *input.Active != svc.Active {
		if err := s.services.SetActive(ctx, id, *input.Active); err != nil {
			return nil, notFoundOr(err, "service", map[string]any{"service_id": id})
		}
	}
	return s.get(ctx, id)
}

// Deactivate soft-deletes a service; tickets keep it attached.
func (s *CatalogService) Deactivate(ctx context.Context, caller domain.Caller, id string) (*domain.Service, error) {
	return s.setActive(ctx, caller, id, false)
}

// Reactivate makes a soft-deleted service selectable again.
func (s *CatalogService) Reactivate(ctx context.Context, caller domain.Caller, id string) (*domain.Service, error) {
	return s.setActive(ctx, caller, id, true)
}

// HardDelete removes a service that no ticket holds.
func (s *CatalogService) HardDelete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	ticketIDs, err := s.tickets.TicketIDsByService(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(ticketIDs) > 0 {
		return apperrors.NewConflict("service is attached to tickets; deactivate it instead", map[string]any{
			"service_id": id,
			"ticket_ids": ticketIDs,
		})
	}
	if err := s.services.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("service is attached to tickets; deactivate it instead", map[string]any{"service_id": id})
		}
		return notFoundOr(err, "service", map[string]any{"service_id": id})
	}
	s.logger.Info("catalog service deleted", zap.String("service_id", id))
	return nil
}

func (s *CatalogService) setActive(ctx context.Context, caller domain.Caller, id string, active bool) (*domain.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.services.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "service", map[string]any{"service_id": id})
	}
	return s.get(ctx, id)
}

func (s *CatalogService) get(ctx context.Context, id string) (*domain.Service, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "service", map[string]any{"service_id": id})
	}
	return svc, nil
}

func validatePrice(price domain.Cents) error {
	if price < 0 {
		return apperrors.NewValidationError("price must not be negative", map[string]any{"field": "price"})
	}
	return nil
}
