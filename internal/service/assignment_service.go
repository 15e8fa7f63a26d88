package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	msgNoTechnicianConfigured = "no technician configured"
	msgNoTechnicianAvailable  = "no technician available"
)

// SelectTechnician returns the assignable technician with the lowest open
// load. Candidates must be in directory order; ties go to the earliest one.
func SelectTechnician(candidates []domain.Technician) (domain.Technician, error) {
	if len(candidates) == 0 {
		return domain.Technician{}, apperrors.NewNotFoundMessage(msgNoTechnicianConfigured, nil)
	}

	best := -1
	for i, candidate := range candidates {
		if !candidate.Assignable() {
			continue
		}
		if best < 0 || candidate.OpenLoad < candidates[best].OpenLoad {
			best = i
		}
	}
	if best < 0 {
		return domain.Technician{}, apperrors.NewNotFoundMessage(msgNoTechnicianAvailable,
			map[string]any{"technicians": len(candidates)})
	}
	return candidates[best], nil
}

// loggedAssignment wraps SelectTechnician and logs the decision.
func loggedAssignment(logger *zap.Logger) repository.AssignFunc {
	return func(candidates []domain.Technician) (domain.Technician, error) {
		chosen, err := SelectTechnician(candidates)
		if err != nil {
			logger.Warn("ticket assignment failed", zap.Int("candidates", len(candidates)), zap.Error(err))
			return chosen, err
		}
		logger.Info("technician selected",
			zap.String("technician_id", chosen.ID),
			zap.Int("open_load", chosen.OpenLoad),
			zap.Int("candidates", len(candidates)))
		return chosen, nil
	}
}
