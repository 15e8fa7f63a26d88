package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const minTitleLength = 5

func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("invalid id", map[string]any{"field": field, "value": id})
	}
	return nil
}

// normalizeIDs validates ids and drops duplicates, keeping first occurrences.
func normalizeIDs(field string, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.ToLower(strings.TrimSpace(raw))
		if err := validateID(field, id); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < minTitleLength {
		return "", apperrors.NewValidationError("title must have at least 5 characters",
			map[string]any{"field": "title", "min": minTitleLength})
	}
	return title, nil
}

// notFoundOr maps pgx.ErrNoRows onto a NotFound for resource and anything
// else through the generic mapping.
func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}
