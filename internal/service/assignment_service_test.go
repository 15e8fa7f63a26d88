package service

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func tech(id string, load int, slots ...string) domain.Technician {
	return domain.Technician{Account: domain.Account{ID: id, Availability: slots}, OpenLoad: load}
}

func TestSelectTechnician(t *testing.T) {
	cases := []struct {
		name       string
		candidates []domain.Technician
		want       string
		wantMsg    string
	}{
		{name: "empty directory", candidates: nil, wantMsg: msgNoTechnicianConfigured},
		{name: "nobody available", candidates: []domain.Technician{tech("a", 0), tech("b", 1)}, wantMsg: msgNoTechnicianAvailable},
		{name: "single", candidates: []domain.Technician{tech("a", 7, "08:00")}, want: "a"},
		{name: "lowest load wins", candidates: []domain.Technician{tech("a", 2, "08:00"), tech("b", 0, "09:00"), tech("c", 1, "10:00")}, want: "b"},
		{name: "tie goes to first", candidates: []domain.Technician{tech("a", 1, "08:00"), tech("b", 1, "09:00")}, want: "a"},
		{name: "unavailable skipped even when idle", candidates: []domain.Technician{tech("a", 0), tech("b", 3, "09:00")}, want: "b"},
		{name: "tie after skip", candidates: []domain.Technician{tech("a", 0), tech("b", 2, "08:00"), tech("c", 2, "08:00")}, want: "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectTechnician(tc.candidates)
			if tc.wantMsg != "" {
				if !apperrors.HasCode(err, apperrors.CodeNotFound) {
					t.Fatalf("expected not found, got %v", err)
				}
				if err.Error() != tc.wantMsg {
					t.Fatalf("message = %q, want %q", err.Error(), tc.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tc.want {
				t.Fatalf("selected %s, want %s", got.ID, tc.want)
			}
		})
	}
}
