// Package seed loads bootstrap accounts and catalog services from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Document is the seed file layout.
type Document struct {
	Admin       AccountSeed   `yaml:"admin"`
	Technicians []AccountSeed `yaml:"technicians"`
	Services    []ServiceSeed `yaml:"services"`
}

// AccountSeed describes an admin or technician account.
type AccountSeed struct {
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	Password     string   `yaml:"password"`
	Availability []string `yaml:"availability"`
}

// ServiceSeed describes a catalog service. Price is a decimal amount.
type ServiceSeed struct {
	Title string  `yaml:"title"`
	Price float64 `yaml:"price"`
}

// Result counts what Apply created and skipped.
type Result struct {
	Created int
	Skipped int
}

// LoadFile decodes the seed document at path.
func LoadFile(path string) (*Document, error) {
	input, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer input.Close()
	return Decode(input)
}

// Decode reads a seed document. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r, yaml.Strict()).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}
	return &doc, nil
}

// Applier writes a Document into a repository set.
type Applier struct {
	repos      repository.Set
	bcryptCost int
	logger     *zap.Logger
}

// NewApplier constructs an Applier.
func NewApplier(repos repository.Set, bcryptCost int, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{repos: repos, bcryptCost: bcryptCost, logger: logger}
}

// Apply creates the accounts and services of doc that do not exist yet.
// Accounts match by email and services by title, so running it twice is a no-op.
func (a *Applier) Apply(ctx context.Context, doc *Document) (Result, error) {
	var res Result

	if doc.Admin.Email != "" {
		if err := a.account(ctx, doc.Admin, domain.RoleAdmin, &res); err != nil {
			return res, err
		}
	}
	for _, tech := range doc.Technicians {
		if len(tech.Availability) == 0 {
			return res, fmt.Errorf("technician %s: availability must not be empty", tech.Email)
		}
		if err := a.account(ctx, tech, domain.RoleTechnician, &res); err != nil {
			return res, err
		}
	}

	existing, err := a.repos.Services.List(ctx, false)
	if err != nil {
		return res, fmt.Errorf("list services: %w", err)
	}
	titles := make(map[string]struct{}, len(existing))
	for _, svc := range existing {
		titles[strings.ToLower(svc.Title)] = struct{}{}
	}
	for _, seed := range doc.Services {
		if err := a.service(ctx, seed, titles, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (a *Applier) account(ctx context.Context, seed AccountSeed, role domain.Role, res *Result) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	_, err := a.repos.Accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		a.logger.Info("account exists; skipping", zap.String("email", email))
		res.Skipped++
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("lookup %s: %w", email, err)
	}

	if err := auth.ValidatePassword(seed.Password); err != nil {
		return fmt.Errorf("account %s: %w", email, err)
	}
	hash, err := auth.HashPassword(seed.Password, a.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}
	account := &domain.Account{
		Name:         strings.TrimSpace(seed.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Availability: seed.Availability,
	}
	if err := a.repos.Accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("create %s %s: %w", role, email, err)
	}
	a.logger.Info("account seeded", zap.String("email", email), zap.String("role", string(role)))
	res.Created++
	return nil
}

func (a *Applier) service(ctx context.Context, seed ServiceSeed, titles map[string]struct{}, res *Result) error {
	title := strings.TrimSpace(seed.Title)
	key := strings.ToLower(title)
	if _, ok := titles[key]; ok {
		res.Skipped++
		return nil
	}
	price, ok := domain.CentsFromFloat(seed.Price)
	if !ok || price < 0 {
		return fmt.Errorf("service %q: invalid price %v", title, seed.Price)
	}
	svc := &domain.Service{Title: title, Price: price, Active: true, IsDefault: true}
	if err := a.repos.Services.Create(ctx, svc); err != nil {
		return fmt.Errorf("create service %q: %w", title, err)
	}
	titles[key] = struct{}{}
	a.logger.Info("service seeded", zap.String("title", title), zap.String("price", price.String()))
	res.Created++
	return nil
}
