package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// TemplateRepository reads stored email templates.
type TemplateRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.EmailTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository instantiates repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) GetBySlug(ctx context.Context, slug string) (*domain.EmailTemplate, error) {
	const query = `SELECT slug, subject, html FROM email_templates WHERE slug=$1`
	var tpl domain.EmailTemplate
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&tpl.Slug, &tpl.Subject, &tpl.HTML); err != nil {
		return nil, err
	}
	return &tpl, nil
}
