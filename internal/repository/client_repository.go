package repository

import (
	"context"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ClientRepository) WithTx(tx *gorm.DB) *ClientRepository {
	return &ClientRepository{db: tx}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetByExactName matches the company name byte for byte
func (r *ClientRepository) GetByExactName(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("company_name = ?", name).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetByNameFold matches the trimmed company name case-insensitively, oldest first
func (r *ClientRepository) GetByNameFold(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(company_name)) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("id ASC").
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).Order("company_name ASC").Find(&clients).Error
	return clients, err
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ClientRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Client, error) {
	var clients []domain.Client
	searchPattern := "%" + likeEscaper.Replace(strings.ToLower(searchQuery)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(company_name) LIKE ? ESCAPE '\\' OR LOWER(contact_person) LIKE ? ESCAPE '\\'", searchPattern, searchPattern).
		Order("company_name ASC").
		Limit(limit).
		Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).Count(&count).Error
	return int(count), err
}
