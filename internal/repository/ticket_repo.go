package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SupportTicket, error)
	Update(ctx context.Context, ticket *model.SupportTicket) error
	List(ctx context.Context, region, status string, userID *uuid.UUID, page, limit int) ([]model.SupportTicket, int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	if err := r.db.WithContext(ctx).Preload("User").Preload("Responder").
		First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *ticketRepository) List(ctx context.Context, region, status string, userID *uuid.UUID, page, limit int) ([]model.SupportTicket, int64, error) {
	var tickets []model.SupportTicket
	var total int64

	db := r.db.WithContext(ctx)
	apply := func(q *gorm.DB) *gorm.DB {
		if region != "" {
			q = q.Where("region = ?", region)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		return q
	}

	if err := apply(db.Model(&model.SupportTicket{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Preload("User").Preload("Responder")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}
