package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
)

var validTicketStatuses = map[string]bool{
	model.TicketOpen:       true,
	model.TicketInProgress: true,
	model.TicketResolved:   true,
	model.TicketClosed:     true,
}

var validTicketPriorities = map[string]bool{
	model.TicketPriorityLow:    true,
	model.TicketPriorityMedium: true,
	model.TicketPriorityHigh:   true,
}

type CreateTicketRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
}

// RespondTicketRequest patches a ticket. Status moves freely among the four
// states; there is no transition machine here.
type RespondTicketRequest struct {
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	AdminResponse *string `json:"admin_response"`
}

type TicketService interface {
	CreateTicket(ctx context.Context, actor AuthContext, req CreateTicketRequest) (*model.SupportTicket, error)
	ListMyTickets(ctx context.Context, actor AuthContext, status string, page, limit int) ([]model.SupportTicket, int64, error)
	ListTickets(ctx context.Context, actor AuthContext, region, status string, page, limit int) ([]model.SupportTicket, int64, error)
	GetTicket(ctx context.Context, actor AuthContext, id string) (*model.SupportTicket, error)
	RespondTicket(ctx context.Context, actor AuthContext, id string, req RespondTicketRequest) (*model.SupportTicket, error)
}

type ticketService struct {
	ticketRepo repository.TicketRepository
	hub        *websocket.Hub
}

func NewTicketService(ticketRepo repository.TicketRepository, hub *websocket.Hub) TicketService {
	return &ticketService{ticketRepo: ticketRepo, hub: hub}
}

func (s *ticketService) CreateTicket(ctx context.Context, actor AuthContext, req CreateTicketRequest) (*model.SupportTicket, error) {
	priority := req.Priority
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	if !validTicketPriorities[priority] {
		return nil, errors.New("priority must be low, medium or high")
	}

	ticket := &model.SupportTicket{
		UserID:      actor.UserID,
		Region:      actor.Region,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      model.TicketOpen,
		Priority:    priority,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.hub.BroadcastEvent(websocket.EventTicketOpened, map[string]string{
		"ticket_id": ticket.ID.String(),
		"region":    ticket.Region,
		"subject":   ticket.Subject,
		"priority":  ticket.Priority,
	})

	return ticket, nil
}

func (s *ticketService) ListMyTickets(ctx context.Context, actor AuthContext, status string, page, limit int) ([]model.SupportTicket, int64, error) {
	tickets, total, err := s.ticketRepo.List(ctx, "", status, &actor.UserID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	return tickets, total, nil
}

func (s *ticketService) ListTickets(ctx context.Context, actor AuthContext, region, status string, page, limit int) ([]model.SupportTicket, int64, error) {
	tickets, total, err := s.ticketRepo.List(ctx, actor.ScopedRegion(region), status, nil, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	return tickets, total, nil
}

func (s *ticketService) GetTicket(ctx context.Context, actor AuthContext, id string) (*model.SupportTicket, error) {
	ticketID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid ticket ID")
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, errors.New("ticket not found")
	}

	if !actor.IsAdmin() && ticket.UserID != actor.UserID {
		return nil, errors.New("access denied")
	}
	if actor.Role == model.RoleRegionalAdmin && ticket.Region != actor.Region {
		return nil, errors.New("access denied: ticket belongs to another region")
	}

	return ticket, nil
}

func (s *ticketService) RespondTicket(ctx context.Context, actor AuthContext, id string, req RespondTicketRequest) (*model.SupportTicket, error) {
	ticketID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid ticket ID")
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, errors.New("ticket not found")
	}
	if actor.Role == model.RoleRegionalAdmin && ticket.Region != actor.Region {
		return nil, errors.New("access denied: ticket belongs to another region")
	}

	if req.Status != nil {
		if !validTicketStatuses[*req.Status] {
			return nil, errors.New("status must be open, in_progress, resolved or closed")
		}
		ticket.Status = *req.Status
	}
	if req.Priority != nil {
		if !validTicketPriorities[*req.Priority] {
			return nil, errors.New("priority must be low, medium or high")
		}
		ticket.Priority = *req.Priority
	}
	if req.AdminResponse != nil && *req.AdminResponse != "" {
		now := time.Now()
		ticket.AdminResponse = *req.AdminResponse
		ticket.RespondedBy = &actor.UserID
		ticket.RespondedAt = &now
	}

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return ticket, nil
}
