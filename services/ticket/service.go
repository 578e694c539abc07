package ticket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"farmavida-master/pkg/ai"
	"farmavida-master/pkg/db/option"
	"farmavida-master/pkg/db/pagination"
	"farmavida-master/pkg/errutil"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/metrics"
	"farmavida-master/pkg/minio"
	"farmavida-master/pkg/repository"
	"farmavida-master/pkg/sequence"
	"farmavida-master/pkg/validation"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("farmavida-master/services/ticket")

var (
	ErrNotFound         = errors.New("ticket not found")
	ErrInvalidStatus    = errors.New("invalid ticket status")
	ErrClosed           = errors.New("ticket is closed")
	ErrStorageDisabled  = errors.New("attachment storage is not configured")
	ErrAssistantOffline = errors.New("reply assistant is not configured")
)

const maxAttachmentSize = 10 << 20

type Service struct {
	db        *gorm.DB
	repo      repository.Repository[Ticket]
	messages  repository.Repository[Message]
	node      *snowflake.Node
	seq       sequence.Generator
	storage   minio.ObjectStorage
	assistant ai.TextGenerator
	now       func() time.Time
}

type Params struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Seq       sequence.Generator  `optional:"true"`
	Storage   minio.ObjectStorage `optional:"true"`
	Assistant ai.TextGenerator    `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		repo:      repository.ProvideStore[Ticket](p.DB),
		messages:  repository.ProvideStore[Message](p.DB),
		node:      p.Node,
		seq:       p.Seq,
		storage:   p.Storage,
		assistant: p.Assistant,
		now:       time.Now,
	}
}

type ListFilter struct {
	TenantID   string  `form:"tenant_id"`
	Status     Status  `form:"status"`
	Urgency    Urgency `form:"urgency"`
	Category   string  `form:"category"`
	Query      string  `form:"q"`
	pagination.Pagination
}

type ListResult struct {
	Data     []*Ticket           `json:"data"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	query := &Ticket{TenantID: f.TenantID, Status: f.Status, Urgency: f.Urgency, Category: f.Category}
	filters := []option.QueryOption{option.WithSearch(f.Query, "subject", "message", "code", "contact_email")}

	total, err := s.repo.Count(ctx, query, filters...)
	if err != nil {
		return nil, err
	}

	opts := append(filters,
		option.WithSortBy(option.QuerySortBy{OrderBy: "desc"}),
		option.ApplyPagination(f.Pagination),
	)
	tickets, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list tickets", zap.Error(err))
		return nil, err
	}
	return &ListResult{Data: tickets, PageInfo: pagination.BuildPageInfo(f.Pagination, total)}, nil
}

// Get loads a ticket with its conversation in chronological order.
func (s *Service) Get(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type CreateRequest struct {
	TenantID     string         `json:"tenant_id" validate:"required"`
	Origin       string         `json:"origin" validate:"omitempty,oneof=store admin master"`
	Subject      string         `json:"subject" validate:"required,min=3,max=255"`
	Message      string         `json:"message" validate:"required"`
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email" validate:"omitempty,email"`
	Metadata     map[string]any `json:"metadata"`
}

// Create stores a ticket classified from its subject and message. The first
// message of the conversation is the ticket body.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Ticket, error) {
	ctx, span := tracer.Start(ctx, "ticket.Create")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	analysis := Classify(req.Subject, req.Message)

	origin := req.Origin
	if origin == "" {
		origin = "store"
	}

	t := &Ticket{
		ID:           s.node.Generate().String(),
		TenantID:     req.TenantID,
		Origin:       origin,
		Subject:      strings.TrimSpace(req.Subject),
		Message:      strings.TrimSpace(req.Message),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		Status:       StatusOpen,
		Urgency:      analysis.Level,
		Score:        analysis.Score,
		Category:     analysis.Category,
		Attachments:  datatypes.NewJSONType([]Attachment{}),
		Metadata:     datatypes.JSONMap(req.Metadata),
	}

	if s.seq != nil {
		code, err := s.seq.NextTicketCode(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("ticket code unavailable", zap.Error(err))
		} else {
			t.Code = code
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, t); err != nil {
			return err
		}
		first := &Message{ID: s.node.Generate().String(), TicketID: t.ID, Sender: SenderUser, Body: t.Message}
		if err := s.messages.WithTrx(tx).Create(ctx, first); err != nil {
			return err
		}
		t.Messages = []Message{*first}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TicketsCreatedCounter.WithLabelValues(string(t.Urgency), t.Category).Inc()
	logger.FromContext(ctx).Info("ticket created",
		zap.String("ticket_id", t.ID),
		zap.String("tenant_id", t.TenantID),
		zap.String("urgency", string(t.Urgency)),
		zap.String("category", t.Category),
		zap.Int("score", t.Score),
	)
	return t, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Ticket, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

type MessageRequest struct {
	Sender Sender `json:"sender" validate:"omitempty,oneof=user support"`
	Body   string `json:"body" validate:"required"`
}

// AddMessage appends to the conversation. A support reply marks the ticket
// answered; a user message moves it back to open, reopening closed tickets.
func (s *Service) AddMessage(ctx context.Context, id string, req MessageRequest) (*Ticket, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Sender == "" {
		req.Sender = SenderSupport
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed && req.Sender == SenderSupport {
		return nil, ErrClosed
	}

	next := StatusAnswered
	if req.Sender == SenderUser {
		next = StatusOpen
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg := &Message{ID: s.node.Generate().String(), TicketID: id, Sender: req.Sender, Body: strings.TrimSpace(req.Body)}
		if err := s.messages.WithTrx(tx).Create(ctx, msg); err != nil {
			return err
		}
		return s.repo.WithTrx(tx).Update(ctx, id, map[string]any{"status": next})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AddAttachment uploads r to object storage and records it on the ticket.
func (s *Service) AddAttachment(ctx context.Context, id, fileName, contentType string, size int64, r io.Reader) (*Attachment, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if size <= 0 || size > maxAttachmentSize {
		return nil, errutil.BadRequest(fmt.Sprintf("attachment size must be between 1 and %d bytes", maxAttachmentSize), nil)
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	key := fmt.Sprintf("tickets/%s/%s-%s", t.ID, uuid.NewString(), name)

	location, err := s.storage.PutObject(ctx, key, r, size, contentType)
	if err != nil {
		logger.FromContext(ctx).Error("attachment upload failed", zap.String("ticket_id", id), zap.Error(err))
		return nil, err
	}

	att := Attachment{
		Key:         key,
		Location:    location,
		FileName:    name,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  s.now(),
	}
	list := append(t.Attachments.Data(), att)
	if err := s.repo.Update(ctx, id, map[string]any{"attachments": datatypes.NewJSONType(list)}); err != nil {
		return nil, err
	}
	return &att, nil
}

type Suggestion struct {
	Reply    string    `json:"reply"`
	Analysis Analysis  `json:"analysis"`
	Articles []Article `json:"articles"`
}

// SuggestReply drafts a support answer with the text assistant, grounded on
// the classifier output and matching help articles.
func (s *Service) SuggestReply(ctx context.Context, id string) (*Suggestion, error) {
	if s.assistant == nil {
		return nil, ErrAssistantOffline
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis := Classify(t.Subject, t.Message)
	related := relatedArticles(analysis.Category)

	reply, err := s.assistant.GenerateText(ctx, buildReplyPrompt(t, analysis, related))
	if err != nil {
		logger.FromContext(ctx).Warn("reply suggestion failed", zap.String("ticket_id", id), zap.Error(err))
		return nil, err
	}
	return &Suggestion{Reply: reply, Analysis: analysis, Articles: related}, nil
}

var categoryArticleQuery = map[string]string{
	CategoryFiscal:      "nfe",
	CategoryFinanceiro:  "pagamento",
	CategoryImpressora:  "impressora",
	CategoryIntegracoes: "api",
}

func relatedArticles(category string) []Article {
	q, ok := categoryArticleQuery[category]
	if !ok {
		return []Article{}
	}
	return SearchArticles(q)
}

func buildReplyPrompt(t *Ticket, a Analysis, related []Article) string {
	var b strings.Builder
	b.WriteString("Você é do suporte da FarmaVida, um sistema para farmácias. ")
	b.WriteString("Escreva uma resposta curta, cordial e objetiva em português para o chamado abaixo.\n\n")
	fmt.Fprintf(&b, "Assunto: %s\n", t.Subject)
	fmt.Fprintf(&b, "Categoria: %s\nUrgência: %s\n", a.Category, a.Level)
	b.WriteString("Conversa:\n")
	for _, m := range t.Messages {
		fmt.Fprintf(&b, "- %s: %s\n", m.Sender, m.Body)
	}
	if len(a.RecommendedActions) > 0 {
		b.WriteString("Ações recomendadas:\n")
		for _, act := range a.RecommendedActions {
			fmt.Fprintf(&b, "- %s\n", act)
		}
	}
	if len(related) > 0 {
		b.WriteString("Artigos da base de conhecimento:\n")
		for _, art := range related {
			fmt.Fprintf(&b, "- %s: %s\n", art.Title, art.Content)
		}
	}
	return b.String()
}
