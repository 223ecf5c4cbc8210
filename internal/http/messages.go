package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mongoadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/mongo"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type messageDTO struct {
	ID        string    `json:"id"`
	GuideID   string    `json:"guideId"`
	FromGuide bool      `json:"fromGuide"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMessageDTO(m mongoadapter.MessageDoc) messageDTO {
	return messageDTO{
		ID:        m.ID.String(),
		GuideID:   m.GuideID.String(),
		FromGuide: m.FromGuide,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

type sendMessageRequest struct {
	GuideID string `json:"guideId" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	guideID, err := uuid.Parse(req.GuideID)
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid guide id"))
		return
	}
	if _, err := h.repo.GetGuide(r.Context(), guideID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	user := CurrentUser(r.Context())
	msg := mongoadapter.MessageDoc{
		ID:      uuid.New(),
		UserID:  user.ID,
		GuideID: guideID,
		Content: req.Content,
	}
	if err := h.messages.Insert(r.Context(), msg); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.repo.EnqueueEvent(r.Context(), "message", msg.ID, "message.sent", map[string]interface{}{
		"message_id": msg.ID.String(),
		"user_id":    user.ID.String(),
		"guide_id":   guideID.String(),
	}); err != nil {
		h.logger.Warn("message event enqueue failed: ", err)
	}

	msg.CreatedAt = time.Now()
	writeJSON(w, http.StatusCreated, toMessageDTO(msg))
}

// GetConversation returns one page of the caller's thread with a guide
// and marks the guide's messages read.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	guideID, err := uuid.Parse(chi.URLParam(r, "guideId"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid guide id"))
		return
	}
	page, limit := parsePage(r.URL.Query())

	user := CurrentUser(r.Context())
	msgs, total, err := h.messages.Conversation(r.Context(), user.ID, guideID, page, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.messages.MarkRead(r.Context(), user.ID, guideID); err != nil {
		h.logger.Warn("mark read failed: ", err)
	}
	pg := domain.NewPage(page, limit, total)

	dtos := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		dtos = append(dtos, toMessageDTO(m))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages":    dtos,
		"totalPages":  pg.TotalPages,
		"currentPage": pg.CurrentPage,
		"totalItems":  pg.TotalItems,
	})
}

type conversationDTO struct {
	GuideID       string    `json:"guideId"`
	GuideName     string    `json:"guideName"`
	GuideImageURL string    `json:"guideImageUrl"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int       `json:"unreadCount"`
}

// GetConversations lists the caller's conversations. The mongo
// aggregation only carries guide ids, so names get filled in from the
// relational store here.
func (h *Handlers) GetConversations(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	convs, err := h.messages.Conversations(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]conversationDTO, 0, len(convs))
	for _, c := range convs {
		dto := conversationDTO{
			GuideID:       c.GuideID.String(),
			LastMessage:   c.LastMessage,
			LastMessageAt: c.LastMessageAt,
			UnreadCount:   c.UnreadCount,
		}
		if g, err := h.repo.GetGuide(r.Context(), c.GuideID); err == nil {
			dto.GuideName = g.Name
			dto.GuideImageURL = g.ImageURL
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": dtos})
}
