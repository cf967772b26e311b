package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/chat"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/types"
	"github.com/feastly-dev/feastly/internal/utils"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func conversationResponse(conversation models.Conversation) types.ConversationResponse {
	return types.ConversationResponse{
		ID:            conversation.ID,
		UserID:        conversation.UserID,
		UserName:      conversation.User.Name,
		Status:        conversation.Status,
		LastMessage:   conversation.LastMessage,
		LastMessageAt: conversation.LastMessageAt,
	}
}

func messageResponse(message models.Message) types.MessageResponse {
	return types.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		SenderRole:     message.SenderRole,
		Content:        message.Content,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
	}
}

func getOrCreateConversation(userID uint) (models.Conversation, error) {
	var conversation models.Conversation
	err := db.DB.Where(models.Conversation{UserID: userID}).
		Attrs(models.Conversation{Status: types.ConversationActive}).
		FirstOrCreate(&conversation).Error
	return conversation, err
}

// persistMessage writes the message, refreshes the conversation's
// denormalized listing fields and reopens a closed thread.
func persistMessage(conversation *models.Conversation, senderID uint, senderRole types.Role, content string) (models.Message, error) {
	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Content:        content,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		now := time.Now()
		conversation.LastMessage = content
		conversation.LastMessageAt = &now
		conversation.Status = types.ConversationActive

		return tx.Save(conversation).Error
	})

	return message, err
}

func GetMyConversation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	conversation, err := getOrCreateConversation(userID)

	if err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, conversationResponse(conversation))
}

func ListMyMessages(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	conversation, err := getOrCreateConversation(userID)

	if err != nil {
		httpx.Error(ctx, err)
		return
	}

	var messages []models.Message

	if err := db.DB.Where("conversation_id = ?", conversation.ID).
		Order("created_at").
		Find(&messages).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.MessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, messageResponse(message))
	}

	ctx.JSON(http.StatusOK, response)
}

func SendMessage(hub *chat.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		currentUser, err := utils.GetCurrentUser(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		var req SendMessageRequest

		if err := ctx.BindJSON(&req); err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
			return
		}

		conversation, err := getOrCreateConversation(currentUser.ID)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		message, err := persistMessage(&conversation, currentUser.ID, types.RoleUser, req.Content)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		hub.Broadcast(conversation.ID, gin.H{"type": "message", "message": messageResponse(message)})

		ctx.JSON(http.StatusCreated, messageResponse(message))
	}
}

// MarkMessagesRead flags the support side's messages as read by the
// customer. A message's is_read belongs to the receiving party.
func MarkMessagesRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	conversation, err := getOrCreateConversation(userID)

	if err != nil {
		httpx.Error(ctx, err)
		return
	}

	if err := db.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_role <> ? AND is_read = ?", conversation.ID, types.RoleUser, false).
		Update("is_read", true).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Messages marked read"})
}

// --- super-admin console ---

func ListConversations(ctx *gin.Context) {
	var conversations []models.Conversation

	if err := db.DB.Preload("User").
		Order("last_message_at DESC NULLS LAST").
		Find(&conversations).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, conversationResponse(conversation))
	}

	ctx.JSON(http.StatusOK, response)
}

// GetConversationMessages returns the thread and marks the customer's
// messages as read by support.
func GetConversationMessages(ctx *gin.Context) {
	conversationID, err := utils.ParamID(ctx, "conversation_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid conversation ID", err))
		return
	}

	var conversation models.Conversation

	if err := db.DB.First(&conversation, conversationID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Conversation not found"))
		return
	}

	if err := db.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_role = ? AND is_read = ?", conversation.ID, types.RoleUser, false).
		Update("is_read", true).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	var messages []models.Message

	if err := db.DB.Where("conversation_id = ?", conversation.ID).
		Order("created_at").
		Find(&messages).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.MessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, messageResponse(message))
	}

	ctx.JSON(http.StatusOK, response)
}

func ReplyToConversation(hub *chat.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		currentUser, err := utils.GetCurrentUser(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		conversationID, err := utils.ParamID(ctx, "conversation_id")

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid conversation ID", err))
			return
		}

		var req SendMessageRequest

		if err := ctx.BindJSON(&req); err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
			return
		}

		var conversation models.Conversation

		if err := db.DB.First(&conversation, conversationID).Error; err != nil {
			httpx.Error(ctx, apperr.FromStore(err, "Conversation not found"))
			return
		}

		message, err := persistMessage(&conversation, currentUser.ID, currentUser.Role, req.Content)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		hub.Broadcast(conversation.ID, gin.H{"type": "message", "message": messageResponse(message)})

		ctx.JSON(http.StatusCreated, messageResponse(message))
	}
}

func CloseConversation(hub *chat.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conversationID, err := utils.ParamID(ctx, "conversation_id")

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid conversation ID", err))
			return
		}

		var conversation models.Conversation

		if err := db.DB.First(&conversation, conversationID).Error; err != nil {
			httpx.Error(ctx, apperr.FromStore(err, "Conversation not found"))
			return
		}

		conversation.Status = types.ConversationClosed

		if err := db.DB.Save(&conversation).Error; err != nil {
			httpx.Error(ctx, err)
			return
		}

		hub.Broadcast(conversation.ID, gin.H{"type": "closed", "conversation_id": conversation.ID})

		ctx.JSON(http.StatusOK, conversationResponse(conversation))
	}
}
