package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"p2p_trade/internal/metrics"
	"p2p_trade/internal/models"
	"p2p_trade/internal/utils"
)

// error 事件的代碼；只會送回給出錯的連線，房間狀態不變
const (
	errBadMessage     = "bad_message"
	errUnknownType    = "unknown_type"
	errNotFound       = "not_found"
	errRoleRequired   = "role_required"
	errInvalidRole    = "invalid_role"
	errEmptyBody      = "empty_body"
	errRateLimited    = "rate_limited"
	errMissingURL     = "missing_url"
	errUnknownAction  = "unknown_action"
	errRoleNotAllowed = "role_not_allowed"
	errInvalidPhase   = "invalid_phase"
)

// HandleMessage 分派一則客戶端消息
// 消息類型是一個封閉集合；未知或格式錯誤的消息只產生送回發送端的
// error 事件，絕不廣播、絕不讓房間崩潰
func (s *RoomService) HandleMessage(client *Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError(client, errBadMessage, "message is not a valid envelope")
		return
	}

	switch env.Type {
	case models.MsgSessionIdentify:
		s.handleIdentify(client, env.Payload)
	case models.MsgOrderSubscribe:
		s.handleSubscribe(client)
	case models.MsgChatSend:
		s.handleChatSend(client, env.Payload)
	case models.MsgOrderAction:
		s.handleOrderAction(client, env.Payload)
	case models.MsgAttachmentNotify:
		s.handleAttachmentNotify(client, env.Payload)
	default:
		s.sendError(client, errUnknownType, "unknown message type: "+env.Type)
	}
}

// handleIdentify 綁定連線的角色與顯示資訊
// 第一次有賣方識別時，房間離開 awaiting_counterparty
func (s *RoomService) handleIdentify(client *Client, payload json.RawMessage) {
	var p models.IdentifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(client, errBadMessage, "malformed identify payload")
		return
	}
	if !models.ValidParticipantRole(p.Role) {
		s.sendError(client, errInvalidRole, "role must be buyer or seller")
		return
	}

	room, ok := s.store.Room(client.RoomID)
	if !ok {
		s.sendError(client, errNotFound, "order room no longer exists")
		return
	}

	client.Role = p.Role
	client.Address = p.Address
	client.DisplayName = p.DisplayName

	room.Lock()
	switch p.Role {
	case models.RoleSeller:
		if room.Order.Seller == nil {
			displayName := p.DisplayName
			if displayName == "" {
				displayName = "anonymous"
			}
			room.Order.Seller = &models.Participant{
				DisplayName: displayName,
				Address:     p.Address,
			}
			if room.Order.Status == models.StatusAwaitingCounterparty {
				room.Order.Status = models.StatusAwaitingPayment
			}
		}
	case models.RoleBuyer:
		if room.Order.Buyer != nil {
			if p.DisplayName != "" {
				room.Order.Buyer.DisplayName = p.DisplayName
			}
			if p.Address != "" {
				room.Order.Buyer.Address = p.Address
			}
		}
	}
	room.Touch()
	snapshot := room.Order.Clone()
	room.Unlock()

	s.manager.BroadcastEvent(client.RoomID, models.EvtOrderUpdate, snapshot)
}

// handleSubscribe 把快照與聊天記錄送回給發送端，不需要已識別的角色
func (s *RoomService) handleSubscribe(client *Client) {
	room, ok := s.store.Room(client.RoomID)
	if !ok {
		s.sendError(client, errNotFound, "order room no longer exists")
		return
	}

	room.Lock()
	snapshot := room.Order.Clone()
	actions := AvailableActions(room.Order.Status, client.EffectiveRole())
	history := room.HistoryCopy()
	room.Unlock()

	s.manager.SendEvent(client, models.EvtOrderSnapshot, models.SnapshotPayload{
		OrderSnapshot:    snapshot,
		AvailableActions: actions,
	})
	s.manager.SendEvent(client, models.EvtChatHistory, models.HistoryPayload{Messages: history})
}

// handleChatSend 追加一則聊天消息並廣播
func (s *RoomService) handleChatSend(client *Client, payload json.RawMessage) {
	if client.Role == "" {
		s.sendError(client, errRoleRequired, "identify before sending chat")
		return
	}

	var p models.ChatSendPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(client, errBadMessage, "malformed chat payload")
		return
	}
	body := strings.TrimSpace(p.Body)
	if body == "" {
		s.sendError(client, errEmptyBody, "chat body must not be empty")
		return
	}
	if !client.chatLimiter.Allow() {
		s.sendError(client, errRateLimited, "too many chat messages")
		return
	}

	room, ok := s.store.Room(client.RoomID)
	if !ok {
		s.sendError(client, errNotFound, "order room no longer exists")
		return
	}

	msg := models.NewChatMessage(client.Role, body)
	room.Lock()
	room.AppendChat(msg)
	room.Touch()
	room.Unlock()

	metrics.ChatMessages.Inc()
	s.manager.BroadcastEvent(client.RoomID, models.EvtChatMessage, msg)
}

// handleOrderAction 執行狀態機；成功才廣播，失敗只回報給發送端
func (s *RoomService) handleOrderAction(client *Client, payload json.RawMessage) {
	if client.Role == "" {
		s.sendError(client, errRoleRequired, "identify before performing order actions")
		return
	}

	var p models.OrderActionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(client, errBadMessage, "malformed action payload")
		return
	}

	room, ok := s.store.Room(client.RoomID)
	if !ok {
		s.sendError(client, errNotFound, "order room no longer exists")
		return
	}

	room.Lock()
	next, err := Transition(room.Order.Status, client.Role, p.Action)
	if err != nil {
		room.Unlock()
		s.sendError(client, actionErrorCode(err), err.Error())
		return
	}
	room.Order.Status = next
	room.Touch()
	sys := models.NewSystemMessage(fmt.Sprintf("%s performed %s", client.Role, p.Action))
	room.AppendChat(sys)
	snapshot := room.Order.Clone()
	room.Unlock()

	s.logger.Info().
		Str("order", client.RoomID).
		Str("role", string(client.Role)).
		Str("action", p.Action).
		Str("status", string(next)).
		Msg("order action applied")

	s.manager.BroadcastEvent(client.RoomID, models.EvtOrderUpdate, snapshot)
	s.manager.BroadcastEvent(client.RoomID, models.EvtChatMessage, sys)
}

// handleAttachmentNotify 登記附件、移除對應的暫存上傳，
// 並以一則合成的聊天消息引用它
func (s *RoomService) handleAttachmentNotify(client *Client, payload json.RawMessage) {
	if client.Role == "" {
		s.sendError(client, errRoleRequired, "identify before announcing attachments")
		return
	}

	var p models.AttachmentNotifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(client, errBadMessage, "malformed attachment payload")
		return
	}
	if p.URL == "" {
		s.sendError(client, errMissingURL, "attachment url is required")
		return
	}

	room, ok := s.store.Room(client.RoomID)
	if !ok {
		s.sendError(client, errNotFound, "order room no longer exists")
		return
	}

	att := s.buildAttachment(client, p)

	room.Lock()
	room.UpsertAttachment(att)
	sys := models.NewSystemMessage(fmt.Sprintf("%s shared an attachment: %s", client.Role, att.Name))
	sys.Attachments = []models.Attachment{att}
	room.AppendChat(sys)
	room.Touch()
	snapshot := room.Order.Clone()
	room.Unlock()

	s.manager.BroadcastEvent(client.RoomID, models.EvtAttachmentAdded, att)
	s.manager.BroadcastEvent(client.RoomID, models.EvtChatMessage, sys)
	s.manager.BroadcastEvent(client.RoomID, models.EvtOrderUpdate, snapshot)
}

// buildAttachment 組出附件記錄，能配對到暫存上傳時沿用其中繼資料並移除它
// 配對優先用 payload 的 uploadId，否則用合成位址的尾段
func (s *RoomService) buildAttachment(client *Client, p models.AttachmentNotifyPayload) models.Attachment {
	var staged *models.Upload
	if p.UploadID != "" {
		if u, ok := s.store.Upload(p.UploadID); ok && u.OrderID == client.RoomID {
			staged = u
		}
	} else {
		for _, u := range s.store.PendingUploads(client.RoomID) {
			if strings.HasSuffix(p.URL, "/"+u.ID) {
				staged = u
				break
			}
		}
	}

	att := models.Attachment{
		URL:         p.URL,
		Name:        p.Name,
		UploadedBy:  client.Role,
		ContentType: p.ContentType,
		Size:        p.Size.Int64(),
		UploadedAt:  time.Now(),
	}

	if staged != nil {
		att.ID = staged.ID
		if att.Name == "" {
			att.Name = staged.Filename
		}
		if att.ContentType == "" {
			att.ContentType = staged.ContentType
		}
		if att.Size == 0 {
			att.Size = staged.Size
		}
		s.store.DeleteUpload(staged.ID)
	} else if p.UploadID != "" {
		att.ID = p.UploadID
	}

	if att.ID == "" {
		att.ID = utils.NewID()
	}
	if att.Name == "" {
		att.Name = path.Base(p.URL)
	}
	return att
}

func (s *RoomService) sendError(client *Client, code, message string) {
	metrics.MessagesRejected.WithLabelValues(code).Inc()
	s.manager.SendEvent(client, models.EvtError, models.ErrorPayload{Code: code, Message: message})
}

func actionErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return errUnknownAction
	case errors.Is(err, ErrRoleNotAllowed):
		return errRoleNotAllowed
	case errors.Is(err, ErrInvalidPhase):
		return errInvalidPhase
	default:
		return errBadMessage
	}
}
