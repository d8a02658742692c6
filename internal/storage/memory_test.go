package storage

import (
	"fmt"
	"testing"
	"time"

	"p2p_trade/internal/models"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(Config{
		IdleTTL:         10 * time.Minute,
		ReclaimInterval: 0,
		ChatCap:         5,
		AttachmentCap:   3,
	})
}

func testOrder(id string) models.OrderSnapshot {
	return models.OrderSnapshot{
		OrderID: id,
		Status:  models.StatusAwaitingCounterparty,
		Buyer:   &models.Participant{DisplayName: "buyer"},
	}
}

func TestCreateRoomBindsBothTokens(t *testing.T) {
	s := newTestStore()
	s.CreateRoom("o1", "buyer-tok", "invite-tok", testOrder("o1"))

	b, ok := s.ResolveToken("buyer-tok")
	if !ok || b.OrderID != "o1" || b.Role != models.RoleBuyer {
		t.Fatalf("unexpected buyer binding: %+v ok=%v", b, ok)
	}
	b, ok = s.ResolveToken("invite-tok")
	if !ok || b.OrderID != "o1" || b.Role != models.RoleSeller {
		t.Fatalf("unexpected invite binding: %+v ok=%v", b, ok)
	}
	if _, ok := s.ResolveToken("bogus"); ok {
		t.Fatal("unknown token must not resolve")
	}
}

func TestChatCapEvictsOldestFirst(t *testing.T) {
	s := newTestStore()
	room := s.CreateRoom("o1", "bt", "it", testOrder("o1"))

	room.Lock()
	for i := 0; i < 8; i++ {
		room.AppendChat(models.NewChatMessage(models.RoleBuyer, fmt.Sprintf("m%d", i)))
	}
	room.Unlock()

	room.Lock()
	defer room.Unlock()
	if len(room.Chat) != 5 {
		t.Fatalf("transcript length %d exceeds cap 5", len(room.Chat))
	}
	if room.Chat[0].Body != "m3" || room.Chat[4].Body != "m7" {
		t.Fatalf("expected FIFO eviction, got %q..%q", room.Chat[0].Body, room.Chat[4].Body)
	}
}

func TestAttachmentCapAndUpsert(t *testing.T) {
	s := newTestStore()
	room := s.CreateRoom("o1", "bt", "it", testOrder("o1"))

	room.Lock()
	for i := 0; i < 5; i++ {
		room.UpsertAttachment(models.Attachment{ID: fmt.Sprintf("a%d", i), URL: "/api/uploads/x"})
	}
	// 同 ID 是更新而非追加
	room.UpsertAttachment(models.Attachment{ID: "a4", Name: "renamed"})
	room.Unlock()

	room.Lock()
	defer room.Unlock()
	atts := room.Order.Attachments
	if len(atts) != 3 {
		t.Fatalf("attachment list length %d exceeds cap 3", len(atts))
	}
	if atts[0].ID != "a2" {
		t.Fatalf("expected oldest attachments dropped, got first %q", atts[0].ID)
	}
	if atts[2].ID != "a4" || atts[2].Name != "renamed" {
		t.Fatalf("expected in-place update of a4, got %+v", atts[2])
	}
}

func TestUploadDeclaredVsReceived(t *testing.T) {
	s := newTestStore()
	s.CreateRoom("o1", "bt", "it", testOrder("o1"))

	now := time.Now()
	s.StageUpload(&models.Upload{ID: "u1", OrderID: "o1", Filename: "receipt.png", CreatedAt: now, UpdatedAt: now})

	if _, ok := s.ReceivedUpload("u1"); ok {
		t.Fatal("declared upload must not be retrievable before bytes arrive")
	}
	if ok := s.AttachUploadData("missing", []byte("x"), ""); ok {
		t.Fatal("attaching bytes to an unknown upload must fail")
	}
	if ok := s.AttachUploadData("u1", []byte("png-bytes"), "image/png"); !ok {
		t.Fatal("attaching bytes to a staged upload must succeed")
	}

	u, ok := s.ReceivedUpload("u1")
	if !ok {
		t.Fatal("upload must be retrievable after bytes arrive")
	}
	if string(u.Data) != "png-bytes" || u.ContentType != "image/png" || u.Size != 9 {
		t.Fatalf("unexpected stored upload: %+v", u)
	}
}

func TestReclaimIdleRooms(t *testing.T) {
	s := newTestStore()

	idle := s.CreateRoom("idle", "bt1", "it1", testOrder("idle"))
	s.CreateRoom("fresh", "bt2", "it2", testOrder("fresh"))
	busy := s.CreateRoom("busy", "bt3", "it3", testOrder("busy"))

	past := time.Now().Add(-time.Hour)
	for _, room := range []*Room{idle, busy} {
		room.Lock()
		room.Order.LastEventAt = past
		room.Unlock()
	}

	now := time.Now()
	s.StageUpload(&models.Upload{ID: "stale", OrderID: "fresh", CreatedAt: past, UpdatedAt: past})
	s.StageUpload(&models.Upload{ID: "live", OrderID: "fresh", CreatedAt: now, UpdatedAt: now})
	s.StageUpload(&models.Upload{ID: "orphan", OrderID: "idle", CreatedAt: now, UpdatedAt: now})

	live := func(roomID string) int {
		if roomID == "busy" {
			return 1
		}
		return 0
	}

	if got := s.MaybeReclaim(live); got != 1 {
		t.Fatalf("expected exactly one room reclaimed, got %d", got)
	}

	if _, ok := s.Room("idle"); ok {
		t.Fatal("idle room past TTL must be reclaimed")
	}
	if _, ok := s.Room("fresh"); !ok {
		t.Fatal("recently active room must survive")
	}
	if _, ok := s.Room("busy"); !ok {
		t.Fatal("room with live connections must survive regardless of age")
	}

	// 被回收房間的兩個憑證一併從索引移除
	if _, ok := s.ResolveToken("bt1"); ok {
		t.Fatal("buyer token of reclaimed room must be forgotten")
	}
	if _, ok := s.ResolveToken("it1"); ok {
		t.Fatal("invite token of reclaimed room must be forgotten")
	}
	if _, ok := s.ResolveToken("bt2"); !ok {
		t.Fatal("tokens of surviving rooms must remain")
	}

	if _, ok := s.Upload("stale"); ok {
		t.Fatal("stale upload must be discarded")
	}
	if _, ok := s.Upload("live"); !ok {
		t.Fatal("fresh upload of a live room must survive")
	}
	if _, ok := s.Upload("orphan"); ok {
		t.Fatal("upload of a reclaimed room must be discarded")
	}
}

func TestReclaimRespectsInterval(t *testing.T) {
	s := NewMemoryStore(Config{
		IdleTTL:         10 * time.Minute,
		ReclaimInterval: time.Hour,
		ChatCap:         5,
		AttachmentCap:   3,
	})
	room := s.CreateRoom("o1", "bt", "it", testOrder("o1"))
	room.Lock()
	room.Order.LastEventAt = time.Now().Add(-time.Hour)
	room.Unlock()

	// 間隔未到，不掃描
	if got := s.MaybeReclaim(nil); got != 0 {
		t.Fatalf("expected no reclamation inside interval, got %d", got)
	}
	if _, ok := s.Room("o1"); !ok {
		t.Fatal("room must survive until interval elapses")
	}
}
