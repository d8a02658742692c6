package service

import (
	"errors"
	"strings"
	"testing"

	"p2p_trade/internal/models"
)

func TestCreateOrderDefaults(t *testing.T) {
	svc, store := newTestServices(t, nil)

	created, err := svc.Room.CreateOrder(models.CreateOrderInput{AssetSymbol: "SOL"})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if created.OrderID == "" || created.Token == "" || created.InviteToken == "" {
		t.Fatalf("missing identifiers: %+v", created)
	}
	if created.Token == created.InviteToken {
		t.Fatal("buyer and invite tokens must differ")
	}
	if created.Role != models.RoleBuyer {
		t.Fatalf("creator role must be buyer, got %q", created.Role)
	}

	room, ok := store.Room(created.OrderID)
	if !ok {
		t.Fatal("room not registered")
	}
	room.Lock()
	defer room.Unlock()
	if room.Order.Buyer == nil || room.Order.Buyer.DisplayName != "anonymous" {
		t.Fatalf("buyer must default to anonymous, got %+v", room.Order.Buyer)
	}
	if room.Order.TokenAmount != 0 || room.Order.FiatAmount != 0 {
		t.Fatalf("omitted amounts must default to 0, got %+v", room.Order)
	}
}

func TestPresignedUploadAuth(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	first := createTestOrder(t, svc)
	second := createTestOrder(t, svc)

	if _, err := svc.Room.CreatePresignedUpload("bogus", models.PresignUploadInput{OrderID: first.OrderID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown token: expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.Room.CreatePresignedUpload(first.Token, models.PresignUploadInput{OrderID: second.OrderID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-order token: expected ErrForbidden, got %v", err)
	}

	presigned, err := svc.Room.CreatePresignedUpload(first.InviteToken, models.PresignUploadInput{
		OrderID:  first.OrderID,
		Filename: "proof.jpg",
	})
	if err != nil {
		t.Fatalf("presign with invite token failed: %v", err)
	}
	if presigned.Method != "PUT" {
		t.Fatalf("expected PUT, got %q", presigned.Method)
	}
	if !strings.HasPrefix(presigned.UploadURL, "/api/uploads/") || presigned.UploadURL != presigned.FileURL {
		t.Fatalf("unexpected synthetic urls: %+v", presigned)
	}
	if !strings.HasSuffix(presigned.UploadURL, presigned.UploadID) {
		t.Fatalf("upload url must end with the upload id: %+v", presigned)
	}
}

func TestUploadLifecycle(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	created := createTestOrder(t, svc)

	if err := svc.Room.StoreUploadData("missing", []byte("x"), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown upload id: expected ErrNotFound, got %v", err)
	}

	presigned, err := svc.Room.CreatePresignedUpload(created.Token, models.PresignUploadInput{
		OrderID:  created.OrderID,
		Filename: "receipt.png",
	})
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}

	// 已宣告但位元組尚未送達
	if _, err := svc.Room.GetUpload(presigned.UploadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("declared upload must read as not found, got %v", err)
	}

	if err := svc.Room.StoreUploadData(presigned.UploadID, []byte("bytes"), "image/png"); err != nil {
		t.Fatalf("store upload data failed: %v", err)
	}

	upload, err := svc.Room.GetUpload(presigned.UploadID)
	if err != nil {
		t.Fatalf("get upload failed: %v", err)
	}
	if string(upload.Data) != "bytes" || upload.ContentType != "image/png" {
		t.Fatalf("unexpected upload: %+v", upload)
	}
}

func TestAcceptConnectionRejectsBadTokens(t *testing.T) {
	svc, store := newTestServices(t, nil)
	created := createTestOrder(t, svc)
	before := store.RoomCount()

	if err := svc.Room.AcceptConnection(created.OrderID, "bogus", &fakeConn{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown token: expected ErrUnauthorized, got %v", err)
	}

	other := createTestOrder(t, svc)
	if err := svc.Room.AcceptConnection(created.OrderID, other.Token, &fakeConn{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("token of another room: expected ErrUnauthorized, got %v", err)
	}

	if store.RoomCount() != before+1 {
		t.Fatal("rejected connections must not create or destroy rooms")
	}
	if svc.WebSocket.RoomClients(created.OrderID) != 0 {
		t.Fatal("rejected connections must not be attached")
	}
}

func TestAcceptConnectionAttachesAndDetaches(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	created := createTestOrder(t, svc)

	// fakeConn 的讀取立即失敗，AcceptConnection 走完整的掛載與拆除流程
	if err := svc.Room.AcceptConnection(created.OrderID, created.Token, &fakeConn{}); err != nil {
		t.Fatalf("accept with valid token failed: %v", err)
	}
	if svc.WebSocket.RoomClients(created.OrderID) != 0 {
		t.Fatal("closed connection must be removed from the room")
	}
}
