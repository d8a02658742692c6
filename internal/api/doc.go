// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）：訂單創建、
// 附件上傳暫存，以及把 HTTP 連接升級為房間內的 WebSocket 連線。
// 它負責將 HTTP 請求轉換為適當的服務調用，並將結果轉換回 HTTP 響應。
package api
