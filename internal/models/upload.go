package models

import "time"

// Upload 表示一個暫存的上傳：先由預簽請求宣告，位元組隨後才送達
// 在被 attachment.notify 引用或被回收之前，一直獨立於任何附件列表
type Upload struct {
	ID          string    `json:"uploadId"`
	OrderID     string    `json:"orderId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Received 區分「已宣告」與「已收到位元組」兩種狀態
func (u *Upload) Received() bool {
	return len(u.Data) > 0
}

// PresignedUpload 是預簽上傳請求的回應
// 實際的位元組傳輸由外部協作者透過 uploadUrl 完成
type PresignedUpload struct {
	UploadID  string `json:"uploadId"`
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Method    string `json:"method"`
}

// PresignUploadInput 是預簽上傳請求的輸入
type PresignUploadInput struct {
	OrderID     string     `json:"orderId"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	Size        FlexNumber `json:"size"`
}
