package models

// MessageResponse is the body of operations that return no resource
type MessageResponse struct {
	Message string `json:"message"`
}

// MembershipResponse tells whether a like, favorite, follow or subscription
// changed anything
type MembershipResponse struct {
	Changed bool `json:"changed"`
}

// CountResponse carries a count, such as unread notifications or deleted documents
type CountResponse struct {
	Count int64 `json:"count"`
}

// UploadSignatureRequest asks for a signed direct upload into a folder
type UploadSignatureRequest struct {
	Folder string `json:"folder" validate:"required,oneof=forums comments announcements avatars"`
}
