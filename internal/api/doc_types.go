package api

import "github.com/dhiway/starter-kit/internal/models"

// CreateDocResponse is the result of creating a document.
type CreateDocResponse struct {
	DocID string `json:"doc_id"`
}

// ListDocsResponse is one row in a document listing.
type ListDocsResponse struct {
	DocID      string `json:"doc_id"`
	Capability string `json:"capability"`
}

// GetDocumentRequest asks to open an existing document.
type GetDocumentRequest struct {
	DocID string `json:"doc_id"`
}

// GetDocumentResponse reports an opened document.
type GetDocumentResponse struct {
	DocID  string `json:"doc_id"`
	Status string `json:"status"`
}

// DropDocRequest deletes a document and all its local state.
type DropDocRequest struct {
	DocID string `json:"doc_id"`
}

// DropDocResponse confirms a drop.
type DropDocResponse struct {
	Message string `json:"message"`
}

// ShareDocRequest mints a sharing ticket.
type ShareDocRequest struct {
	DocID       string `json:"doc_id"`
	Mode        string `json:"mode"`
	AddrOptions string `json:"addr_options"`
}

// ShareDocResponse carries the minted ticket.
type ShareDocResponse struct {
	Ticket string `json:"ticket"`
}

// JoinDocRequest redeems a sharing ticket.
type JoinDocRequest struct {
	Ticket string `json:"ticket"`
}

// JoinDocResponse reports the joined document.
type JoinDocResponse struct {
	DocID string `json:"doc_id"`
}

// CloseDocRequest releases one open handle.
type CloseDocRequest struct {
	DocID string `json:"doc_id"`
}

// CloseDocResponse confirms a close.
type CloseDocResponse struct {
	Message string `json:"message"`
}

// LeaveRequest stops syncing a document without deleting it.
type LeaveRequest struct {
	DocID string `json:"doc_id"`
}

// LeaveResponse confirms a leave.
type LeaveResponse struct {
	Message string `json:"message"`
}

// StatusRequest asks for the live state of an open document.
type StatusRequest struct {
	DocID string `json:"doc_id"`
}

// StatusResponse reports sync state and open reference counts.
type StatusResponse struct {
	Sync            bool `json:"sync"`
	SubscriberCount int  `json:"subscriber_count"`
	HandleCount     int  `json:"handle_count"`
}

// StatusFrom converts the core status into its wire form.
func StatusFrom(status models.DocumentStatus) StatusResponse {
	return StatusResponse{
		Sync:            status.SyncEnabled,
		SubscriberCount: status.SubscriberCount,
		HandleCount:     status.HandleCount,
	}
}

// AddDocSchemaRequest attaches a JSON Schema to an empty document.
type AddDocSchemaRequest struct {
	DocID    string `json:"doc_id"`
	AuthorID string `json:"author_id"`
	Schema   string `json:"schema"`
}

// AddDocSchemaResponse carries the content hash of the stored schema.
type AddDocSchemaResponse struct {
	UpdatedHash string `json:"updated_hash"`
}

// GetDocSchemaResponse returns the stored schema text and its hash.
type GetDocSchemaResponse struct {
	Schema string `json:"schema"`
	Hash   string `json:"hash"`
}

// SetDownloadPolicyRequest replaces a document's download policy.
type SetDownloadPolicyRequest struct {
	DocID          string                `json:"doc_id"`
	DownloadPolicy models.DownloadPolicy `json:"download_policy"`
}

// SetDownloadPolicyResponse confirms a policy update.
type SetDownloadPolicyResponse struct {
	Message string `json:"message"`
}

// GetDownloadPolicyRequest reads a document's download policy.
type GetDownloadPolicyRequest struct {
	DocID string `json:"doc_id"`
}

// GetDownloadPolicyResponse returns the effective policy.
type GetDownloadPolicyResponse struct {
	DownloadPolicy models.DownloadPolicy `json:"download_policy"`
}
