package handler

import (
	"veris/internal/identity/models"
)

// RecordResponse is the HTTP body for GET /v1/did/{owner}. Record is
// null when the owner holds no identity.
type RecordResponse struct {
	Record *models.IdentityRecord `json:"record"`
}

// VerifyResponse is the HTTP body for the credential membership check.
type VerifyResponse struct {
	Verified bool `json:"verified"`
}

// ActiveResponse is the HTTP body for GET /v1/did/{owner}/active.
type ActiveResponse struct {
	Active bool `json:"active"`
}

// PendingTransferResponse is the HTTP body for GET /v1/transfers/{owner}.
// Transfer is null when none is pending; Expired reflects the current
// height against the stored window.
type PendingTransferResponse struct {
	Transfer *models.PendingTransfer `json:"transfer"`
	Expired  bool                    `json:"expired"`
}

// HistoryResponse is the HTTP body for GET /v1/transfers/{owner}/history,
// in insertion order.
type HistoryResponse struct {
	History []models.TransferHistoryEntry `json:"history"`
}
