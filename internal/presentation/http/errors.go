package httppresentation

import (
	"net/http"

	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
)

type errorResponse struct {
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	PurchaseID string `json:"purchase_id,omitempty"`
}

func statusForKind(k dominv.Kind) int {
	switch k {
	case dominv.KindInvalidInput:
		return http.StatusBadRequest
	case dominv.KindOperationFailed:
		return http.StatusConflict
	case dominv.KindGetResultItemsFailed:
		return http.StatusBadGateway
	case dominv.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writePurchaseError(w, "", err)
}

func writePurchaseError(w http.ResponseWriter, purchaseID string, err error) {
	ie := dominv.FromNative(err)
	writeJSON(w, statusForKind(ie.Kind), errorResponse{
		Error:      ie.Kind.String(),
		Detail:     ie.Detail,
		PurchaseID: purchaseID,
	})
}
