package handlers

import (
	"errors"
	"net/http"

	"github.com/linesmerrill/forum-api/config"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/storage"
)

// UploadSigner signs direct browser uploads to the file host
type UploadSigner interface {
	UploadSignature(folder string) (storage.UploadSignature, error)
}

// Upload exported for testing purposes
type Upload struct {
	Signer UploadSigner
}

var errNoFileHost = errors.New("file host is not configured")

// UploadSignatureHandler returns the parameters a client needs to upload a file
// straight to the file host
func (u Upload) UploadSignatureHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	if u.Signer == nil {
		config.ErrorStatus("uploads are unavailable", http.StatusServiceUnavailable, w, errNoFileHost)
		return
	}
	var req models.UploadSignatureRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sig, err := u.Signer.UploadSignature(req.Folder)
	if err != nil {
		config.ErrorStatus("failed to sign upload", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}
