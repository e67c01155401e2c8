package storage

import (
	"context"
	"errors"

	"github.com/minio/minio-go/v7"
)

// TransferKind classifies a failed transfer for user-facing reporting.
type TransferKind string

const (
	TransferUnauthorized TransferKind = "unauthorized"
	TransferCanceled     TransferKind = "canceled"
	TransferIntegrity    TransferKind = "integrity"
	TransferRetryLimit   TransferKind = "retry-limit"
	TransferUnknown      TransferKind = "unknown"
)

// transferMessages maps each kind to its user-facing message.
var transferMessages = map[TransferKind]string{
	TransferUnauthorized: "Non autorisé à télécharger ce fichier",
	TransferCanceled:     "Téléchargement annulé",
	TransferIntegrity:    "Fichier corrompu",
	TransferRetryLimit:   "Limite de tentatives dépassée",
	TransferUnknown:      "Erreur inconnue lors du téléchargement",
}

// Message returns the user-facing message for the kind.
func (k TransferKind) Message() string {
	if msg, ok := transferMessages[k]; ok {
		return msg
	}
	return transferMessages[TransferUnknown]
}

// TransferError wraps a storage failure with its classification.
type TransferError struct {
	Kind TransferKind
	Err  error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *TransferError) Unwrap() error { return e.Err }

// classifyTransfer maps backend errors onto the transfer failure taxonomy.
// Timeouts fold into unknown; context cancellation is reported as canceled so
// a partial object is never treated as complete.
func classifyTransfer(err error) *TransferError {
	if errors.Is(err, context.Canceled) {
		return &TransferError{Kind: TransferCanceled, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransferError{Kind: TransferUnknown, Err: err}
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return &TransferError{Kind: TransferUnauthorized, Err: err}
		case "BadDigest", "InvalidDigest", "XAmzContentSHA256Mismatch":
			return &TransferError{Kind: TransferIntegrity, Err: err}
		case "SlowDown", "TooManyRequests":
			return &TransferError{Kind: TransferRetryLimit, Err: err}
		}
	}
	return &TransferError{Kind: TransferUnknown, Err: err}
}
