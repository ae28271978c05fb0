package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	middleware "github.com/markdave123-py/docscope/internal/api/middlewares"
	"github.com/markdave123-py/docscope/internal/contextutil"
	"github.com/markdave123-py/docscope/internal/core"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code               string      `json:"code"`
	Message            string      `json:"message"`
	MissingDocumentIDs []uuid.UUID `json:"missing_document_ids,omitempty"`
}

// requestError reports a malformed request body or parameter.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type apiError struct {
	status int
	body   ErrorResponse
}

func newAPIError(status int, code, message string) apiError {
	return apiError{status: status, body: ErrorResponse{Code: code, Message: message}}
}

// toAPIError maps the error taxonomy onto status codes and stable error codes.
func toAPIError(err error) apiError {
	var (
		notFound    *core.DocumentIDsNotFoundError
		tooMany     *core.TooManyFilesError
		tooLarge    *core.FileTooLargeError
		unsupported *core.UnsupportedContentTypeError
		noText      *core.NoTextExtractedError
		extraction  *core.TextExtractionError
		embedding   *core.EmbeddingGenerationError
		reqErr      *requestError
		maxBytes    *http.MaxBytesError
	)

	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, "401-01", "Invalid credentials")
	case errors.Is(err, core.ErrSessionExpired):
		return newAPIError(http.StatusUnauthorized, "401-02", "Session expired")
	case errors.Is(err, core.ErrTokenMissingUserID):
		return newAPIError(http.StatusUnauthorized, "401-03", "Token missing 'user_id'")
	case errors.Is(err, core.ErrInvalidToken):
		return newAPIError(http.StatusUnauthorized, "401-04", "Invalid token")

	case errors.Is(err, core.ErrScopeRequired):
		return newAPIError(http.StatusBadRequest, "400-01", "session_id is required for anonymous requests")
	case errors.Is(err, core.ErrNoFiles):
		return newAPIError(http.StatusBadRequest, "400-02", "No files provided")
	case errors.As(err, &tooMany):
		return newAPIError(http.StatusBadRequest, "400-03", fmt.Sprintf("Maximum number of files is %d", tooMany.Max))
	case errors.Is(err, core.ErrEmptyFile):
		return newAPIError(http.StatusBadRequest, "400-04", "Empty file")
	case errors.Is(err, core.ErrScopeConflict):
		return newAPIError(http.StatusBadRequest, "400-05", "session_id is not allowed for authenticated requests")
	case errors.Is(err, core.ErrDocumentIDsEmpty):
		return newAPIError(http.StatusBadRequest, "400-06", "document_ids cannot be an empty list")
	case errors.Is(err, core.ErrQuestionInvalid):
		return newAPIError(http.StatusBadRequest, "400-08", "Question is too vague or not about the documents")

	case errors.Is(err, core.ErrSessionNotFound):
		return newAPIError(http.StatusNotFound, "404-01", "Session not found")
	case errors.Is(err, core.ErrNoRelevantContext):
		return newAPIError(http.StatusNotFound, "404-02", "No relevant context found in specified documents")
	case errors.As(err, &notFound):
		e := newAPIError(http.StatusNotFound, "404-03", "One or more document_ids were not found for this request")
		e.body.MissingDocumentIDs = notFound.MissingIDs
		return e

	case errors.Is(err, core.ErrUserExists):
		return newAPIError(http.StatusConflict, "409-01", "User with this email already exists")

	case errors.As(err, &tooLarge):
		return newAPIError(http.StatusRequestEntityTooLarge, "413-01", fmt.Sprintf("File too large: %s", tooLarge.Filename))
	case errors.As(err, &maxBytes):
		return newAPIError(http.StatusRequestEntityTooLarge, "413-01", "File too large")
	case errors.Is(err, core.ErrContentTypeRequired):
		return newAPIError(http.StatusUnsupportedMediaType, "415-01", "File content type is required")
	case errors.As(err, &unsupported):
		return newAPIError(http.StatusUnsupportedMediaType, "415-02", fmt.Sprintf("Unsupported content type: %s", unsupported.ContentType))
	case errors.As(err, &noText):
		return newAPIError(http.StatusUnprocessableEntity, "422-01", fmt.Sprintf("No text extracted from: %s", noText.Filename))
	case errors.As(err, &extraction):
		return newAPIError(http.StatusUnprocessableEntity, "422-01", "Failed to extract text from file")

	case errors.As(err, &reqErr),
		errors.Is(err, core.ErrQuestionEmpty),
		errors.Is(err, core.ErrQuestionTooLong),
		errors.Is(err, core.ErrTooManyDocumentIDs),
		errors.Is(err, core.ErrInvalidTopK),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrInvalidPassword):
		return newAPIError(http.StatusUnprocessableEntity, "422-02", err.Error())

	case errors.Is(err, middleware.ErrRateLimited):
		return newAPIError(http.StatusTooManyRequests, "429-01", "Rate limit exceeded")

	case errors.As(err, &embedding):
		return newAPIError(http.StatusInternalServerError, "500-02", "Embedding generation failed")
	case errors.Is(err, core.ErrContentEncryption):
		return newAPIError(http.StatusInternalServerError, "500-04", "Document content encryption failed")
	case errors.Is(err, core.ErrContentDecryption):
		return newAPIError(http.StatusInternalServerError, "500-05", "Document content decryption failed")
	default:
		return newAPIError(http.StatusInternalServerError, "500-01", "Internal Server Error")
	}
}

// WriteError renders err as an ErrorResponse. Server-side failures are logged with their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := toAPIError(err)
	logger := contextutil.LoggerFromContext(r.Context())
	if e.status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "code", e.body.Code, "error", err)
	} else {
		logger.DebugContext(r.Context(), "request rejected", "code", e.body.Code, "error", err)
	}
	writeJSON(w, e.status, e.body)
}
