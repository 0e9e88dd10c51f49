package adaptor

import (
	"encoding/json"
	"net/http"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"go.uber.org/zap"
)

// errorBody is the errors field of a failed envelope
type errorBody struct {
	Code string `json:"code"`
}

// statusFor maps an AppError kind to its HTTP status. Processor failures
// are server errors; the code field tells clients they may retry.
func statusFor(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindValidation, usecase.KindInvalidState:
		return http.StatusBadRequest
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes the envelope for a service error. Errors that
// are not AppErrors never leak their text to the client.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	appErr, ok := usecase.AsAppError(err)
	if !ok {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	status := statusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error(operation+" failed", zap.Error(err), zap.String("code", appErr.Code))
	} else {
		log.Warn(operation+" failed", zap.Error(err), zap.String("code", appErr.Code))
	}
	utils.ResponseJSON(w, status, false, err.Error(), nil, errorBody{Code: appErr.Code})
}

// decodeAndValidate reads the JSON body into dst and runs the struct
// validator. It writes the 400 itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

// requireActor returns the session actor or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (utils.Actor, bool) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return utils.Actor{}, false
	}
	return actor, true
}

func paginationFrom(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	req := request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 10
	}
	return req
}
