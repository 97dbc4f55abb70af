package context_service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/censync/go-dto"
	"github.com/censync/go-validator"
	"github.com/labstack/echo/v4"

	"github.com/q3xlabs/q3x/wallet"
)

type ContextService struct {
	echo.Context
}

func New(c echo.Context) *ContextService {
	return &ContextService{
		c,
	}
}

type CSJsonResp struct {
	Result interface{} `json:"result"`
}

// Custom error
type CSErrorResp struct {
	Result       interface{} `json:"result"`
	ErrorMessage string      `json:"error_message,omitempty"`
	ErrorCode    string      `json:"error_code,omitempty"`
}

func (e *CSErrorResp) Error() string {
	if e == nil {
		return ""
	}
	return e.ErrorMessage
}

// BindToRequest populates the request fields based on the context path and query parameters and body
// and validates the result.
func (cs *ContextService) BindToRequest(request interface{}) error {
	if err := cs.Bind(request); err != nil {
		return fmt.Errorf("failed to read request body: %v", err)
	}
	if err := validator.Validate(request); !err.IsEmpty() {
		return err.Error()
	}
	return nil
}

// BindToDTO builds a request of the given form based on the context and converts it to a DTO.
func (cs *ContextService) BindToDTO(requestForm, dtoForm interface{}) error {
	if err := cs.BindToRequest(requestForm); err != nil {
		return err
	}
	if err := dto.RequestToDTO(dtoForm, requestForm); err != nil {
		return err
	}
	return nil
}

func (cs *ContextService) Json(code int, data interface{}) error {
	if data != nil {
		return cs.JSON(code, &CSJsonResp{
			Result: data,
		})
	} else {
		return cs.JSON(code, &CSJsonResp{
			Result: struct{}{},
		})
	}
}

func (cs *ContextService) JsonEmpty(code int) error {
	return cs.JSON(code, &CSJsonResp{
		Result: struct{}{},
	})
}

func (cs *ContextService) JsonError(code int, err error) error {
	if err == nil {
		return cs.JSON(code, &CSErrorResp{
			Result:       struct{}{},
			ErrorMessage: "undefined error",
		})
	} else {
		return cs.JSON(code, &CSErrorResp{
			Result:       struct{}{},
			ErrorMessage: err.Error(),
			ErrorCode:    wallet.ErrorCode(err),
		})
	}
}

// JsonServiceError responds with the status matching the kind of a service error
func (cs *ContextService) JsonServiceError(err error) error {
	return cs.JsonError(StatusFor(err), err)
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, wallet.ErrMsgNotQueued),
		errors.Is(err, wallet.ErrMetadataNotFound):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrNotSigner),
		errors.Is(err, wallet.ErrDuplicateApproval):
		return http.StatusForbidden
	case errors.Is(err, wallet.ErrWalletAlreadyExists),
		errors.Is(err, wallet.ErrMsgAlreadyQueued),
		errors.Is(err, wallet.ErrSignInFlight):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrThresholdInvalid),
		errors.Is(err, wallet.ErrCannotSign),
		errors.Is(err, wallet.ErrInvalidMessage),
		errors.Is(err, wallet.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrExternalFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
