package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	. "github.com/q3xlabs/q3x/client/api/dto"
	cs "github.com/q3xlabs/q3x/client/api/http_api/context_service"
	req "github.com/q3xlabs/q3x/client/api/http_api/requests"
)

// Command handlers propose the encoded command on behalf of the caller and return the hex message

func (a *HTTPApp) AddSigner(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &SignerDTO{}
	if err := stx.BindToDTO(&req.SignerForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	msg, err := a.node.AddSigner(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, msg)
}

func (a *HTTPApp) RemoveSigner(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &SignerDTO{}
	if err := stx.BindToDTO(&req.SignerForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	msg, err := a.node.RemoveSigner(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, msg)
}

func (a *HTTPApp) SetThreshold(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &ThresholdDTO{}
	if err := stx.BindToDTO(&req.ThresholdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	msg, err := a.node.SetThreshold(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, msg)
}

func (a *HTTPApp) Transfer(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &TransferDTO{}
	if err := stx.BindToDTO(&req.TransferForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	msg, err := a.node.Transfer(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, msg)
}
