package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	. "github.com/q3xlabs/q3x/client/api/dto"
	cs "github.com/q3xlabs/q3x/client/api/http_api/context_service"
	req "github.com/q3xlabs/q3x/client/api/http_api/requests"
)

func (a *HTTPApp) Propose(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &CallerMessageDTO{}
	if err := stx.BindToDTO(&req.CallerMessageForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	proposal, err := a.node.Propose(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, proposal)
}

func (a *HTTPApp) ProposeWithMetadata(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &MessageMetadataDTO{}
	if err := stx.BindToDTO(&req.MessageMetadataForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	proposal, err := a.node.ProposeWithMetadata(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, proposal)
}

func (a *HTTPApp) Approve(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &CallerMessageDTO{}
	if err := stx.BindToDTO(&req.CallerMessageForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	approvals, err := a.node.Approve(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, approvals)
}

func (a *HTTPApp) CanSign(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletMessageDTO{}
	if err := stx.BindToDTO(&req.WalletMessageForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	canSign, err := a.node.CanSign(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, canSign)
}

func (a *HTTPApp) Sign(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &CallerMessageDTO{}
	if err := stx.BindToDTO(&req.CallerMessageForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	resp, err := a.node.Sign(stx.Request().Context(), formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, resp)
}

func (a *HTTPApp) VerifySignature(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &VerifySignatureDTO{}
	if err := stx.BindToDTO(&req.VerifySignatureForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	valid, err := a.node.VerifySignature(stx.Request().Context(), formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, valid)
}

func (a *HTTPApp) GetMessagesToSign(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletIdDTO{}
	if err := stx.BindToDTO(&req.WalletIdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	messages, err := a.node.GetMessagesToSign(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, messages)
}

func (a *HTTPApp) GetProposedMessages(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletIdDTO{}
	if err := stx.BindToDTO(&req.WalletIdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	messages, err := a.node.GetProposedMessages(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, messages)
}

func (a *HTTPApp) GetMessagesWithSigners(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletIdDTO{}
	if err := stx.BindToDTO(&req.WalletIdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	entries, err := a.node.GetMessagesWithSigners(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, entries)
}

func (a *HTTPApp) AddMetadata(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &MessageMetadataDTO{}
	if err := stx.BindToDTO(&req.MessageMetadataForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	if err := a.node.AddMetadata(formDTO); err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, "ok")
}

func (a *HTTPApp) GetMetadata(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &CallerMessageDTO{}
	if err := stx.BindToDTO(&req.CallerMessageForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	metadata, err := a.node.GetMetadata(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, metadata)
}
