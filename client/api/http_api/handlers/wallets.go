package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	. "github.com/q3xlabs/q3x/client/api/dto"
	cs "github.com/q3xlabs/q3x/client/api/http_api/context_service"
	req "github.com/q3xlabs/q3x/client/api/http_api/requests"
)

func (a *HTTPApp) CreateWallet(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &CreateWalletDTO{}
	if err := stx.BindToDTO(&req.CreateWalletForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	if err := a.node.CreateWallet(formDTO); err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, "ok")
}

func (a *HTTPApp) GetWallet(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletIdDTO{}
	if err := stx.BindToDTO(&req.WalletIdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	view, err := a.node.GetWallet(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, view)
}

func (a *HTTPApp) GetWalletsForPrincipal(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &PrincipalDTO{}
	if err := stx.BindToDTO(&req.PrincipalForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	wallets, err := a.node.GetWalletsForPrincipal(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, wallets)
}

func (a *HTTPApp) GetPublicKey(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &WalletIdDTO{}
	if err := stx.BindToDTO(&req.WalletIdForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	pubKey, err := a.node.GetPublicKey(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, pubKey)
}

func (a *HTTPApp) GetJournal(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &JournalOffsetDTO{}
	if err := stx.BindToDTO(&req.JournalOffsetForm{}, formDTO); err != nil {
		return stx.JsonError(http.StatusBadRequest, err)
	}

	messages, err := a.node.GetJournal(formDTO)
	if err != nil {
		return stx.JsonServiceError(err)
	}
	return stx.Json(http.StatusOK, messages)
}
