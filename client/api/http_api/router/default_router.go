package router

import (
	"github.com/labstack/echo/v4"

	"github.com/q3xlabs/q3x/client/api/http_api/handlers"
	"github.com/q3xlabs/q3x/client/services/node"
)

func SetRouter(e *echo.Echo, node node.NodeService) {
	h := handlers.NewHTTPApp(node)

	e.GET("/getUsername", h.GetUsername)
	e.GET("/getPubKey", h.GetPubKey)

	e.POST("/createWallet", h.CreateWallet)
	e.GET("/getWallet", h.GetWallet)
	e.GET("/getWalletsForPrincipal", h.GetWalletsForPrincipal)
	e.GET("/getPublicKey", h.GetPublicKey)

	e.POST("/propose", h.Propose)
	e.POST("/proposeWithMetadata", h.ProposeWithMetadata)
	e.POST("/approve", h.Approve)
	e.GET("/canSign", h.CanSign)
	e.POST("/sign", h.Sign)
	e.POST("/verifySignature", h.VerifySignature)

	e.GET("/getMessagesToSign", h.GetMessagesToSign)
	e.GET("/getProposedMessages", h.GetProposedMessages)
	e.GET("/getMessagesWithSigners", h.GetMessagesWithSigners)

	e.POST("/addSigner", h.AddSigner)
	e.POST("/removeSigner", h.RemoveSigner)
	e.POST("/setThreshold", h.SetThreshold)
	e.POST("/transfer", h.Transfer)

	e.POST("/addMetadata", h.AddMetadata)
	e.GET("/getMetadata", h.GetMetadata)

	e.GET("/getJournal", h.GetJournal)
}
