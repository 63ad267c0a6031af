package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/assistant"
)

type assistantApi struct {
	svc      assistant.Service
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := assistantApi{
		svc:      opts.AssistantSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/assistant", jwt)
	ag.POST("/ask", api.ask)
}

// ask proxies the prompt to the assistant. Upstream failures are reported in the
// response body with a 200 so clients can render them inline.
func (api *assistantApi) ask(ctx echo.Context) error {
	var data AskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AskRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	answer, err := api.svc.Ask(ctx.Request().Context(), data.Prompt)
	if err != nil {
		var msg string
		switch errors.Cause(err) {
		case assistant.ErrUnavailable:
			msg = "The assistant could not be reached. Please try again later."
		case assistant.ErrBadStatus:
			msg = "The assistant rejected the request. Please try again later."
		case assistant.ErrBadResponse:
			msg = "The assistant gave an unreadable answer. Please try again later."
		default:
			return errors.Wrap(err, "asking assistant")
		}
		return ctx.JSON(http.StatusOK, AskResponse{Error: msg})
	}
	return ctx.JSON(http.StatusOK, AskResponse{Answer: answer})
}
