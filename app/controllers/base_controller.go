package controllers

import (
	"net/http"

	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/beego/beego/v2/server/web"
)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"error": message,
	})
}

// JSONAppError 按业务错误携带的HTTP状态码写出错误响应
func (c *BaseController) JSONAppError(err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSONError(status, appErr.Message)
}
