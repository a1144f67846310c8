package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-records/internal/service"
	apperrors "school-records/pkg/errors"
	"school-records/pkg/response"
)

// 业务错误码
const (
	CodeBadRequest    = 10001
	CodeUnauthorized  = 10002
	CodeForbidden     = 10003
	CodeRateLimited   = 10004
	CodeNotFound      = 10006
	CodeConflict      = 10007
	CodeUnprocessable = 10008

	CodeInvalidCredentials = 11001
	CodeInvalidToken       = 11002

	CodeInternal = 50000
)

// writeError 按错误分类写入统一错误响应
// 非业务错误记录到 gin 上下文（由 Logger 中间件输出）并返回 500
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, CodeInvalidCredentials, err.Error())
		return
	case errors.Is(err, service.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, CodeInvalidToken, err.Error())
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		response.NotFound(c, CodeNotFound, err.Error())
	case apperrors.KindForbidden:
		response.Forbidden(c, CodeForbidden, err.Error())
	case apperrors.KindConflict:
		response.Conflict(c, CodeConflict, err.Error())
	case apperrors.KindInvalidInput:
		response.BadRequest(c, CodeBadRequest, err.Error())
	case apperrors.KindUnprocessable:
		response.Unprocessable(c, CodeUnprocessable, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindError 请求参数绑定 / 校验失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, CodeBadRequest, "参数校验失败", err.Error())
}
