package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/response"
)

// ── 模块错误码前缀 ──
// 业务错误码 = 模块前缀*1000 + 分类后缀，例如任务不存在为 15101。

const (
	moduleAuth         = 11
	moduleUser         = 12
	moduleAnteproject  = 13
	moduleProject      = 14
	moduleTask         = 15
	moduleExport       = 16
	moduleFile         = 17
	moduleNotification = 18
	moduleSetting      = 19
	moduleComment      = 20
	moduleActivity     = 21
)

// 分类后缀
const (
	suffixBadParam       = 1
	suffixNotFound       = 101
	suffixForbidden      = 102
	suffixValidation     = 103
	suffixConflict       = 104
	suffixOptimisticLock = 105
)

func errCode(module, suffix int) int { return module*1000 + suffix }

// badParam 参数绑定失败；请求体超过 BodyLimit 上限时返回 413
func badParam(c *gin.Context, module int, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, errCode(module, suffixBadParam), "参数校验失败", err.Error())
}

// handleServiceError 将服务层错误按分类映射为 HTTP 状态码与业务错误码
func handleServiceError(c *gin.Context, module int, err error) {
	reason := pkgerrors.Reason(err)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, errCode(module, suffixNotFound), reason)
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, errCode(module, suffixForbidden), reason)
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, errCode(module, suffixValidation), reason)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, errCode(module, suffixOptimisticLock), reason)
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, errCode(module, suffixConflict), reason)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
