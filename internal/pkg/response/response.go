package response

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/service"
	"errors"
	log "log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = service.BadRequest
	Unauthorized        = service.Unauthorized
	Forbidden           = service.Forbidden
	NotFound            = service.NotFound
	TooLarge            = 413
	InternalServerError = service.InternalServerError
)

// Success 成功返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail HTTP 状态码恒为 200，业务码放在 code
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
	})
}

// Error 参数错误统一为 400，业务错误按 service.CodeOf 映射，其余一律 500
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, "参数错误: "+fieldsOf(ve))
		return
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		Fail(c, BadRequest, "Json错误")
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Fail(c, TooLarge, "文件过大")
		return
	}

	code, ok := service.CodeOf(err)
	if !ok {
		log.ErrorContext(c, "Error", "path", c.FullPath(), "err", err)
		Fail(c, InternalServerError, service.UnExpectedError.Error())
		return
	}
	Fail(c, code, err.Error())
}

func fieldsOf(ve validator.ValidationErrors) string {
	names := make([]string, 0, len(ve))
	for _, fe := range ve {
		names = append(names, strings.ToLower(fe.Field()))
	}
	return strings.Join(names, ",")
}
