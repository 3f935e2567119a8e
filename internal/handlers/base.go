package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"inkpress/internal/apperr"
	"inkpress/internal/middleware"
	"inkpress/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNameOnce sync.Once

// useJSONFieldNames 让 validator 按 json 名称报告字段
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// respondError 将错误类型映射为 HTTP 状态码和消息
func respondError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error(), "errors": ve.Fields})
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": detail(err, "not found: ", "Resource") + " not found."})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": detail(err, "conflict: ", "Conflict")})
	default:
		log.Printf("[%s] %s %s: %v", c.GetString(middleware.RequestIDKey), c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
	}
}

// detail 取出 prefix 之后的文本并首字母大写
func detail(err error, prefix, fallback string) string {
	_, rest, ok := strings.Cut(err.Error(), prefix)
	if !ok || rest == "" {
		return fallback
	}
	return strings.ToUpper(rest[:1]) + rest[1:]
}

// bindError 将 gin 绑定失败转换为字段级校验错误
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &apperr.ValidationError{}
		for _, fe := range verrs {
			field, msg := fieldMessage(fe)
			out.Add(field, msg)
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.Invalid(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field)))
	}
	if errors.Is(err, io.EOF) {
		return &apperr.ValidationError{Message: "The request body is empty."}
	}
	return &apperr.ValidationError{Message: "The given data was invalid."}
}

func fieldMessage(fe validator.FieldError) (string, string) {
	field := fe.Field()
	name := humanize(field)
	switch fe.Tag() {
	case "required":
		return field, fmt.Sprintf("The %s field is required.", name)
	case "email":
		return field, fmt.Sprintf("The %s field must be a valid email address.", name)
	case "max":
		return field, fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min":
		return field, fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "oneof":
		return field, fmt.Sprintf("The selected %s is invalid.", name)
	case "eqfield":
		// 确认密码不一致时报告在 password 字段上
		target := utils.SnakeCase(fe.Param())
		return target, fmt.Sprintf("The %s field confirmation does not match.", humanize(target))
	default:
		return field, fmt.Sprintf("The %s field is invalid.", name)
	}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// bind 解析请求体到 obj 并校验
func bind(c *gin.Context, obj interface{}) error {
	useJSONFieldNames()
	if err := c.ShouldBind(obj); err != nil {
		return bindError(err)
	}
	return nil
}

// bindOptional 同 bind，但允许请求体为空
func bindOptional(c *gin.Context, obj interface{}) error {
	useJSONFieldNames()
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return bindError(err)
	}
	return nil
}

// requireText 去除首尾空白后为空则报必填错误
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Invalid(field, fmt.Sprintf("The %s field is required.", humanize(field)))
	}
	return nil
}

// pathID 解析 :id 参数，非正整数一律 404
func pathID(c *gin.Context, resource string) (uint, error) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		return 0, apperr.NotFound(resource)
	}
	return id, nil
}

// currentUserID 返回当前用户 ID，仅在 Gate 之后有效
func currentUserID(c *gin.Context) (uint, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.User == nil {
		return 0, apperr.ErrUnauthenticated
	}
	return p.User.ID, nil
}
