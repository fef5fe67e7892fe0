package dto

import (
	"time"

	"github.com/rampartlabs/rampart/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO 错误信息 DTO
type ErrorDTO struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Description string            `json:"description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	ErrorURI    string            `json:"error_uri,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse 创建错误响应
func ErrorResponse(err error, traceID string) *APIResponse {
	var errorDTO *ErrorDTO

	if appErr, ok := errors.AsAppError(err); ok {
		errorDTO = &ErrorDTO{
			Code:        appErr.Code,
			Message:     appErr.Message,
			Description: appErr.Description,
			Details:     appErr.Details,
			ErrorURI:    generateErrorURI(appErr.Code),
		}
	} else {
		errorDTO = &ErrorDTO{
			Code:     errors.CodeInternal,
			Message:  "internal error",
			ErrorURI: generateErrorURI(errors.CodeInternal),
		}
	}

	return &APIResponse{
		Success:   false,
		Error:     errorDTO,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// generateErrorURI 生成错误文档 URI
func generateErrorURI(code string) string {
	return "https://docs.rampartlabs.io/errors#" + code
}
