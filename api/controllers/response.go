package controllers

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Success   bool        `json:"success" example:"true"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty" example:"表 users 不存在"`
	Timestamp time.Time   `json:"timestamp"`
}

// writeSuccess 写入成功响应
func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// writeError 写入错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, &APIResponse{
		Success:   false,
		Error:     message,
		Timestamp: time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
