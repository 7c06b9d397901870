/*
 * @module api/controllers/task_controller
 * @description 任务分发控制器,接收任务信封并同步等待终态响应,同时提供SSE事件订阅
 * @architecture 事件驱动架构 - 控制器层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 任务信封接收 -> 异步分发 -> 等待响应 -> 返回响应信封
 * @rules 响应信封原样回写 correlation_id;等待超时返回504
 * @dependencies dataquality-service/service, github.com/go-chi/chi/v5
 * @refs service/dispatch/, service/event/
 */

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"dataquality-service/service"
	"dataquality-service/service/dispatch"
	"dataquality-service/service/event"
	"dataquality-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskController 任务分发控制器
type TaskController struct {
	dispatcher   *dispatch.Dispatcher
	eventService *event.Service
	waitTimeout  time.Duration
}

// NewTaskController 创建任务分发控制器实例
func NewTaskController() *TaskController {
	timeout := 5 * time.Minute
	if value := os.Getenv("TASK_WAIT_TIMEOUT_SECONDS"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}

	return &TaskController{
		dispatcher:   service.GlobalDispatcher,
		eventService: service.GlobalEventService,
		waitTimeout:  timeout,
	}
}

// DispatchTask 分发任务
// @Summary 分发任务信封
// @Description 接收任务信封,异步执行后返回终态响应信封
// @Tags 任务分发
// @Accept json
// @Produce json
// @Param envelope body models.TaskEnvelope true "任务信封"
// @Success 200 {object} APIResponse{data=models.TaskEnvelope}
// @Failure 400 {object} APIResponse
// @Failure 504 {object} APIResponse
// @Router /tasks/dispatch [post]
func (c *TaskController) DispatchTask(w http.ResponseWriter, r *http.Request) {
	var envelope models.TaskEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeError(w, http.StatusBadRequest, "任务信封格式错误: "+err.Error())
		return
	}
	if envelope.Payload.Task == "" {
		writeError(w, http.StatusBadRequest, "任务名不能为空")
		return
	}
	if envelope.ID == "" {
		envelope.ID = uuid.New().String()
	}
	if envelope.Type == "" {
		envelope.Type = models.EnvelopeTypeTask
	}
	if envelope.Timestamp.IsZero() {
		envelope.Timestamp = time.Now()
	}

	pending := c.dispatcher.Dispatch(r.Context(), &envelope)

	select {
	case response := <-pending.Response:
		if response == nil {
			writeError(w, http.StatusInternalServerError, "任务执行中断")
			return
		}
		writeSuccess(w, response)
	case <-time.After(c.waitTimeout):
		writeError(w, http.StatusGatewayTimeout, "等待任务响应超时")
	case <-r.Context().Done():
		writeError(w, http.StatusRequestTimeout, "请求已取消")
	}
}

// HandleSSE 处理SSE连接
// @Summary 建立SSE连接
// @Description 调用方通过此接口建立SSE连接,接收任务进度与响应事件推送
// @Tags 任务分发
// @Param user_name path string true "用户名"
// @Success 200 {string} string "SSE事件流"
// @Router /sse/{user_name} [get]
func (c *TaskController) HandleSSE(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "user_name")
	if userName == "" {
		http.Error(w, "用户名不能为空", http.StatusBadRequest)
		return
	}

	// 设置SSE响应头
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	connectionID := uuid.New().String()
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = forwarded
	}

	client := c.eventService.AddConnection(userName, connectionID, clientIP)
	defer c.eventService.RemoveConnection(userName, connectionID)

	// 发送连接成功事件
	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"connection_id\":\"%s\",\"timestamp\":\"%s\"}\n\n",
		connectionID, time.Now().Format(time.RFC3339))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "不支持流式响应", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case evt := <-client.Channel:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-client.Done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
