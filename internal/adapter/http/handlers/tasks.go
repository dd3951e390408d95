package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tasksmith/internal/adapter/http/dto"
	"tasksmith/internal/adapter/http/mapper"
	"tasksmith/internal/adapter/http/middleware"
	"tasksmith/internal/adapter/http/validation"
	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
	"tasksmith/pkg/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	lang := middleware.GetLang(c)

	value, present := c.GetQuery("parent_id")
	parentID, err := validation.ParseParentFilter(value, present)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidParentFilter, lang),
		)
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), parentID)
	if err != nil {
		zap.L().Error("failed to list tasks", zap.Error(err))
		h.writeError(c, err, apierrors.MsgFailListTask)
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItems(tasks))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), id)
	if err != nil {
		zap.L().Error("failed to get task", zap.String("task_id", id), zap.Error(err))
		h.writeError(c, err, apierrors.MsgFailGetTask)
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	lang := middleware.GetLang(c)

	var req dto.CreateTaskRequest
	raw, ok := bindObject(c, &req)
	if !ok {
		return
	}

	input, err := validation.BuildCreateTaskInput(req, raw)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
		return
	}

	if input.ParentID != nil {
		if _, err := h.taskService.GetTask(c.Request.Context(), *input.ParentID); err != nil {
			h.writeError(c, err, apierrors.MsgFailCreateTask)
			return
		}
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		zap.L().Error("failed to create task", zap.Error(err))
		h.writeError(c, err, apierrors.MsgFailCreateTask)
		return
	}

	c.JSON(http.StatusCreated, mapper.ToTaskItem(task))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	lang := middleware.GetLang(c)

	id, ok := taskID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	raw, ok := bindObject(c, &req)
	if !ok {
		return
	}

	updates, err := validation.BuildUpdatePayload(req, raw)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, updates)
	if err != nil {
		zap.L().Error("failed to update task", zap.String("task_id", id), zap.Error(err))
		h.writeError(c, err, apierrors.MsgFailUpdateTask)
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		zap.L().Error("failed to delete task", zap.String("task_id", id), zap.Error(err))
		h.writeError(c, err, apierrors.MsgFailDeleteTask)
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateSubtasks asks the model to split a task and returns the subtasks
// that were stored.
func (h *TaskHandler) GenerateSubtasks(c *gin.Context) {
	lang := middleware.GetLang(c)

	id, ok := taskID(c)
	if !ok {
		return
	}

	subtasks, err := h.taskService.GenerateSubtasks(c.Request.Context(), id)
	if err != nil {
		zap.L().Error("failed to generate subtasks", zap.String("task_id", id), zap.Error(err))
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			h.writeError(c, err, apierrors.MsgFailGenerateSubtasks)
		case domain.IsKind(err, domain.KindValidation):
			c.JSON(
				http.StatusBadGateway,
				apierrors.CreateKindError(http.StatusBadGateway, apierrors.MsgInvalidModelOutput, lang, string(domain.KindValidation)),
			)
		case errors.Is(err, domain.ErrModelUnavailable):
			c.JSON(
				http.StatusServiceUnavailable,
				apierrors.CreateKindError(http.StatusServiceUnavailable, apierrors.MsgModelUnavailable, lang, string(domain.KindConnection)),
			)
		default:
			h.writeError(c, err, apierrors.MsgFailGenerateSubtasks)
		}
		return
	}

	c.JSON(http.StatusCreated, mapper.ToTaskItems(subtasks))
}

// writeError maps domain failures onto HTTP statuses. Anything unclassified
// is a 500 with fallbackMsg.
func (h *TaskHandler) writeError(c *gin.Context, err error, fallbackMsg string) {
	lang := middleware.GetLang(c)
	kind := domain.KindOf(err)

	switch kind {
	case domain.KindNotFound:
		c.JSON(
			http.StatusNotFound,
			apierrors.CreateKindError(http.StatusNotFound, apierrors.MsgTaskNotFound, lang, string(kind)),
		)
	case domain.KindValidation:
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateKindError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang, string(kind)),
		)
	case domain.KindDeserialization:
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateKindError(http.StatusInternalServerError, apierrors.MsgCorruptTask, lang, string(kind)),
		)
	case domain.KindConnection:
		c.JSON(
			http.StatusServiceUnavailable,
			apierrors.CreateKindError(http.StatusServiceUnavailable, apierrors.MsgStoreUnavailable, lang, string(kind)),
		)
	default:
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, fallbackMsg, lang),
		)
	}
}

func taskID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := uuid.Validate(id); err != nil {
		lang := middleware.GetLang(c)
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskID, lang),
		)
		return "", false
	}
	return id, true
}

// bindObject validates the body into obj and also returns its top-level keys,
// so callers can tell an absent field from a zero one.
func bindObject(c *gin.Context, obj any) (map[string]json.RawMessage, bool) {
	lang := middleware.GetLang(c)
	invalid := func() {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
	}

	body, err := c.GetRawData()
	if err != nil {
		invalid()
		return nil, false
	}

	raw, err := validation.DecodeObject(body)
	if err != nil {
		invalid()
		return nil, false
	}

	if err := binding.JSON.BindBody(body, obj); err != nil {
		invalid()
		return nil, false
	}

	return raw, true
}
