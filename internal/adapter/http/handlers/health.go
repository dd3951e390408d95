package handlers

import (
	"context"
	"os"
	"time"

	"tasksmith/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

const (
	StatusOk           = "ok"
	StatusDown         = "down"
	healthStoreTimeout = 2 * time.Second
)

type HealthBasic struct {
	AppName           string `json:"app_name"`
	AppVersion        string `json:"app_version"`
	CurrentSystemTime string `json:"current_system_time"`
	Message           string `json:"message"`
}

type HealthServices struct {
	Store string `json:"store"`
	Model string `json:"model"`
}

type HealthAdvanced struct {
	AppName           string         `json:"app_name"`
	AppVersion        string         `json:"app_version"`
	CurrentSystemTime string         `json:"current_system_time"`
	Language          string         `json:"language"`
	StoreBackend      string         `json:"store_backend"`
	ModelProvider     string         `json:"model_provider"`
	Status            HealthServices `json:"status"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store         Pinger
	storeBackend  string
	modelProvider string
}

// NewHealthHandler reports on store. An empty modelProvider means subtask
// generation is disabled.
func NewHealthHandler(store Pinger, storeBackend, modelProvider string) *HealthHandler {
	return &HealthHandler{store: store, storeBackend: storeBackend, modelProvider: modelProvider}
}

func (h *HealthHandler) CheckHealth(c *gin.Context) {
	ctx := c.Request.Context()
	statusCode := 200
	message := StatusOk

	if !h.checkConnectionToStore(ctx) {
		statusCode = 500
		message = StatusDown
	}

	c.JSON(statusCode, HealthBasic{
		AppName:           os.Getenv("APP_NAME"),
		AppVersion:        getAppVersion(),
		CurrentSystemTime: time.Now().Format("2006-01-02 15:04:05"),
		Message:           message,
	})
}

func (h *HealthHandler) CheckHealthReport(c *gin.Context) {
	ctx := c.Request.Context()

	storeStatus := StatusDown
	if h.checkConnectionToStore(ctx) {
		storeStatus = StatusOk
	}

	modelStatus := StatusDown
	if h.modelProvider != "" {
		modelStatus = StatusOk
	}

	c.JSON(200, HealthAdvanced{
		AppName:           os.Getenv("APP_NAME"),
		AppVersion:        getAppVersion(),
		CurrentSystemTime: time.Now().Format("2006-01-02 15:04:05"),
		Language:          middleware.GetLang(c),
		StoreBackend:      h.storeBackend,
		ModelProvider:     h.modelProvider,
		Status: HealthServices{
			Store: storeStatus,
			Model: modelStatus,
		},
	})
}

func (h *HealthHandler) checkConnectionToStore(ctx context.Context) bool {
	if h.store == nil {
		return false
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, healthStoreTimeout)
	defer cancel()
	return h.store.Ping(timeoutCtx) == nil
}

func getAppVersion() string {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		return "dev"
	}
	return version
}
