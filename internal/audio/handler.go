package audio

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/eleven-am/live-gateway/internal/apikey"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	maxPCMBytes = 100 * 1024 * 1024

	// Defaults match the model's audio output format.
	defaultSampleRate = 24000
	defaultChannels   = 1
	defaultBitDepth   = 16
)

type Handler struct {
	apikeyStore *apikey.Store
	logger      *slog.Logger
}

func NewHandler(apikeyStore *apikey.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		apikeyStore: apikeyStore,
		logger:      logger.With("handler", "audio"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/wav", h.HandleEncodeWAV)
}

func (h *Handler) validateAPIKey(c echo.Context) (*apikey.APIKey, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return nil, shared.Unauthorized("missing_auth", "Authorization header required")
	}

	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth {
		return nil, shared.Unauthorized("invalid_auth", "Invalid authorization format")
	}

	key, err := h.apikeyStore.Validate(c.Request().Context(), token)
	if err != nil {
		return nil, shared.Unauthorized("invalid_key", "Invalid API key")
	}
	if !key.HasScope(shared.ScopeAudio) {
		return nil, shared.Forbidden("missing_scope", "API key lacks the audio scope")
	}

	return key, nil
}

// HandleEncodeWAV wraps raw PCM in a WAV container
// @Summary      Encode PCM as WAV
// @Description  Wraps raw little-endian PCM from the request body in a WAV container. Defaults to the model's output format of 24kHz mono 16-bit; override with the rate, channels, and bits query parameters.
// @Tags         audio
// @Accept       application/octet-stream
// @Produce      audio/wav
// @Param        rate query int false "Sample rate in Hz" default(24000)
// @Param        channels query int false "Channel count" default(1)
// @Param        bits query int false "Bits per sample (8, 16, 24, or 32)" default(16)
// @Success      200 {file} binary "WAV file"
// @Failure      400 {object} shared.APIError "Invalid parameters or misaligned PCM payload"
// @Failure      401 {object} shared.APIError "Unauthorized - invalid or missing API key"
// @Failure      413 {object} shared.APIError "Payload too large (max 100MB)"
// @Security     APIKeyAuth
// @Router       /audio/wav [post]
func (h *Handler) HandleEncodeWAV(c echo.Context) error {
	_, err := h.validateAPIKey(c)
	if err != nil {
		return err
	}

	rate, err := intQueryParam(c, "rate", defaultSampleRate)
	if err != nil {
		return err
	}
	channels, err := intQueryParam(c, "channels", defaultChannels)
	if err != nil {
		return err
	}
	bits, err := intQueryParam(c, "bits", defaultBitDepth)
	if err != nil {
		return err
	}

	if c.Request().ContentLength > maxPCMBytes {
		return shared.NewAPIError("payload_too_large", "PCM payload too large (max 100MB)").ToHTTP(http.StatusRequestEntityTooLarge)
	}

	pcm, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPCMBytes+1))
	if err != nil {
		return shared.InternalError("read_error", "Failed to read request body")
	}
	if len(pcm) > maxPCMBytes {
		return shared.NewAPIError("payload_too_large", "PCM payload too large (max 100MB)").ToHTTP(http.StatusRequestEntityTooLarge)
	}
	if len(pcm) == 0 {
		return shared.BadRequest("missing_audio", "Request body must contain raw PCM audio")
	}

	wavData, err := EncodeWAV(pcm, rate, channels, bits)
	if err != nil {
		return shared.BadRequest("invalid_pcm", err.Error())
	}

	return c.Blob(http.StatusOK, "audio/wav", wavData)
}

func intQueryParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.BadRequest("invalid_"+name, name+" must be an integer")
	}
	return v, nil
}
