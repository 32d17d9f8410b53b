package donor

import (
	"errors"
	"net/http"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for donor handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new donor handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for donor operations. The auth and admin
// middlewares are passed in so route wiring stays in one place.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	donorGroup := router.Group("/donors")
	{
		donorGroup.POST("/register", h.register)
		donorGroup.POST("/login", h.login)
		donorGroup.GET("/search", h.search)

		authenticated := donorGroup.Group("")
		authenticated.Use(authMW)
		{
			authenticated.GET("/profile", h.getProfile)
			authenticated.PUT("/profile", h.updateProfile)
			authenticated.PUT("/availability", h.setAvailability)
		}

		admin := donorGroup.Group("/admin")
		admin.Use(authMW, adminMW)
		{
			admin.GET("/all", h.adminListAll)
			admin.DELETE("/:id", h.adminDelete)
			admin.PUT("/verify/:id", h.adminVerify)
		}
	}
}

// bindJSON unifies JSON binding so validation failures always surface as the
// field-level VALIDATION_ERROR shape.
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	createdDonor, token, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"donor": ToResponse(createdDonor),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	loggedInDonor, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"donor": ToResponse(loggedInDonor),
	})
}

func (h *Handler) search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	donors, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("Donor search failed", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	results := make([]SearchResponse, 0, len(donors))
	for i := range donors {
		results = append(results, ToSearchResponse(&donors[i]))
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) getProfile(c *gin.Context) {
	authDonor := middleware.GetDonorFromContext(c)
	if authDonor == nil {
		h.logger.Error("Donor identity missing in context for /profile", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, authDonor)
}

func (h *Handler) updateProfile(c *gin.Context) {
	authDonor := middleware.GetDonorFromContext(c)
	if authDonor == nil {
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	var patch ProfilePatch
	if !h.bindJSON(c, &patch) {
		return
	}
	updated, err := h.service.UpdateProfile(c.Request.Context(), authDonor.ID, patch)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(updated))
}

func (h *Handler) setAvailability(c *gin.Context) {
	authDonor := middleware.GetDonorFromContext(c)
	if authDonor == nil {
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	var req AvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	updated, err := h.service.SetAvailability(c.Request.Context(), authDonor.ID, *req.IsAvailable)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(updated))
}

func (h *Handler) adminListAll(c *gin.Context) {
	donors, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Admin donor listing failed", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	results := make([]Response, 0, len(donors))
	for i := range donors {
		results = append(results, ToResponse(&donors[i]))
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) adminDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid donor ID format."))
		return
	}
	if err := h.service.DeleteByID(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Donor deleted successfully"})
}

func (h *Handler) adminVerify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid donor ID format."))
		return
	}
	var req VerifyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	updated, err := h.service.SetVerified(c.Request.Context(), id, *req.IsVerified)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(updated))
}
