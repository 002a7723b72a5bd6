package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/service"
	"github.com/mwilder2/diarydawn-backend/internal/util"
)

type Controller struct {
	zapLogger     *zap.SugaredLogger
	authService   *service.AuthService
	googleService *service.GoogleAuthService
	heroService   *service.HeroService
	pubSubService *service.PubSubService
	tokenService  *service.TokenService
	emailService  *service.EmailService
}

func NewController(
	logger *zap.SugaredLogger,
	authService *service.AuthService,
	googleService *service.GoogleAuthService,
	heroService *service.HeroService,
	pubSubService *service.PubSubService,
	tokenService *service.TokenService,
	emailService *service.EmailService,
) *Controller {
	return &Controller{
		zapLogger:     logger,
		authService:   authService,
		googleService: googleService,
		heroService:   heroService,
		pubSubService: pubSubService,
		tokenService:  tokenService,
		emailService:  emailService,
	}
}

func RegisterHandlers(g *echo.Group, c *Controller) {
	g.POST("/auth/register", c.Register)
	g.POST("/auth/login", c.Login)
	g.POST("/auth/refresh", c.Refresh)
	g.POST("/auth/logout", c.Logout)
	g.POST("/auth/request-password-reset", c.RequestPasswordReset)
	g.POST("/auth/submit-password-reset-code", c.SubmitPasswordReset)
	g.POST("/auth/google", c.GoogleLogin)
	g.POST("/auth/end-session", c.EndSession)
	g.POST("/email/send", c.SendEmail)
	g.POST("/hero/publish", c.PublishMessage)
	g.POST("/hero/generate-hero/:bookId", c.GenerateHero)
	g.GET("/hero/hero/:bookId", c.FetchHero)
	g.POST("/public/analyze", c.AnalyzeText)
}

// (POST /api/auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := c.authService.Register(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, user)
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	accessToken, err := bearerToken(ctx)
	if err != nil {
		return err
	}

	if err := c.authService.Logout(ctx.Request().Context(), accessToken); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "User logged out successfully"})
}

// (POST /api/auth/request-password-reset).
func (c *Controller) RequestPasswordReset(ctx echo.Context) error {
	var req models.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Password reset link sent"})
}

// (POST /api/auth/submit-password-reset-code).
func (c *Controller) SubmitPasswordReset(ctx echo.Context) error {
	var req models.SubmitPasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.authService.SubmitPasswordReset(ctx.Request().Context(), req.ConfirmationCode, req.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Password has been reset successfully"})
}

// (POST /api/auth/google).
func (c *Controller) GoogleLogin(ctx echo.Context) error {
	var req models.GoogleTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := c.googleService.Authenticate(ctx.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/end-session).
func (c *Controller) EndSession(ctx echo.Context) error {
	var req models.EndSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}

	if err := c.authService.EndPublicSession(ctx.Request().Context(), req.SessionID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Session ended successfully"})
}

// (POST /api/email/send).
func (c *Controller) SendEmail(ctx echo.Context) error {
	accessToken, err := bearerToken(ctx)
	if err != nil {
		return err
	}
	if _, _, err := c.tokenService.VerifyAccessToken(accessToken); err != nil {
		return err
	}

	var req models.SendEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.emailService.Send(ctx.Request().Context(), req.To, req.Subject, req.Message, false); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Email sent successfully"})
}

// (POST /api/hero/publish).
func (c *Controller) PublishMessage(ctx echo.Context) error {
	var req struct {
		Channel string `json:"channel"`
		Message string `json:"message"`
	}
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.pubSubService.PublishRaw(ctx.Request().Context(), req.Channel, req.Message); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "Message published successfully"})
}

// (POST /api/hero/generate-hero/:bookId).
func (c *Controller) GenerateHero(ctx echo.Context) error {
	bookID, err := bookIDParam(ctx)
	if err != nil {
		return err
	}
	accessToken, err := bearerToken(ctx)
	if err != nil {
		return err
	}

	if err := c.heroService.GenerateHeroFromBook(ctx.Request().Context(), accessToken, bookID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, models.MessageResponse{
		Message: "hero generation initiated successfully for book #" + strconv.FormatInt(bookID, 10),
	})
}

// (GET /api/hero/hero/:bookId).
func (c *Controller) FetchHero(ctx echo.Context) error {
	bookID, err := bookIDParam(ctx)
	if err != nil {
		return err
	}
	accessToken, err := bearerToken(ctx)
	if err != nil {
		return err
	}

	heroes, err := c.heroService.FetchHero(ctx.Request().Context(), accessToken, bookID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, heroes)
}

// (POST /api/public/analyze).
func (c *Controller) AnalyzeText(ctx echo.Context) error {
	var req models.PublicHeroJob
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text and sessionId are required")
	}

	if err := c.heroService.AnalyzeTextForPublicUser(ctx.Request().Context(), req.Text, req.SessionID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, models.MessageResponse{Message: "Analysis initiated successfully"})
}

func bearerToken(ctx echo.Context) (string, error) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return "", util.NewResponseError(http.StatusUnauthorized, "missing bearer token")
	}
	return token, nil
}

func bookIDParam(ctx echo.Context) (int64, error) {
	bookID, err := strconv.ParseInt(ctx.Param("bookId"), 10, 64)
	if err != nil {
		return 0, util.NewResponseError(http.StatusBadRequest, "invalid bookId: %s", ctx.Param("bookId"))
	}
	return bookID, nil
}
