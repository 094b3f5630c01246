package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/handler"
	appmw "github.com/dushixiang/tradenote/internal/middleware"
	"github.com/dushixiang/tradenote/internal/models"
	"github.com/dushixiang/tradenote/internal/service"
	"github.com/dushixiang/tradenote/internal/telegram"
	"github.com/dushixiang/tradenote/pkg/nostd"
	"github.com/dushixiang/tradenote/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewTradeNoteApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewTradeNoteApp() orz.Application {
	return &TradeNoteApp{}
}

var _ orz.Application = (*TradeNoteApp)(nil)

type AppComponents struct {
	SetupHandler     *handler.SetupHandler
	AuthHandler      *handler.AuthHandler
	JournalHandler   *handler.JournalHandler
	AnalyticsHandler *handler.AnalyticsHandler
	AssistantHandler *handler.AssistantHandler
	ContactHandler   *handler.ContactHandler

	AuthService *service.AuthService
	SnapshotJob *service.SnapshotJob

	Telegram *telegram.Telegram
}

type TradeNoteApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *TradeNoteApp) GetComponents() *AppComponents {
	return r.components
}

func (r *TradeNoteApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.AdminUser{}, models.JournalEntry{}, models.BalanceSnapshot{},
		models.Cashflow{}, models.ChatLog{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	{
		// 公开接口
		components.SetupHandler.RegisterRoutes(api)
		components.AuthHandler.RegisterRoutes(api)
		components.ContactHandler.RegisterRoutes(api)

		// 需认证的接口
		protected := api.Group("", appmw.JWTAuth(appmw.JWTAuthConfig{
			AuthService: components.AuthService,
			Logger:      logger,
		}))
		components.AuthHandler.RegisterProtectedRoutes(protected.Group("/auth"))
		components.JournalHandler.RegisterRoutes(protected)
		components.AnalyticsHandler.RegisterRoutes(protected)
		components.AssistantHandler.RegisterRoutes(protected)
	}

	return nil
}

func (r *TradeNoteApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("TradeNote Journal Dashboard Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if components.SnapshotJob != nil {
		if err := components.SnapshotJob.Start(); err != nil {
			return fmt.Errorf("failed to start snapshot job: %v", err)
		}
	}

	if components.Telegram != nil {
		components.Telegram.Start()
		logger.Info("telegram bot started")
	}

	return nil
}
