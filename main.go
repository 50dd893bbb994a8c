package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"libadmin/docs"
	"libadmin/internal/library/books"
	"libadmin/internal/library/readers"
	"libadmin/internal/library/records"
	"libadmin/internal/platform/auth"
	"libadmin/internal/platform/db"
	"libadmin/internal/platform/httpx"
)

func main() {
	configPath := flag.String("config", db.ConfigFilePath, "config file")
	migrate := flag.Bool("migrate", false, "apply "+db.SchemaFilePath+" before serving")
	flag.Parse()

	// 設定読み込み
	cfg, err := db.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[INFO] mode:%s\n", cfg.Mode)

	dailyRate, err := decimal.NewFromString(cfg.Fees.DailyRate)
	if err != nil || dailyRate.IsNegative() {
		log.Fatalf("fees.daily_rate is invalid: %q", cfg.Fees.DailyRate)
	}
	// 金額は JSON の数値で返す
	decimal.MarshalJSONWithoutQuotes = true

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrate {
		n, err := db.ApplySchema(ctx, conn, db.SchemaFilePath)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("[INFO] schema applied: %d statements", n)
	}

	authSvc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if a := cfg.Auth.InitialAdmin; a.Username != "" {
		err := authSvc.Register(ctx, a.Username, a.Password, auth.RoleAdmin)
		switch {
		case err == nil:
			log.Printf("[INFO] initial admin created: %s", a.Username)
		case errors.Is(err, auth.ErrAlreadyExists):
		default:
			log.Fatal(err)
		}
	}
	recordSvc := records.NewService(conn, dailyRate)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), httpx.RequestID())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "Location", "X-Request-ID"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))

		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	protected := api.Group("", auth.RequireAuth(authSvc.Secret()))
	auth.RegisterRoutes(api, protected, authSvc)
	books.RegisterRoutes(protected, books.NewService(conn))
	readers.RegisterRoutes(protected, readers.NewService(conn))
	records.RegisterRoutes(protected, recordSvc)

	// 延滞金の定期更新
	go recordSvc.RunAccrual(ctx, cfg.Fees.AccrueInterval)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(tls.Cert, tls.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("[INFO] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
