// Package api contains all endpoints available
package api

import (
	"artmux/portfolio-api/db"
	"artmux/portfolio-api/middleware"
	"artmux/portfolio-api/security"
	"artmux/portfolio-api/service"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Argon  *security.ArgonHash
	States *service.OAuthStateStore
	Social *service.Registry
}

func NewRouter() (*API, error) {
	states := service.NewOAuthStateStore(10 * time.Minute)

	a := &API{
		Argon:  security.NewArgon(),
		States: states,
		Social: service.NewRegistry(states),
	}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v, ok := c.Get("userID"); ok {
					fields = append(fields, zap.Uint("userID", v.(uint)))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	a.Router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(db)
	maxUploadSize := viper.GetInt64("images.max_upload_size")

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", a.Heartbeat)

	// Credential endpoints get a per-IP rate limit on top of the body cap
	auth := router.Group("/auth",
		middleware.BodySizeLimiter(1<<20),
		middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		}),
	)
	{
		// POST /auth/signup		-> Registers a new user
		auth.POST("/signup", a.AuthSignup)

		// POST /auth/signin		-> Logs in a user and returns a bearer token
		auth.POST("/signin", a.AuthSignin)
	}

	artworks := router.Group("/artworks", jwt)
	{
		// POST /artworks		-> Uploads a new artwork with its image
		artworks.POST("", middleware.BodySizeLimiter(maxUploadSize), a.ArtworkCreate)

		// GET /artworks		-> Lists and searches the user's artworks
		artworks.GET("", a.ArtworkSearch)

		// GET /artworks/:slug		-> Returns one artwork by numbered slug
		artworks.GET("/:slug", a.ArtworkFetch)

		// GET /artworks/:slug/images/:size -> Serves one image variant
		artworks.GET("/:slug/images/:size", a.ArtworkServeImage)

		// PATCH /artworks/:slug	-> Edits title/observations/tags/image
		artworks.PATCH("/:slug", middleware.BodySizeLimiter(maxUploadSize), a.ArtworkUpdate)

		// DELETE /artworks/:slug	-> Trashes the artwork and its images
		artworks.DELETE("/:slug", a.ArtworkDelete)
	}

	publications := router.Group("/publications", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /publications		-> Groups artworks into a publication
		publications.POST("", a.PublicationCreate)

		// GET /publications		-> Lists the user's publications
		publications.GET("", a.PublicationList)

		// GET /publications/:slug	-> Returns one publication with artworks
		publications.GET("/:slug", a.PublicationFetch)

		// PATCH /publications/:slug	-> Edits a publication
		publications.PATCH("/:slug", a.PublicationUpdate)

		// DELETE /publications/:slug	-> Deletes a publication
		publications.DELETE("/:slug", a.PublicationDelete)

		// POST /publications/:slug/publish -> Cross-posts through linked accounts
		publications.POST("/:slug/publish", a.PublicationPublish)

		// GET /publications/:slug/published -> Where has this been posted
		publications.GET("/:slug/published", a.PublicationPublished)
	}

	// GET /tags			-> Lists the user's tags
	store := persist.NewMemoryStore(time.Minute)
	router.GET("/tags", jwt, cachePerUser(store, 30), a.TagList)

	accesses := router.Group("/accesses", jwt)
	{
		// GET /accesses		-> Linked accounts grouped by social media
		accesses.GET("", a.AccessList)

		// GET /accesses/create/:socialMedia -> Returns the provider auth URL
		accesses.GET("/create/:socialMedia", a.AccessCreate)

		// DELETE /accesses/:id		-> Forgets a linked account
		accesses.DELETE("/:id", a.AccessRemove)
	}

	// OAuth redirect endpoints, called by the providers
	router.GET("/twitter/callback", a.TwitterCallback)
	router.POST("/reddit/callback", jwt, a.RedditCallback)

	service.TrashCleanup(time.Hour)

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

// cachePerUser caches responses keyed by URI and authenticated user, so
// one user's cached body is never served to another. Must sit after the
// jwt middleware.
func cachePerUser(store persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.Cache(store, time.Second*time.Duration(sec),
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{
				CacheKey: fmt.Sprintf("%s|%d", c.Request.RequestURI, c.MustGet("userID").(uint)),
			}
		}),
	)
}
