package routes

import (
	"os"

	"velours_back_end/internal/handlers/admin"
	pa "velours_back_end/internal/handlers/payement"
	"velours_back_end/internal/handlers/product"
	"velours_back_end/internal/handlers/user"
	"velours_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Auth ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", user.Register)
		auth.POST("/login", middleware.LoginRateLimit(), user.Login)
		auth.POST("/mfa/challenge", middleware.MFARateLimit(), user.MFAChallenge)
		auth.POST("/refresh", user.RefreshSession)
		auth.POST("/exchange", user.ExchangeOAuthCode)
		auth.GET("/:provider", user.BeginAuth)
		auth.GET("/:provider/callback", user.CallbackAuth)
		auth.GET("/me", middleware.AuthRequired(), user.Me)
		auth.POST("/logout", middleware.AuthRequired(), user.Logout)
	}

	// --- MFA (compte connecté) ---
	mfa := api.Group("/mfa", middleware.AuthRequired())
	{
		mfa.GET("/status", user.GetMFAStatus)
		mfa.POST("/enable", user.EnableMFA)
		mfa.POST("/verify", middleware.MFARateLimit(), user.VerifyMFA)
		mfa.POST("/cancel", user.CancelMFASetup)
		mfa.POST("/disable", user.DisableMFA)
		mfa.POST("/backup-codes", user.GetBackupCodes)
		mfa.POST("/backup-codes/regenerate", user.RegenerateBackupCodes)
	}

	// --- Panier ---
	cart := api.Group("/cart", middleware.AuthRequired())
	{
		cart.GET("", user.GetCart)
		cart.POST("/add", middleware.CartRateLimit(), user.AddToCart)
		cart.PUT("/:lineId", user.UpdateCartQuantity)
		cart.DELETE("/clear", user.ClearCart)
		cart.DELETE("/:lineId", user.RemoveFromCart)
		cart.GET("/ws", user.CartWebSocket)
	}

	// --- Wishlist ---
	wishlist := api.Group("/wishlist", middleware.AuthRequired())
	{
		wishlist.GET("", user.GetWishlist)
		wishlist.POST("/toggle", user.ToggleWishlist)
	}

	// --- Catalogue ---
	products := api.Group("/products")
	{
		products.GET("", product.ListProducts)
		products.GET("/search", product.SearchProducts)
		products.GET("/categories", product.ListCategories)
		products.GET("/:productId", product.GetProduct)
		products.GET("/:productId/reviews", product.GetProductReviews)
		products.POST("/reviews", middleware.AuthRequired(), product.CreateReview)
		products.GET("/images/presigned", product.GetPresignedImage)

		adminProducts := products.Group("", middleware.AuthRequired(), middleware.RequireAdmin())
		{
			adminProducts.POST("", product.CreateProduct)
			adminProducts.POST("/categories", product.CreateCategory)
			adminProducts.PUT("/:productId", product.UpdateProduct)
			adminProducts.DELETE("/:productId", product.DeleteProduct)
			adminProducts.POST("/:productId/images", product.UploadProductImage)
		}
	}

	// --- Commandes ---
	orders := api.Group("/orders", middleware.AuthRequired())
	{
		orders.GET("", pa.ListOrders)
		orders.POST("/checkout", pa.Checkout)
		orders.POST("/:orderId/confirm", pa.ConfirmOrder)
	}

	// --- Admin ---
	adminGroup := api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin())
	{
		adminGroup.GET("/audit", admin.GetAuditLogs)
	}
}
