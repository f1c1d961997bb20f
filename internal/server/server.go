// Package server exposes the service layer over HTTP with gin. Every data
// route is scoped to the caller identified by the X-User-ID header.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bucketwise/internal/service"
)

// Server bundles the services behind the HTTP handlers.
type Server struct {
	uploads      *service.UploadService
	transactions *service.TransactionService
	months       *service.MonthService
	buckets      *service.BucketService
	paystubs     *service.PaystubService
	bills        *service.RecurringBillService
	data         *service.DataService
	log          zerolog.Logger
}

func New(
	uploads *service.UploadService,
	transactions *service.TransactionService,
	months *service.MonthService,
	buckets *service.BucketService,
	paystubs *service.PaystubService,
	bills *service.RecurringBillService,
	data *service.DataService,
	log zerolog.Logger,
) *Server {
	return &Server{
		uploads:      uploads,
		transactions: transactions,
		months:       months,
		buckets:      buckets,
		paystubs:     paystubs,
		bills:        bills,
		data:         data,
		log:          log,
	}
}

// Router builds the gin engine with middleware and all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-User-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", s.requireUser())
	{
		api.POST("/upload", s.handleUpload)

		api.GET("/transactions", s.handleListTransactions)
		api.POST("/transactions", s.handleRecordManual)
		api.PUT("/transactions/:transactionId", s.handleSetBucket)
		api.PATCH("/transactions/:transactionId", s.handleUpdateTransaction)
		api.DELETE("/transactions/:transactionId", s.handleDeleteTransaction)

		api.GET("/months/:monthKey", s.handleMonthSummary)
		api.POST("/months/:monthKey/lock", s.handleLockMonth)
		api.DELETE("/months/:monthKey/expenses", s.handleDeleteExpenses)
		api.DELETE("/months/:monthKey/income", s.handleDeleteIncome)

		api.GET("/buckets", s.handleListBuckets)
		api.POST("/buckets/seed", s.handleSeedBuckets)
		api.PUT("/buckets/:bucketId", s.handleUpdateBucket)

		api.POST("/paystubs", s.handleUploadPaystub)
		api.GET("/paystubs", s.handleListPaystubs)
		api.PUT("/paystubs/:paystubId", s.handleUpdatePaystub)
		api.DELETE("/paystubs/:paystubId", s.handleDeletePaystub)

		api.POST("/recurring-bills", s.handleAddBill)
		api.GET("/recurring-bills", s.handleListBills)
		api.PUT("/recurring-bills/:billId", s.handleUpdateBill)
		api.DELETE("/recurring-bills/:billId", s.handleDeleteBill)
		api.POST("/recurring-bills/apply", s.handleApplyBills)

		api.POST("/delete-all-data", s.handleDeleteAllData)
	}

	return r
}

// requireUser pulls the caller identity from X-User-ID. Requests without one
// are rejected before touching any handler.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
