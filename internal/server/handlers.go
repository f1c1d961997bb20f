package server

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bucketwise/internal/model"
	"bucketwise/internal/service"
)

// decodeBase64 accepts plain base64 or a data URL ("data:...;base64,....").
func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

type uploadBody struct {
	FileName    string `json:"fileName"`
	Source      string `json:"source"`
	CSVContent  string `json:"csvContent"`
	FileContent string `json:"fileContent"`
}

func (s *Server) handleUpload(c *gin.Context) {
	var body uploadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	fileContent, err := decodeBase64(body.FileContent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileContent is not valid base64"})
		return
	}

	result, err := s.uploads.Process(c.Request.Context(), userID(c), service.UploadRequest{
		FileName:    body.FileName,
		Source:      model.Source(body.Source),
		CSVContent:  body.CSVContent,
		FileContent: fileContent,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListTransactions(c *gin.Context) {
	monthKey := c.Query("monthKey")
	if monthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthKey query parameter is required"})
		return
	}

	list, err := s.transactions.List(c.Request.Context(), userID(c), monthKey)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type setBucketBody struct {
	Bucket   string `json:"bucket"`
	Remember bool   `json:"remember"`
}

func (s *Server) handleSetBucket(c *gin.Context) {
	var body setBucketBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	txn, err := s.transactions.SetBucket(c.Request.Context(), userID(c), c.Param("transactionId"), body.Bucket, body.Remember)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	var update service.TransactionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	txn, err := s.transactions.Update(c.Request.Context(), userID(c), c.Param("transactionId"), update)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	if err := s.transactions.Delete(c.Request.Context(), userID(c), c.Param("transactionId")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleRecordManual(c *gin.Context) {
	var entry service.ManualEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	txn, err := s.transactions.RecordManual(c.Request.Context(), userID(c), entry)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (s *Server) handleMonthSummary(c *gin.Context) {
	summary, err := s.months.Summary(c.Request.Context(), userID(c), c.Param("monthKey"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleLockMonth(c *gin.Context) {
	summary, err := s.months.Lock(c.Request.Context(), userID(c), c.Param("monthKey"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type confirmBody struct {
	Confirmation string `json:"confirmation"`
}

func (s *Server) handleDeleteExpenses(c *gin.Context) {
	var body confirmBody
	_ = c.ShouldBindJSON(&body)

	result, err := s.months.DeleteExpenses(c.Request.Context(), userID(c), c.Param("monthKey"), body.Confirmation)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDeleteIncome(c *gin.Context) {
	var body confirmBody
	_ = c.ShouldBindJSON(&body)

	result, err := s.months.DeleteIncome(c.Request.Context(), userID(c), c.Param("monthKey"), body.Confirmation)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListBuckets(c *gin.Context) {
	buckets, err := s.buckets.List(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if buckets == nil {
		buckets = []model.Bucket{}
	}
	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}

func (s *Server) handleSeedBuckets(c *gin.Context) {
	result, err := s.buckets.Seed(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUpdateBucket(c *gin.Context) {
	var update service.BucketUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	bucket, err := s.buckets.Update(c.Request.Context(), userID(c), c.Param("bucketId"), update)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bucket)
}

type paystubUploadBody struct {
	FileName    string `json:"fileName"`
	Source      string `json:"source"`
	FileContent string `json:"fileContent"`
}

func (s *Server) handleUploadPaystub(c *gin.Context) {
	var body paystubUploadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	data, err := decodeBase64(body.FileContent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileContent is not valid base64"})
		return
	}

	stub, err := s.paystubs.Upload(c.Request.Context(), userID(c), body.FileName, body.Source, data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stub)
}

func (s *Server) handleListPaystubs(c *gin.Context) {
	monthKey := c.Query("monthKey")
	if monthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthKey query parameter is required"})
		return
	}

	list, err := s.paystubs.List(c.Request.Context(), userID(c), monthKey)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleUpdatePaystub(c *gin.Context) {
	var update service.PaystubUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	stub, err := s.paystubs.Update(c.Request.Context(), userID(c), c.Param("paystubId"), update)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stub)
}

func (s *Server) handleDeletePaystub(c *gin.Context) {
	if err := s.paystubs.Delete(c.Request.Context(), userID(c), c.Param("paystubId")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAddBill(c *gin.Context) {
	var input service.BillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	bill, err := s.bills.Add(c.Request.Context(), userID(c), input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (s *Server) handleListBills(c *gin.Context) {
	bills, err := s.bills.List(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

func (s *Server) handleUpdateBill(c *gin.Context) {
	var update service.BillUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	bill, err := s.bills.Update(c.Request.Context(), userID(c), c.Param("billId"), update)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(c *gin.Context) {
	if err := s.bills.Delete(c.Request.Context(), userID(c), c.Param("billId")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleDeleteAllData(c *gin.Context) {
	var body confirmBody
	_ = c.ShouldBindJSON(&body)

	result, err := s.data.DeleteAll(c.Request.Context(), userID(c), body.Confirmation)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type applyBillsBody struct {
	MonthKey string `json:"monthKey"`
}

func (s *Server) handleApplyBills(c *gin.Context) {
	var body applyBillsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	result, err := s.bills.ApplyToMonth(c.Request.Context(), userID(c), body.MonthKey)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
